package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_alerts_created_total",
			Help: "Total number of fraud alerts created by automatic detection",
		},
		[]string{"alert_type", "severity"},
	)

	subjectsScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_subjects_scanned_total",
			Help: "Total number of subjects scored by batch scans",
		},
		[]string{"scope"},
	)

	subjectsFlaggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_subjects_flagged_total",
			Help: "Total number of subjects flagged by batch scans",
		},
		[]string{"scope"},
	)
)
