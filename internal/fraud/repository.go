package fraud

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/wanderstay/marketplace/internal/riskdata"
)

const recentAlertsLimit = 10

// Repository handles fraud alert persistence
type Repository struct {
	db riskdata.Database
}

// Ensure the concrete repository satisfies the service's requirements.
var _ AlertRepository = (*Repository)(nil)

// NewRepository creates a new fraud alert repository
func NewRepository(db riskdata.Database) *Repository {
	return &Repository{db: db}
}

// CreateAlert persists a new fraud alert. Creation is append-only and not
// idempotent: repeated detections for the same subject create separate rows.
func (r *Repository) CreateAlert(ctx context.Context, alert *FraudAlert) error {
	evidenceJSON, err := json.Marshal(alert.Evidence)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fraud_alerts (
			alert_type, severity, user_id, property_id, booking_id, payment_id,
			description, evidence, fraud_score, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		alert.AlertType,
		alert.Severity,
		alert.UserID,
		alert.PropertyID,
		alert.BookingID,
		alert.PaymentID,
		alert.Description,
		evidenceJSON,
		alert.FraudScore,
		alert.Status,
		alert.CreatedAt,
	).Scan(&alert.ID)
}

const alertColumns = `
	id, alert_type, severity, user_id, property_id, booking_id, payment_id,
	description, evidence, fraud_score, status, resolved_by,
	COALESCE(resolution_notes, ''), action_taken, resolved_at, created_at
`

// GetAlertByID retrieves a fraud alert by ID
func (r *Repository) GetAlertByID(ctx context.Context, alertID int64) (*FraudAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM fraud_alerts WHERE id = $1`

	var alert FraudAlert
	var evidenceJSON []byte

	err := r.db.QueryRow(ctx, query, alertID).Scan(
		&alert.ID,
		&alert.AlertType,
		&alert.Severity,
		&alert.UserID,
		&alert.PropertyID,
		&alert.BookingID,
		&alert.PaymentID,
		&alert.Description,
		&evidenceJSON,
		&alert.FraudScore,
		&alert.Status,
		&alert.ResolvedBy,
		&alert.ResolutionNotes,
		&alert.ActionTaken,
		&alert.ResolvedAt,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(evidenceJSON, &alert.Evidence); err != nil {
		alert.Evidence = make([]string, 0)
	}

	return &alert, nil
}

// ListAlerts retrieves alerts matching the filter with a total count, sorted
// by fraud score then recency.
func (r *Repository) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error) {
	where := ` WHERE ($1::text IS NULL OR status = $1)
	  AND ($2::text IS NULL OR severity = $2)
	  AND ($3::text IS NULL OR alert_type = $3)`

	status := filterArg((*string)(filter.Status))
	severity := filterArg((*string)(filter.Severity))
	alertType := filterArg((*string)(filter.AlertType))

	var total int64
	countQuery := `SELECT COUNT(*) FROM fraud_alerts` + where
	err := r.db.QueryRow(ctx, countQuery, status, severity, alertType).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + alertColumns + ` FROM fraud_alerts` + where + `
		ORDER BY fraud_score DESC, created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.db.Query(ctx, query, status, severity, alertType, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts := make([]*FraudAlert, 0)
	for rows.Next() {
		var alert FraudAlert
		var evidenceJSON []byte

		err := rows.Scan(
			&alert.ID,
			&alert.AlertType,
			&alert.Severity,
			&alert.UserID,
			&alert.PropertyID,
			&alert.BookingID,
			&alert.PaymentID,
			&alert.Description,
			&evidenceJSON,
			&alert.FraudScore,
			&alert.Status,
			&alert.ResolvedBy,
			&alert.ResolutionNotes,
			&alert.ActionTaken,
			&alert.ResolvedAt,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		if err := json.Unmarshal(evidenceJSON, &alert.Evidence); err != nil {
			alert.Evidence = make([]string, 0)
		}

		alerts = append(alerts, &alert)
	}

	return alerts, total, rows.Err()
}

// filterArg converts an optional filter into a nullable query argument
func filterArg(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// GetRecentAlerts returns the most recently created alerts
func (r *Repository) GetRecentAlerts(ctx context.Context, limit int) ([]*FraudAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM fraud_alerts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]*FraudAlert, 0)
	for rows.Next() {
		var alert FraudAlert
		var evidenceJSON []byte

		err := rows.Scan(
			&alert.ID,
			&alert.AlertType,
			&alert.Severity,
			&alert.UserID,
			&alert.PropertyID,
			&alert.BookingID,
			&alert.PaymentID,
			&alert.Description,
			&evidenceJSON,
			&alert.FraudScore,
			&alert.Status,
			&alert.ResolvedBy,
			&alert.ResolutionNotes,
			&alert.ActionTaken,
			&alert.ResolvedAt,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(evidenceJSON, &alert.Evidence); err != nil {
			alert.Evidence = make([]string, 0)
		}

		alerts = append(alerts, &alert)
	}

	return alerts, rows.Err()
}

// UpdateAlertResolution commits a pending to resolved/false_positive
// transition. The WHERE guard keeps terminal alerts immutable even under
// concurrent resolvers; false means the alert was not pending.
func (r *Repository) UpdateAlertResolution(ctx context.Context, alertID int64, status AlertStatus, resolvedBy int64, notes string, actionTaken bool, resolvedAt time.Time) (bool, error) {
	query := `
		UPDATE fraud_alerts
		SET status = $2,
		    resolved_by = $3,
		    resolution_notes = $4,
		    action_taken = $5,
		    resolved_at = $6
		WHERE id = $1
		  AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, alertID, status, resolvedBy, notes, actionTaken, resolvedAt)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// FindPendingAlertForSubject returns the most recent pending alert for a
// subject, or nil when there is none.
func (r *Repository) FindPendingAlertForSubject(ctx context.Context, subject Subject) (*FraudAlert, error) {
	column := ""
	switch subject.Type {
	case SubjectUser:
		column = "user_id"
	case SubjectProperty:
		column = "property_id"
	case SubjectBooking:
		column = "booking_id"
	case SubjectPayment:
		column = "payment_id"
	}

	query := `SELECT ` + alertColumns + ` FROM fraud_alerts
		WHERE status = 'pending' AND alert_type = $1 AND ` + column + ` = $2
		ORDER BY created_at DESC
		LIMIT 1`

	rows, err := r.db.Query(ctx, query, AlertTypeFor(subject.Type), subject.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var alert FraudAlert
	var evidenceJSON []byte
	err = rows.Scan(
		&alert.ID,
		&alert.AlertType,
		&alert.Severity,
		&alert.UserID,
		&alert.PropertyID,
		&alert.BookingID,
		&alert.PaymentID,
		&alert.Description,
		&evidenceJSON,
		&alert.FraudScore,
		&alert.Status,
		&alert.ResolvedBy,
		&alert.ResolutionNotes,
		&alert.ActionTaken,
		&alert.ResolvedAt,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(evidenceJSON, &alert.Evidence); err != nil {
		alert.Evidence = make([]string, 0)
	}

	return &alert, nil
}

// GetStatistics aggregates the reporting counters over all persisted alerts
func (r *Repository) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByStatus:   make(map[AlertStatus]int64),
		ByType:     make(map[AlertType]int64),
		BySeverity: make(map[Severity]int64),
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'resolved' THEN 1 END),
			COUNT(CASE WHEN status = 'false_positive' THEN 1 END),
			COUNT(CASE WHEN severity = 'critical' THEN 1 END),
			COUNT(CASE WHEN severity = 'high' THEN 1 END),
			COUNT(CASE WHEN severity = 'medium' THEN 1 END),
			COUNT(CASE WHEN severity = 'low' THEN 1 END),
			COUNT(CASE WHEN alert_type = 'suspicious_user' THEN 1 END),
			COUNT(CASE WHEN alert_type = 'suspicious_listing' THEN 1 END),
			COUNT(CASE WHEN alert_type = 'suspicious_booking' THEN 1 END),
			COUNT(CASE WHEN alert_type = 'payment_fraud' THEN 1 END),
			COUNT(CASE WHEN status = 'resolved' AND action_taken THEN 1 END),
			COALESCE(AVG(fraud_score), 0)
		FROM fraud_alerts
	`

	var pending, resolved, falsePositive int64
	var critical, high, medium, low int64
	var users, listings, bookings, payments int64
	var actioned int64

	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalAlerts,
		&pending, &resolved, &falsePositive,
		&critical, &high, &medium, &low,
		&users, &listings, &bookings, &payments,
		&actioned,
		&stats.AverageScore,
	)
	if err != nil {
		return nil, err
	}

	stats.ByStatus[AlertStatusPending] = pending
	stats.ByStatus[AlertStatusResolved] = resolved
	stats.ByStatus[AlertStatusFalsePositive] = falsePositive
	stats.CriticalCount = critical
	stats.BySeverity[SeverityCritical] = critical
	stats.BySeverity[SeverityHigh] = high
	stats.BySeverity[SeverityMedium] = medium
	stats.BySeverity[SeverityLow] = low
	stats.ByType[AlertTypeSuspiciousUser] = users
	stats.ByType[AlertTypeSuspiciousListing] = listings
	stats.ByType[AlertTypeSuspiciousBooking] = bookings
	stats.ByType[AlertTypePaymentFraud] = payments
	stats.DetectionRate = DetectionRate(actioned, stats.TotalAlerts)

	recent, err := r.GetRecentAlerts(ctx, recentAlertsLimit)
	if err != nil {
		return nil, err
	}
	stats.RecentAlerts = recent

	return stats, nil
}

// DetectionRate is the share of alerts both resolved and actioned, as a
// percentage rounded half-up to two decimals. Zero when there are no alerts.
func DetectionRate(actioned, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(actioned) / float64(total) * 100
	return math.Round(rate*100) / 100
}
