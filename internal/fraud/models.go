package fraud

import (
	"fmt"
	"time"
)

// AlertType represents the kind of fraud detected
type AlertType string

const (
	AlertTypeSuspiciousUser    AlertType = "suspicious_user"
	AlertTypeSuspiciousListing AlertType = "suspicious_listing"
	AlertTypeSuspiciousBooking AlertType = "suspicious_booking"
	AlertTypePaymentFraud      AlertType = "payment_fraud"
)

// Severity represents the severity of a fraud alert
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AlertStatus represents the lifecycle status of a fraud alert.
// pending is the initial state; resolved and false_positive are terminal.
type AlertStatus string

const (
	AlertStatusPending       AlertStatus = "pending"
	AlertStatusResolved      AlertStatus = "resolved"
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

// ActionType represents a remediation action taken while resolving an alert
type ActionType string

const (
	ActionNone             ActionType = "no_action"
	ActionAccountSuspended ActionType = "account_suspended"
	ActionPropertyRemoved  ActionType = "property_removed"
	ActionPaymentBlocked   ActionType = "payment_blocked"
	// ActionReviewRemoved is accepted but performs no side effect: alerts
	// carry no review reference.
	ActionReviewRemoved ActionType = "review_removed"
)

// RiskLevel buckets a fraud score for callers
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// SubjectType identifies which kind of record is being evaluated
type SubjectType string

const (
	SubjectUser     SubjectType = "user"
	SubjectProperty SubjectType = "property"
	SubjectBooking  SubjectType = "booking"
	SubjectPayment  SubjectType = "payment"
)

// Subject is a typed reference to the record under evaluation. The engine
// never owns the record; it only reads it.
type Subject struct {
	Type SubjectType `json:"type"`
	ID   int64       `json:"id"`
}

// ParseSubjectType validates a subject type string
func ParseSubjectType(s string) (SubjectType, error) {
	switch SubjectType(s) {
	case SubjectUser, SubjectProperty, SubjectBooking, SubjectPayment:
		return SubjectType(s), nil
	}
	return "", fmt.Errorf("unknown subject type %q", s)
}

// AlertTypeFor maps a subject type to its alert type
func AlertTypeFor(st SubjectType) AlertType {
	switch st {
	case SubjectProperty:
		return AlertTypeSuspiciousListing
	case SubjectBooking:
		return AlertTypeSuspiciousBooking
	case SubjectPayment:
		return AlertTypePaymentFraud
	default:
		return AlertTypeSuspiciousUser
	}
}

// FraudAlert is a persisted detection event. Exactly one subject reference is
// set, matching the alert type. Evidence preserves detection order.
type FraudAlert struct {
	ID              int64       `json:"id"`
	AlertType       AlertType   `json:"alert_type"`
	Severity        Severity    `json:"severity"`
	UserID          *int64      `json:"user_id,omitempty"`
	PropertyID      *int64      `json:"property_id,omitempty"`
	BookingID       *int64      `json:"booking_id,omitempty"`
	PaymentID       *int64      `json:"payment_id,omitempty"`
	Description     string      `json:"description"`
	Evidence        []string    `json:"evidence"`
	FraudScore      float64     `json:"fraud_score"`
	Status          AlertStatus `json:"status"`
	ResolvedBy      *int64      `json:"resolved_by,omitempty"`
	ResolutionNotes string      `json:"resolution_notes,omitempty"`
	ActionTaken     bool        `json:"action_taken"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Subject returns the alert's subject reference
func (a *FraudAlert) Subject() Subject {
	switch a.AlertType {
	case AlertTypeSuspiciousListing:
		return Subject{Type: SubjectProperty, ID: deref(a.PropertyID)}
	case AlertTypeSuspiciousBooking:
		return Subject{Type: SubjectBooking, ID: deref(a.BookingID)}
	case AlertTypePaymentFraud:
		return Subject{Type: SubjectPayment, ID: deref(a.PaymentID)}
	default:
		return Subject{Type: SubjectUser, ID: deref(a.UserID)}
	}
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// CheckResult is returned by on-demand checks regardless of whether an alert
// was created
type CheckResult struct {
	FraudScore float64   `json:"fraud_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Indicators []string  `json:"indicators"`
}

// ScanScope selects which subject types a batch scan covers
type ScanScope string

const (
	ScopeUsers      ScanScope = "users"
	ScopeProperties ScanScope = "properties"
	ScopeBookings   ScanScope = "bookings"
	ScopePayments   ScanScope = "payments"
	ScopeAll        ScanScope = "all"
)

// ParseScanScope validates a scan scope string
func ParseScanScope(s string) (ScanScope, error) {
	switch ScanScope(s) {
	case ScopeUsers, ScopeProperties, ScopeBookings, ScopePayments, ScopeAll:
		return ScanScope(s), nil
	}
	return "", fmt.Errorf("unknown scan scope %q", s)
}

// ScanResult reports one scope's batch outcome
type ScanResult struct {
	Scanned int `json:"scanned"`
	Flagged int `json:"flagged"`
}

// ScanReport maps each scanned scope to its result
type ScanReport map[ScanScope]ScanResult

// AlertFilter narrows alert listings
type AlertFilter struct {
	Status    *AlertStatus
	Severity  *Severity
	AlertType *AlertType
}

// Statistics is the aggregate report over all persisted alerts
type Statistics struct {
	TotalAlerts   int64                 `json:"total_alerts"`
	ByStatus      map[AlertStatus]int64 `json:"by_status"`
	CriticalCount int64                 `json:"critical_count"`
	ByType        map[AlertType]int64   `json:"by_type"`
	BySeverity    map[Severity]int64    `json:"by_severity"`
	AverageScore  float64               `json:"average_score"`
	DetectionRate float64               `json:"detection_rate"`
	RecentAlerts  []*FraudAlert         `json:"recent_alerts"`
}

// ResolveAlertRequest is the payload for resolving an alert
type ResolveAlertRequest struct {
	Notes      string `json:"notes"`
	ActionType string `json:"action_type"`
}

// FalsePositiveRequest is the payload for marking an alert as a false positive
type FalsePositiveRequest struct {
	Notes string `json:"notes"`
}

// RunScanRequest is the payload for triggering a batch scan
type RunScanRequest struct {
	Scope string `json:"scope" binding:"required"`
}
