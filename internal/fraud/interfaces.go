package fraud

import (
	"context"
	"time"

	"github.com/wanderstay/marketplace/internal/riskdata"
)

// DataAccessor exposes the read-only marketplace views the scorers need, plus
// the three remediation status writes. Implemented by riskdata.Repository.
type DataAccessor interface {
	GetUser(ctx context.Context, userID int64) (*riskdata.User, error)
	GetProperty(ctx context.Context, propertyID int64) (*riskdata.Property, error)
	GetBooking(ctx context.Context, bookingID int64) (*riskdata.Booking, error)
	GetPayment(ctx context.Context, paymentID int64) (*riskdata.Payment, error)

	CountBookingsByUserSince(ctx context.Context, userID int64, since time.Time, excludeBookingID int64) (int, error)
	BookingTotalsByUser(ctx context.Context, userID int64) (total, cancelled int, err error)
	BehaviorEventTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error)
	AveragePriceForSegment(ctx context.Context, city, propertyType string) (float64, error)
	HasDuplicateListing(ctx context.Context, property *riskdata.Property) (bool, error)
	CountFailedPaymentsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CountPaymentsByUserSince(ctx context.Context, userID int64, since time.Time, excludePaymentID int64) (int, error)

	ListRecentUserIDs(ctx context.Context, since time.Time) ([]int64, error)
	ListRecentPropertyIDs(ctx context.Context, since time.Time) ([]int64, error)
	ListRecentBookingIDs(ctx context.Context, since time.Time) ([]int64, error)
	ListRecentPaymentIDs(ctx context.Context, since time.Time) ([]int64, error)

	SuspendUser(ctx context.Context, userID int64) error
	RemoveProperty(ctx context.Context, propertyID int64) error
	BlockPayment(ctx context.Context, paymentID int64) error
}

// AlertRepository persists fraud alerts and serves the reporting aggregates
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *FraudAlert) error
	GetAlertByID(ctx context.Context, alertID int64) (*FraudAlert, error)
	ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error)

	// UpdateAlertResolution commits a lifecycle transition. The update is
	// guarded on status = pending; returns false when the alert was not
	// pending (no state change).
	UpdateAlertResolution(ctx context.Context, alertID int64, status AlertStatus, resolvedBy int64, notes string, actionTaken bool, resolvedAt time.Time) (bool, error)

	// FindPendingAlertForSubject is a dedup helper for callers that want a
	// single pending flag per subject. The engine never calls it implicitly.
	FindPendingAlertForSubject(ctx context.Context, subject Subject) (*FraudAlert, error)

	GetStatistics(ctx context.Context) (*Statistics, error)
}
