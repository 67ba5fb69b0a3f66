package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/wanderstay/marketplace/pkg/common"
	"github.com/wanderstay/marketplace/pkg/logger"
)

// Recency windows for batch scans. Accounts and listings age slowly;
// bookings and payments are only interesting while fresh.
const (
	userScanWindow     = 30 * 24 * time.Hour
	propertyScanWindow = 30 * 24 * time.Hour
	bookingScanWindow  = 7 * 24 * time.Hour
	paymentScanWindow  = 7 * 24 * time.Hour

	defaultScanWorkers = 8

	statsCacheKey = "fraud:stats"
	statsCacheTTL = 30 * time.Second
)

// StatsCache is the subset of the redis client used to cache the statistics
// report
type StatsCache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Service runs the fraud detection engine: on-demand checks, batch scans,
// the alert lifecycle and reporting.
type Service struct {
	data    DataAccessor
	alerts  AlertRepository
	cache   StatsCache
	workers int
}

// NewService creates a new fraud service. cache may be nil; workers <= 0
// falls back to the default pool size.
func NewService(data DataAccessor, alerts AlertRepository, cache StatsCache, workers int) *Service {
	if workers <= 0 {
		workers = defaultScanWorkers
	}
	return &Service{
		data:    data,
		alerts:  alerts,
		cache:   cache,
		workers: workers,
	}
}

// Check scores a single subject on demand. An alert is created as a side
// effect when the score strictly exceeds the threshold; the result is
// returned to the caller either way.
func (s *Service) Check(ctx context.Context, subject Subject) (*CheckResult, error) {
	result, err := s.evaluate(ctx, subject)
	if err != nil {
		return nil, err
	}

	if result.FraudScore > AlertScoreThreshold {
		if err := s.createAlert(ctx, subject, result); err != nil {
			return nil, common.NewInternalServerError("failed to record fraud alert")
		}
	}

	return result, nil
}

// RunScan batch-scores recently created subjects for the requested scope and
// creates an alert for every subject scoring above the threshold.
func (s *Service) RunScan(ctx context.Context, scope ScanScope) (ScanReport, error) {
	scopes := []ScanScope{scope}
	if scope == ScopeAll {
		scopes = []ScanScope{ScopeUsers, ScopeProperties, ScopeBookings, ScopePayments}
	}

	report := make(ScanReport, len(scopes))
	for _, sc := range scopes {
		result, err := s.scanScope(ctx, sc)
		if err != nil {
			return nil, err
		}
		report[sc] = result
	}

	return report, nil
}

func (s *Service) scanScope(ctx context.Context, scope ScanScope) (ScanResult, error) {
	now := time.Now()

	var subjectType SubjectType
	var ids []int64
	var err error

	switch scope {
	case ScopeUsers:
		subjectType = SubjectUser
		ids, err = s.data.ListRecentUserIDs(ctx, now.Add(-userScanWindow))
	case ScopeProperties:
		subjectType = SubjectProperty
		ids, err = s.data.ListRecentPropertyIDs(ctx, now.Add(-propertyScanWindow))
	case ScopeBookings:
		subjectType = SubjectBooking
		ids, err = s.data.ListRecentBookingIDs(ctx, now.Add(-bookingScanWindow))
	case ScopePayments:
		subjectType = SubjectPayment
		ids, err = s.data.ListRecentPaymentIDs(ctx, now.Add(-paymentScanWindow))
	default:
		return ScanResult{}, common.NewBadRequestError("invalid scan scope", nil)
	}
	if err != nil {
		return ScanResult{}, common.NewInternalServerError("failed to list scan subjects")
	}

	// Each subject is scored independently; a failure skips that subject
	// rather than aborting the batch.
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	flagged := 0

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			subject := Subject{Type: subjectType, ID: id}
			result, err := s.evaluate(ctx, subject)
			if err != nil {
				logger.WithContext(ctx).Warn("Scan skipped subject",
					zap.String("subject_type", string(subjectType)),
					zap.Int64("subject_id", id),
					zap.Error(err),
				)
				return
			}

			if result.FraudScore > AlertScoreThreshold {
				if err := s.createAlert(ctx, subject, result); err != nil {
					logger.WithContext(ctx).Error("Scan failed to record alert",
						zap.String("subject_type", string(subjectType)),
						zap.Int64("subject_id", id),
						zap.Error(err),
					)
					return
				}
				mu.Lock()
				flagged++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	subjectsScannedTotal.WithLabelValues(string(scope)).Add(float64(len(ids)))
	subjectsFlaggedTotal.WithLabelValues(string(scope)).Add(float64(flagged))

	logger.WithContext(ctx).Info("Fraud scan completed",
		zap.String("scope", string(scope)),
		zap.Int("scanned", len(ids)),
		zap.Int("flagged", flagged),
	)

	return ScanResult{Scanned: len(ids), Flagged: flagged}, nil
}

// evaluate dispatches to the per-type scorer after gathering the subject's
// snapshot through the data accessor.
func (s *Service) evaluate(ctx context.Context, subject Subject) (*CheckResult, error) {
	var score float64
	var indicators []string
	var err error

	switch subject.Type {
	case SubjectUser:
		score, indicators, err = s.evaluateUser(ctx, subject.ID)
	case SubjectProperty:
		score, indicators, err = s.evaluateProperty(ctx, subject.ID)
	case SubjectBooking:
		score, indicators, err = s.evaluateBooking(ctx, subject.ID)
	case SubjectPayment:
		score, indicators, err = s.evaluatePayment(ctx, subject.ID)
	default:
		return nil, common.NewBadRequestError("invalid subject type", nil)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("subject not found", err)
		}
		return nil, err
	}

	return &CheckResult{
		FraudScore: score,
		RiskLevel:  RiskLevelFor(score),
		Indicators: indicators,
	}, nil
}

func (s *Service) evaluateUser(ctx context.Context, userID int64) (float64, []string, error) {
	now := time.Now()

	user, err := s.data.GetUser(ctx, userID)
	if err != nil {
		return 0, nil, err
	}

	bookings24h, err := s.data.CountBookingsByUserSince(ctx, userID, now.Add(-24*time.Hour), 0)
	if err != nil {
		return 0, nil, err
	}

	total, cancelled, err := s.data.BookingTotalsByUser(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	cancellationRate := 0.0
	if total > 0 {
		cancellationRate = float64(cancelled) / float64(total)
	}

	events, err := s.data.BehaviorEventTimes(ctx, userID, now.Add(-time.Hour), now)
	if err != nil {
		return 0, nil, err
	}

	score, indicators := ScoreUser(UserFacts{
		AccountAge:       now.Sub(user.CreatedAt),
		EmailVerified:    user.EmailVerified,
		HasAvatar:        user.AvatarURL != "",
		BookingsLast24h:  bookings24h,
		CancellationRate: cancellationRate,
		BotScore:         BotScore(events),
	})
	return score, indicators, nil
}

func (s *Service) evaluateProperty(ctx context.Context, propertyID int64) (float64, []string, error) {
	property, err := s.data.GetProperty(ctx, propertyID)
	if err != nil {
		return 0, nil, err
	}

	avgPrice, err := s.data.AveragePriceForSegment(ctx, property.City, property.PropertyType)
	if err != nil {
		return 0, nil, err
	}

	duplicate, err := s.data.HasDuplicateListing(ctx, property)
	if err != nil {
		return 0, nil, err
	}

	owner, err := s.data.GetUser(ctx, property.OwnerID)
	if err != nil {
		return 0, nil, err
	}

	score, indicators := ScoreProperty(PropertyFacts{
		PhotoCount:          property.PhotoCount,
		PricePerNight:       property.PricePerNight,
		SegmentAveragePrice: avgPrice,
		HasDuplicateListing: duplicate,
		OwnerEmailVerified:  owner.EmailVerified,
		Description:         property.Description,
	})
	return score, indicators, nil
}

func (s *Service) evaluateBooking(ctx context.Context, bookingID int64) (float64, []string, error) {
	now := time.Now()

	booking, err := s.data.GetBooking(ctx, bookingID)
	if err != nil {
		return 0, nil, err
	}

	guest, err := s.data.GetUser(ctx, booking.UserID)
	if err != nil {
		return 0, nil, err
	}

	property, err := s.data.GetProperty(ctx, booking.PropertyID)
	if err != nil {
		return 0, nil, err
	}

	others6h, err := s.data.CountBookingsByUserSince(ctx, booking.UserID, now.Add(-6*time.Hour), booking.ID)
	if err != nil {
		return 0, nil, err
	}

	score, indicators := ScoreBooking(BookingFacts{
		HoursUntilCheckIn: booking.CheckIn.Sub(now).Hours(),
		TotalPrice:        booking.TotalPrice,
		StayDays:          int(booking.CheckOut.Sub(booking.CheckIn).Hours() / 24),
		GuestAccountAge:   now.Sub(guest.CreatedAt),
		OtherBookings6h:   others6h,
		Guests:            booking.Guests,
		Capacity:          property.Capacity,
	})
	return score, indicators, nil
}

func (s *Service) evaluatePayment(ctx context.Context, paymentID int64) (float64, []string, error) {
	now := time.Now()

	payment, err := s.data.GetPayment(ctx, paymentID)
	if err != nil {
		return 0, nil, err
	}

	payer, err := s.data.GetUser(ctx, payment.UserID)
	if err != nil {
		return 0, nil, err
	}

	failed7d, err := s.data.CountFailedPaymentsSince(ctx, payment.UserID, now.Add(-7*24*time.Hour))
	if err != nil {
		return 0, nil, err
	}

	others1h, err := s.data.CountPaymentsByUserSince(ctx, payment.UserID, now.Add(-time.Hour), payment.ID)
	if err != nil {
		return 0, nil, err
	}

	score, indicators := ScorePayment(PaymentFacts{
		Amount:           payment.Amount,
		PayerAccountAge:  now.Sub(payer.CreatedAt),
		FailedPayments7d: failed7d,
		OtherPayments1h:  others1h,
	})
	return score, indicators, nil
}

// createAlert materializes a detection event. Intentionally not idempotent:
// every detection above the threshold appends a new alert row.
func (s *Service) createAlert(ctx context.Context, subject Subject, result *CheckResult) error {
	alertType := AlertTypeFor(subject.Type)
	severity := SeverityFor(alertType, result.FraudScore)

	alert := &FraudAlert{
		AlertType:   alertType,
		Severity:    severity,
		Description: fmt.Sprintf("Automatic detection flagged %s %d with fraud score %.1f", subject.Type, subject.ID, result.FraudScore),
		Evidence:    result.Indicators,
		FraudScore:  result.FraudScore,
		Status:      AlertStatusPending,
		CreatedAt:   time.Now(),
	}

	switch subject.Type {
	case SubjectUser:
		alert.UserID = &subject.ID
	case SubjectProperty:
		alert.PropertyID = &subject.ID
	case SubjectBooking:
		alert.BookingID = &subject.ID
	case SubjectPayment:
		alert.PaymentID = &subject.ID
	}

	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return err
	}

	alertsCreatedTotal.WithLabelValues(string(alertType), string(severity)).Inc()

	logger.WithContext(ctx).Info("Fraud alert created",
		zap.Int64("alert_id", alert.ID),
		zap.String("alert_type", string(alertType)),
		zap.String("severity", string(severity)),
		zap.Float64("fraud_score", result.FraudScore),
	)

	return nil
}

// GetAlert retrieves a single alert
func (s *Service) GetAlert(ctx context.Context, alertID int64) (*FraudAlert, error) {
	alert, err := s.alerts.GetAlertByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("alert not found", err)
		}
		return nil, common.NewInternalServerError("failed to load alert")
	}
	return alert, nil
}

// ListAlerts retrieves alerts matching the filter with a total count
func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error) {
	alerts, total, err := s.alerts.ListAlerts(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, common.NewInternalServerError("failed to list alerts")
	}
	return alerts, total, nil
}

// ResolveAlert transitions a pending alert to resolved and executes the
// requested remediation action. Remediation is best-effort: its failure is
// logged and never rolls the transition back.
func (s *Service) ResolveAlert(ctx context.Context, alertID, resolverID int64, notes string, actionType ActionType) (*FraudAlert, error) {
	if !validActionType(actionType) {
		return nil, common.NewBadRequestError("invalid action type", nil)
	}

	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != AlertStatusPending {
		return nil, common.NewConflictError("alert is not pending", nil)
	}

	actionTaken := actionType != "" && actionType != ActionNone
	now := time.Now()

	ok, err := s.alerts.UpdateAlertResolution(ctx, alertID, AlertStatusResolved, resolverID, notes, actionTaken, now)
	if err != nil {
		return nil, common.NewInternalServerError("failed to resolve alert")
	}
	if !ok {
		// Lost a race with another resolver.
		return nil, common.NewConflictError("alert is not pending", nil)
	}

	if actionTaken {
		s.applyRemediation(ctx, alert, actionType)
	}

	alert.Status = AlertStatusResolved
	alert.ResolvedBy = &resolverID
	alert.ResolutionNotes = notes
	alert.ActionTaken = actionTaken
	alert.ResolvedAt = &now

	logger.WithContext(ctx).Info("Fraud alert resolved",
		zap.Int64("alert_id", alertID),
		zap.Int64("resolved_by", resolverID),
		zap.String("action_type", string(actionType)),
	)

	return alert, nil
}

// MarkFalsePositive transitions a pending alert to false_positive. No
// remediation ever runs on this path.
func (s *Service) MarkFalsePositive(ctx context.Context, alertID, reviewerID int64, notes string) (*FraudAlert, error) {
	alert, err := s.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.Status != AlertStatusPending {
		return nil, common.NewConflictError("alert is not pending", nil)
	}

	now := time.Now()
	ok, err := s.alerts.UpdateAlertResolution(ctx, alertID, AlertStatusFalsePositive, reviewerID, notes, false, now)
	if err != nil {
		return nil, common.NewInternalServerError("failed to update alert")
	}
	if !ok {
		return nil, common.NewConflictError("alert is not pending", nil)
	}

	alert.Status = AlertStatusFalsePositive
	alert.ResolvedBy = &reviewerID
	alert.ResolutionNotes = notes
	alert.ActionTaken = false
	alert.ResolvedAt = &now

	logger.WithContext(ctx).Info("Fraud alert marked as false positive",
		zap.Int64("alert_id", alertID),
		zap.Int64("reviewed_by", reviewerID),
	)

	return alert, nil
}

// applyRemediation executes the side effect on the referenced subject. All
// failures are logged and swallowed; the alert transition has already
// committed.
func (s *Service) applyRemediation(ctx context.Context, alert *FraudAlert, actionType ActionType) {
	var err error

	switch actionType {
	case ActionAccountSuspended:
		if alert.UserID == nil {
			err = errors.New("alert has no user reference")
			break
		}
		err = s.data.SuspendUser(ctx, *alert.UserID)
	case ActionPropertyRemoved:
		if alert.PropertyID == nil {
			err = errors.New("alert has no property reference")
			break
		}
		err = s.data.RemoveProperty(ctx, *alert.PropertyID)
	case ActionPaymentBlocked:
		if alert.PaymentID == nil {
			err = errors.New("alert has no payment reference")
			break
		}
		err = s.data.BlockPayment(ctx, *alert.PaymentID)
	case ActionReviewRemoved:
		// Accepted but inert: alerts carry no review reference.
		return
	default:
		return
	}

	if err != nil {
		logger.WithContext(ctx).Error("Remediation action failed",
			zap.Int64("alert_id", alert.ID),
			zap.String("action_type", string(actionType)),
			zap.Error(err),
		)
	}
}

func validActionType(actionType ActionType) bool {
	switch actionType {
	case "", ActionNone, ActionAccountSuspended, ActionPropertyRemoved, ActionPaymentBlocked, ActionReviewRemoved:
		return true
	}
	return false
}

// GetStatistics returns the aggregate alert report, served from the cache
// when fresh.
func (s *Service) GetStatistics(ctx context.Context) (*Statistics, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetString(ctx, statsCacheKey); err == nil && cached != "" {
			var stats Statistics
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.alerts.GetStatistics(ctx)
	if err != nil {
		return nil, common.NewInternalServerError("failed to compute statistics")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.SetWithExpiration(ctx, statsCacheKey, payload, statsCacheTTL); err != nil {
				logger.WithContext(ctx).Warn("Failed to cache fraud statistics", zap.Error(err))
			}
		}
	}

	return stats, nil
}

// FindPendingAlert exposes the per-subject dedup helper for callers that
// want a single pending flag per subject before acting.
func (s *Service) FindPendingAlert(ctx context.Context, subject Subject) (*FraudAlert, error) {
	alert, err := s.alerts.FindPendingAlertForSubject(ctx, subject)
	if err != nil {
		return nil, common.NewInternalServerError("failed to query pending alerts")
	}
	return alert, nil
}
