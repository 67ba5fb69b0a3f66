package fraud

import (
	"fmt"
	"regexp"
	"time"
)

// Scoring thresholds. Tuned operationally; scorer logic never hardcodes them.
const (
	// ScoreCap bounds every fraud score.
	ScoreCap = 100.0
	// AlertScoreThreshold is the strict lower bound above which an alert is
	// created (score must exceed it, not merely reach it).
	AlertScoreThreshold = 70.0
	// SeveritySplitScore separates the high band from the top band when an
	// alert's severity is assigned.
	SeveritySplitScore = 85.0
	// RiskMediumScore is the lower bound of the medium risk bucket.
	RiskMediumScore = 50.0

	// NewAccountAge is the account age below which an account counts as new.
	NewAccountAge = 7 * 24 * time.Hour
)

// Description content that points at off-platform contact or spam.
var suspiciousContentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[0-9]{10,}`),                             // embedded phone number
	regexp.MustCompile(`(?i)https?://`),                          // URL
	regexp.MustCompile(`(?i)whatsapp`),
	regexp.MustCompile(`(?i)telegram`),
	regexp.MustCompile(`(?i)email\s*:?\s*[\w.%+-]+@[\w.-]+\.\w+`), // email address after the word "email"
}

// RiskLevelFor buckets a score into the shared risk level mapping
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= SeveritySplitScore:
		return RiskLevelCritical
	case score >= AlertScoreThreshold:
		return RiskLevelHigh
	case score >= RiskMediumScore:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// SeverityFor assigns alert severity at creation time. Payment alerts map to
// a higher band than the other types.
func SeverityFor(alertType AlertType, score float64) Severity {
	if alertType == AlertTypePaymentFraud {
		if score > SeveritySplitScore {
			return SeverityCritical
		}
		return SeverityHigh
	}
	if score > SeveritySplitScore {
		return SeverityHigh
	}
	return SeverityMedium
}

// UserFacts is the snapshot a user scorer evaluates. Gathering the snapshot
// is the accessor's job; scoring it is pure.
type UserFacts struct {
	AccountAge       time.Duration
	EmailVerified    bool
	HasAvatar        bool
	BookingsLast24h  int
	CancellationRate float64 // cancelled/total, 0 when the user has no bookings
	BotScore         float64 // bot analyzer sub-score, 0..50
}

// ScoreUser evaluates a user's fraud indicators. Conditions are independent
// and additive; the total is capped at ScoreCap.
func ScoreUser(f UserFacts) (float64, []string) {
	score := 0.0
	indicators := make([]string, 0)

	if f.AccountAge < NewAccountAge {
		score += 20
		indicators = append(indicators, "New account")
	}
	if !f.EmailVerified {
		score += 15
		indicators = append(indicators, "Unverified email")
	}
	if !f.HasAvatar {
		score += 10
		indicators = append(indicators, "No profile picture")
	}
	if f.BookingsLast24h >= 5 {
		score += 25
		indicators = append(indicators, fmt.Sprintf("Rapid booking activity (%d in 24h)", f.BookingsLast24h))
	}
	if f.CancellationRate > 0.5 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("High cancellation rate (%.0f%%)", f.CancellationRate*100))
	}
	if f.BotScore > 0 {
		score += f.BotScore
		if f.BotScore > 20 {
			indicators = append(indicators, "Bot-like behavior detected")
		}
	}

	return cap100(score), indicators
}

// PropertyFacts is the snapshot a listing scorer evaluates
type PropertyFacts struct {
	PhotoCount          int
	PricePerNight       float64
	SegmentAveragePrice float64 // average for same city + property type, 0 when segment empty
	HasDuplicateListing bool
	OwnerEmailVerified  bool
	Description         string
}

// ScoreProperty evaluates a listing's fraud indicators
func ScoreProperty(f PropertyFacts) (float64, []string) {
	score := 0.0
	indicators := make([]string, 0)

	if f.PhotoCount == 0 {
		score += 25
		indicators = append(indicators, "No photos")
	}
	if f.SegmentAveragePrice > 0 && f.PricePerNight < 0.5*f.SegmentAveragePrice {
		score += 30
		indicators = append(indicators, fmt.Sprintf("Price far below market (%.2f vs %.2f average)", f.PricePerNight, f.SegmentAveragePrice))
	}
	if f.HasDuplicateListing {
		score += 35
		indicators = append(indicators, "Duplicate of an existing active listing")
	}
	if !f.OwnerEmailVerified {
		score += 15
		indicators = append(indicators, "Owner email unverified")
	}
	if hasSuspiciousContent(f.Description) {
		score += 20
		indicators = append(indicators, "Suspicious content in description")
	}

	return cap100(score), indicators
}

// BookingFacts is the snapshot a booking scorer evaluates
type BookingFacts struct {
	HoursUntilCheckIn float64
	TotalPrice        float64
	StayDays          int
	GuestAccountAge   time.Duration
	OtherBookings6h   int // other bookings by the same user in the trailing 6h
	Guests            int
	Capacity          int
}

// ScoreBooking evaluates a booking's fraud indicators
func ScoreBooking(f BookingFacts) (float64, []string) {
	score := 0.0
	indicators := make([]string, 0)

	if f.HoursUntilCheckIn >= 0 && f.HoursUntilCheckIn < 24 && f.TotalPrice > 500 {
		score += 20
		indicators = append(indicators, "Last-minute high-value booking")
	}
	if f.StayDays > 180 {
		score += 15
		indicators = append(indicators, fmt.Sprintf("Unusually long stay (%d days)", f.StayDays))
	}
	if f.GuestAccountAge < NewAccountAge && f.TotalPrice > 1000 {
		score += 30
		indicators = append(indicators, "High-value booking from new account")
	}
	if f.OtherBookings6h > 3 {
		score += 25
		indicators = append(indicators, fmt.Sprintf("Booking burst (%d others in 6h)", f.OtherBookings6h))
	}
	if f.Capacity > 0 && f.Guests > f.Capacity {
		score += 20
		indicators = append(indicators, fmt.Sprintf("Guest count %d exceeds capacity %d", f.Guests, f.Capacity))
	}

	return cap100(score), indicators
}

// PaymentFacts is the snapshot a payment scorer evaluates
type PaymentFacts struct {
	Amount           float64
	PayerAccountAge  time.Duration
	FailedPayments7d int
	OtherPayments1h  int // other payments by the same user in the trailing 1h
}

// ScorePayment evaluates a payment's fraud indicators
func ScorePayment(f PaymentFacts) (float64, []string) {
	score := 0.0
	indicators := make([]string, 0)

	if f.Amount > 1000 && f.PayerAccountAge < NewAccountAge {
		score += 40
		indicators = append(indicators, "Large payment from new account")
	}
	if f.FailedPayments7d > 3 {
		score += 30
		indicators = append(indicators, fmt.Sprintf("Repeated failed payments (%d in 7d)", f.FailedPayments7d))
	}
	if f.OtherPayments1h > 2 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("Rapid payment activity (%d others in 1h)", f.OtherPayments1h))
	}

	return cap100(score), indicators
}

func hasSuspiciousContent(description string) bool {
	if description == "" {
		return false
	}
	for _, pattern := range suspiciousContentPatterns {
		if pattern.MatchString(description) {
			return true
		}
	}
	return false
}

func cap100(score float64) float64 {
	if score > ScoreCap {
		return ScoreCap
	}
	return score
}
