package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreUserAllIndicators(t *testing.T) {
	score, indicators := ScoreUser(UserFacts{
		AccountAge:       2 * 24 * time.Hour,
		EmailVerified:    false,
		HasAvatar:        false,
		BookingsLast24h:  6,
		CancellationRate: 0.75,
		BotScore:         50,
	})

	// 20+15+10+25+20+50 = 140, capped
	assert.Equal(t, 100.0, score)
	assert.Contains(t, indicators, "New account")
	assert.Contains(t, indicators, "Unverified email")
	assert.Contains(t, indicators, "No profile picture")
	assert.Contains(t, indicators, "Rapid booking activity (6 in 24h)")
	assert.Contains(t, indicators, "High cancellation rate (75%)")
	assert.Contains(t, indicators, "Bot-like behavior detected")
}

func TestScoreUserCleanAccount(t *testing.T) {
	score, indicators := ScoreUser(UserFacts{
		AccountAge:       90 * 24 * time.Hour,
		EmailVerified:    true,
		HasAvatar:        true,
		BookingsLast24h:  2,
		CancellationRate: 0.1,
		BotScore:         0,
	})

	assert.Equal(t, 0.0, score)
	assert.Empty(t, indicators)
}

func TestScoreUserBoundaries(t *testing.T) {
	// Exactly 7 days is not a new account.
	score, _ := ScoreUser(UserFacts{
		AccountAge:    NewAccountAge,
		EmailVerified: true,
		HasAvatar:     true,
	})
	assert.Equal(t, 0.0, score)

	// 4 bookings in 24h is below the rapid-activity threshold; 5 hits it.
	score, _ = ScoreUser(UserFacts{
		AccountAge:      30 * 24 * time.Hour,
		EmailVerified:   true,
		HasAvatar:       true,
		BookingsLast24h: 4,
	})
	assert.Equal(t, 0.0, score)

	score, indicators := ScoreUser(UserFacts{
		AccountAge:      30 * 24 * time.Hour,
		EmailVerified:   true,
		HasAvatar:       true,
		BookingsLast24h: 5,
	})
	assert.Equal(t, 25.0, score)
	assert.Equal(t, []string{"Rapid booking activity (5 in 24h)"}, indicators)

	// Cancellation rate of exactly 0.5 does not trigger.
	score, _ = ScoreUser(UserFacts{
		AccountAge:       30 * 24 * time.Hour,
		EmailVerified:    true,
		HasAvatar:        true,
		CancellationRate: 0.5,
	})
	assert.Equal(t, 0.0, score)
}

func TestScoreUserBotSubScoreBelowIndicatorThreshold(t *testing.T) {
	// A burst-only bot sub-score of 20 counts toward the total but is not
	// strong enough for the indicator.
	score, indicators := ScoreUser(UserFacts{
		AccountAge:    30 * 24 * time.Hour,
		EmailVerified: true,
		HasAvatar:     true,
		BotScore:      20,
	})

	assert.Equal(t, 20.0, score)
	assert.NotContains(t, indicators, "Bot-like behavior detected")
}

func TestScoreUserAtAlertThresholdDoesNotExceedIt(t *testing.T) {
	// 20+15+10+25 = 70 exactly: a score at the threshold must not be treated
	// as above it.
	score, _ := ScoreUser(UserFacts{
		AccountAge:      time.Hour,
		EmailVerified:   false,
		HasAvatar:       false,
		BookingsLast24h: 5,
	})

	assert.Equal(t, 70.0, score)
	assert.False(t, score > AlertScoreThreshold)
}

func TestScorePropertyAllIndicators(t *testing.T) {
	score, indicators := ScoreProperty(PropertyFacts{
		PhotoCount:          0,
		PricePerNight:       40,
		SegmentAveragePrice: 100,
		HasDuplicateListing: true,
		OwnerEmailVerified:  false,
		Description:         "Contact me on WhatsApp for a discount",
	})

	// 25+30+35+15+20 = 125, capped
	assert.Equal(t, 100.0, score)
	assert.Len(t, indicators, 5)
}

func TestScorePropertyPriceBoundary(t *testing.T) {
	// Exactly half the segment average does not trigger.
	score, _ := ScoreProperty(PropertyFacts{
		PhotoCount:          3,
		PricePerNight:       50,
		SegmentAveragePrice: 100,
		OwnerEmailVerified:  true,
	})
	assert.Equal(t, 0.0, score)

	score, indicators := ScoreProperty(PropertyFacts{
		PhotoCount:          3,
		PricePerNight:       49.99,
		SegmentAveragePrice: 100,
		OwnerEmailVerified:  true,
	})
	assert.Equal(t, 30.0, score)
	assert.Contains(t, indicators[0], "Price far below market")
}

func TestScorePropertyEmptySegmentSkipsPriceCheck(t *testing.T) {
	score, _ := ScoreProperty(PropertyFacts{
		PhotoCount:          3,
		PricePerNight:       10,
		SegmentAveragePrice: 0,
		OwnerEmailVerified:  true,
	})
	assert.Equal(t, 0.0, score)
}

func TestHasSuspiciousContent(t *testing.T) {
	tests := []struct {
		name        string
		description string
		suspicious  bool
	}{
		{"empty", "", false},
		{"plain text", "Cozy apartment near the beach with free parking", false},
		{"embedded phone number", "Call 15551234567 to book directly", true},
		{"nine digits is fine", "Reference 123456789 in your request", false},
		{"http url", "See more at http://example.com/listing", true},
		{"https url", "Photos at HTTPS://example.com", true},
		{"whatsapp mention", "Message me on WhatsApp", true},
		{"telegram mention", "find us on TELEGRAM", true},
		{"email address after keyword", "email: host@example.com for details", true},
		{"bare email without keyword", "host@example.com handles bookings", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.suspicious, hasSuspiciousContent(tt.description))
		})
	}
}

func TestScoreBookingAllIndicators(t *testing.T) {
	score, indicators := ScoreBooking(BookingFacts{
		HoursUntilCheckIn: 5,
		TotalPrice:        2000,
		StayDays:          200,
		GuestAccountAge:   24 * time.Hour,
		OtherBookings6h:   4,
		Guests:            8,
		Capacity:          4,
	})

	// 20+15+30+25+20 = 110, capped
	assert.Equal(t, 100.0, score)
	assert.Len(t, indicators, 5)
}

func TestScoreBookingBoundaries(t *testing.T) {
	// Price of exactly 500 does not make a last-minute booking high-value.
	score, _ := ScoreBooking(BookingFacts{
		HoursUntilCheckIn: 5,
		TotalPrice:        500,
		GuestAccountAge:   90 * 24 * time.Hour,
	})
	assert.Equal(t, 0.0, score)

	// A stay of exactly 180 days is not unusually long.
	score, _ = ScoreBooking(BookingFacts{
		HoursUntilCheckIn: 100,
		StayDays:          180,
		GuestAccountAge:   90 * 24 * time.Hour,
	})
	assert.Equal(t, 0.0, score)

	// Exactly 3 other bookings in 6h does not trigger the burst check.
	score, _ = ScoreBooking(BookingFacts{
		HoursUntilCheckIn: 100,
		GuestAccountAge:   90 * 24 * time.Hour,
		OtherBookings6h:   3,
	})
	assert.Equal(t, 0.0, score)

	// Guests equal to capacity is allowed.
	score, _ = ScoreBooking(BookingFacts{
		HoursUntilCheckIn: 100,
		GuestAccountAge:   90 * 24 * time.Hour,
		Guests:            4,
		Capacity:          4,
	})
	assert.Equal(t, 0.0, score)
}

func TestScorePaymentAllIndicators(t *testing.T) {
	score, indicators := ScorePayment(PaymentFacts{
		Amount:           2500,
		PayerAccountAge:  24 * time.Hour,
		FailedPayments7d: 5,
		OtherPayments1h:  3,
	})

	// 40+30+20 = 90
	assert.Equal(t, 90.0, score)
	assert.Contains(t, indicators, "Large payment from new account")
	assert.Contains(t, indicators, "Repeated failed payments (5 in 7d)")
	assert.Contains(t, indicators, "Rapid payment activity (3 others in 1h)")
}

func TestScorePaymentBoundaries(t *testing.T) {
	// Amount of exactly 1000 does not trigger, nor does an established payer.
	score, _ := ScorePayment(PaymentFacts{
		Amount:          1000,
		PayerAccountAge: 24 * time.Hour,
	})
	assert.Equal(t, 0.0, score)

	score, _ = ScorePayment(PaymentFacts{
		Amount:          5000,
		PayerAccountAge: 30 * 24 * time.Hour,
	})
	assert.Equal(t, 0.0, score)

	// Exactly 3 failed payments does not trigger; 4 does.
	score, _ = ScorePayment(PaymentFacts{
		PayerAccountAge:  30 * 24 * time.Hour,
		FailedPayments7d: 3,
	})
	assert.Equal(t, 0.0, score)

	score, _ = ScorePayment(PaymentFacts{
		PayerAccountAge:  30 * 24 * time.Hour,
		FailedPayments7d: 4,
	})
	assert.Equal(t, 30.0, score)

	// Exactly 2 other payments in 1h does not trigger.
	score, _ = ScorePayment(PaymentFacts{
		PayerAccountAge: 30 * 24 * time.Hour,
		OtherPayments1h: 2,
	})
	assert.Equal(t, 0.0, score)
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		level RiskLevel
	}{
		{0, RiskLevelLow},
		{49.99, RiskLevelLow},
		{50, RiskLevelMedium},
		{69.99, RiskLevelMedium},
		{70, RiskLevelHigh},
		{84.99, RiskLevelHigh},
		{85, RiskLevelCritical},
		{100, RiskLevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, RiskLevelFor(tt.score), "score %.2f", tt.score)
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityMedium, SeverityFor(AlertTypeSuspiciousUser, 75))
	assert.Equal(t, SeverityMedium, SeverityFor(AlertTypeSuspiciousListing, 85))
	assert.Equal(t, SeverityHigh, SeverityFor(AlertTypeSuspiciousBooking, 90))
	assert.Equal(t, SeverityHigh, SeverityFor(AlertTypePaymentFraud, 85))
	assert.Equal(t, SeverityCritical, SeverityFor(AlertTypePaymentFraud, 90))
}

func TestAlertTypeFor(t *testing.T) {
	assert.Equal(t, AlertTypeSuspiciousUser, AlertTypeFor(SubjectUser))
	assert.Equal(t, AlertTypeSuspiciousListing, AlertTypeFor(SubjectProperty))
	assert.Equal(t, AlertTypeSuspiciousBooking, AlertTypeFor(SubjectBooking))
	assert.Equal(t, AlertTypePaymentFraud, AlertTypeFor(SubjectPayment))
}
