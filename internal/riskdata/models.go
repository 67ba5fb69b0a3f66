package riskdata

import "time"

// UserStatus represents a user account status
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// PropertyStatus represents a listing status
type PropertyStatus string

const (
	PropertyStatusActive  PropertyStatus = "active"
	PropertyStatusRemoved PropertyStatus = "removed"
)

// BookingStatus represents a booking status
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PaymentStatus represents a payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusBlocked   PaymentStatus = "blocked"
)

// User is the read-only guest/host account view used for risk evaluation
type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	AvatarURL     string     `json:"avatar_url"`
	Status        UserStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Property is the read-only listing view used for risk evaluation
type Property struct {
	ID            int64          `json:"id"`
	OwnerID       int64          `json:"owner_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	PropertyType  string         `json:"property_type"`
	PricePerNight float64        `json:"price_per_night"`
	PhotoCount    int            `json:"photo_count"`
	Capacity      int            `json:"capacity"`
	Status        PropertyStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Booking is the read-only booking view used for risk evaluation
type Booking struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	PropertyID int64         `json:"property_id"`
	CheckIn    time.Time     `json:"check_in"`
	CheckOut   time.Time     `json:"check_out"`
	Guests     int           `json:"guests"`
	TotalPrice float64       `json:"total_price"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Payment is the read-only payment view used for risk evaluation
type Payment struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	BookingID int64         `json:"booking_id"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
