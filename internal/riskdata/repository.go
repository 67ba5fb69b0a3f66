package riskdata

import (
	"context"
	"time"
)

// Repository provides read-only views over marketplace business data for the
// fraud engine, plus the three remediation status writes. It never mutates
// anything else.
type Repository struct {
	db Database
}

// NewRepository creates a new risk data repository
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, email, email_verified, COALESCE(avatar_url, ''), status, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.EmailVerified,
		&user.AvatarURL,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetProperty retrieves a property by ID
func (r *Repository) GetProperty(ctx context.Context, propertyID int64) (*Property, error) {
	query := `
		SELECT p.id, p.owner_id, p.title, COALESCE(p.description, ''), p.address, p.city,
		       p.property_type, p.price_per_night,
		       (SELECT COUNT(*) FROM property_photos ph WHERE ph.property_id = p.id),
		       p.capacity, p.status, p.created_at
		FROM properties p
		WHERE p.id = $1
	`

	var property Property
	err := r.db.QueryRow(ctx, query, propertyID).Scan(
		&property.ID,
		&property.OwnerID,
		&property.Title,
		&property.Description,
		&property.Address,
		&property.City,
		&property.PropertyType,
		&property.PricePerNight,
		&property.PhotoCount,
		&property.Capacity,
		&property.Status,
		&property.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &property, nil
}

// GetBooking retrieves a booking by ID
func (r *Repository) GetBooking(ctx context.Context, bookingID int64) (*Booking, error) {
	query := `
		SELECT id, user_id, property_id, check_in, check_out, guests, total_price, status, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking Booking
	err := r.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.PropertyID,
		&booking.CheckIn,
		&booking.CheckOut,
		&booking.Guests,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// GetPayment retrieves a payment by ID
func (r *Repository) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	query := `
		SELECT id, user_id, booking_id, amount, status, created_at
		FROM payments
		WHERE id = $1
	`

	var payment Payment
	err := r.db.QueryRow(ctx, query, paymentID).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// CountBookingsByUserSince counts bookings created by a user after the given
// time, excluding one booking id (pass 0 to exclude nothing).
func (r *Repository) CountBookingsByUserSince(ctx context.Context, userID int64, since time.Time, excludeBookingID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE user_id = $1
		  AND created_at >= $2
		  AND id <> $3
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID, since, excludeBookingID).Scan(&count)
	return count, err
}

// BookingTotalsByUser returns the user's total and cancelled booking counts
func (r *Repository) BookingTotalsByUser(ctx context.Context, userID int64) (total, cancelled int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'cancelled' THEN 1 END)
		FROM bookings
		WHERE user_id = $1
	`

	err = r.db.QueryRow(ctx, query, userID).Scan(&total, &cancelled)
	return total, cancelled, err
}

// BehaviorEventTimes returns a user's behavior event timestamps within the
// window, ordered ascending
func (r *Repository) BehaviorEventTimes(ctx context.Context, userID int64, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT occurred_at
		FROM behavior_events
		WHERE user_id = $1
		  AND occurred_at >= $2
		  AND occurred_at <= $3
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := make([]time.Time, 0)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}

	return times, rows.Err()
}

// AveragePriceForSegment returns the average nightly price of active listings
// in the same city and property type. Returns 0 when the segment is empty.
func (r *Repository) AveragePriceForSegment(ctx context.Context, city, propertyType string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(price_per_night), 0)
		FROM properties
		WHERE city = $1
		  AND property_type = $2
		  AND status = 'active'
	`

	var avg float64
	err := r.db.QueryRow(ctx, query, city, propertyType).Scan(&avg)
	return avg, err
}

// HasDuplicateListing reports whether another active property shares this
// one's address or its title's first 20 characters.
func (r *Repository) HasDuplicateListing(ctx context.Context, property *Property) (bool, error) {
	prefix := property.Title
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM properties
			WHERE id <> $1
			  AND status = 'active'
			  AND (address = $2 OR LEFT(title, 20) = $3)
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, property.ID, property.Address, prefix).Scan(&exists)
	return exists, err
}

// CountFailedPaymentsSince counts a user's failed payments after the given time
func (r *Repository) CountFailedPaymentsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE user_id = $1
		  AND status = 'failed'
		  AND created_at >= $2
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// CountPaymentsByUserSince counts payments made by a user after the given
// time, excluding one payment id (pass 0 to exclude nothing).
func (r *Repository) CountPaymentsByUserSince(ctx context.Context, userID int64, since time.Time, excludePaymentID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE user_id = $1
		  AND created_at >= $2
		  AND id <> $3
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID, since, excludePaymentID).Scan(&count)
	return count, err
}

// ListRecentUserIDs returns ids of users created after the given time
func (r *Repository) ListRecentUserIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM users WHERE created_at >= $1 ORDER BY id`, since)
}

// ListRecentPropertyIDs returns ids of properties created after the given time
func (r *Repository) ListRecentPropertyIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM properties WHERE created_at >= $1 ORDER BY id`, since)
}

// ListRecentBookingIDs returns ids of bookings created after the given time
func (r *Repository) ListRecentBookingIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM bookings WHERE created_at >= $1 ORDER BY id`, since)
}

// ListRecentPaymentIDs returns ids of payments created after the given time
func (r *Repository) ListRecentPaymentIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM payments WHERE created_at >= $1 ORDER BY id`, since)
}

func (r *Repository) listIDs(ctx context.Context, query string, since time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SuspendUser sets a user's account status to suspended
func (r *Repository) SuspendUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET status = 'suspended', updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// RemoveProperty sets a property's status to removed
func (r *Repository) RemoveProperty(ctx context.Context, propertyID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE properties SET status = 'removed', updated_at = NOW() WHERE id = $1`, propertyID)
	return err
}

// BlockPayment sets a payment's status to blocked
func (r *Repository) BlockPayment(ctx context.Context, paymentID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET status = 'blocked', updated_at = NOW() WHERE id = $1`, paymentID)
	return err
}
