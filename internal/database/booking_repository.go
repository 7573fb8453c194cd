package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingRepository is the booking ledger.
// checkout_session_id carries a UNIQUE index so webhook retries converge to one row.
type BookingRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sqlx.DB, logger *logrus.Logger) *BookingRepository {
	return &BookingRepository{
		db:     db,
		logger: logger,
	}
}

const bookingColumns = `id, renter_id, vehicle_id, checkout_session_id, start_date, end_date,
	total_amount, currency, status, created_at`

// Create inserts a booking. Returns ErrDuplicateBooking when the checkout
// session already has one.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking cannot be nil")
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO bookings (
			id, renter_id, vehicle_id, checkout_session_id, start_date, end_date,
			total_amount, currency, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		booking.ID, booking.RenterID, booking.VehicleID, booking.CheckoutSessionID,
		booking.StartDate, booking.EndDate,
		booking.TotalAmount, booking.Currency, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"session_id": booking.CheckoutSessionID,
	}).Debug("Booking row inserted")

	return nil
}

// GetByCheckoutSessionID returns the booking written for a checkout session
func (r *BookingRepository) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE checkout_session_id = $1`

	err := r.db.GetContext(ctx, &booking, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

// ListByRenter returns a renter's bookings, newest first
func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string, limit, offset int) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE renter_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &bookings, query, renterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}
