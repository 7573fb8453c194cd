package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentEventRepository stores verified Stripe webhook events
type PaymentEventRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentEventRepository {
	return &PaymentEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record stores a verified event. Returns false when the event id was already
// recorded (a provider retry).
func (r *PaymentEventRepository) Record(ctx context.Context, event *models.PaymentEvent) (bool, error) {
	if event == nil {
		return false, fmt.Errorf("payment event cannot be nil")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_events (
			id, event_id, event_type, checkout_session_id, status,
			expected_amount, received_amount, amounts_match,
			raw_body, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		event.ID, event.EventID, event.EventType, event.CheckoutSessionID, event.Status,
		event.ExpectedAmount, event.ReceivedAmount, event.AmountsMatch,
		event.RawBody, event.Attempts, event.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.EventID,
			"event_type": event.EventType,
		}).Error("Failed to record payment event")
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// MarkProcessed sets a terminal status on an event, optionally linking the booking it produced
func (r *PaymentEventRepository) MarkProcessed(ctx context.Context, eventID string, status models.PaymentEventStatus, bookingID *uuid.UUID) error {
	query := `
		UPDATE payment_events
		SET status = $2,
			booking_id = COALESCE($3, booking_id),
			error_message = NULL,
			processed_at = NOW()
		WHERE event_id = $1`

	_, err := r.db.ExecContext(ctx, query, eventID, status, bookingID)
	if err != nil {
		return fmt.Errorf("failed to mark payment event %s: %w", eventID, err)
	}

	return nil
}

// MarkFailed records a failed booking write and bumps the attempt counter.
// Returns ErrPaymentEventNotFound when the event was never recorded.
func (r *PaymentEventRepository) MarkFailed(ctx context.Context, eventID string, reason string) error {
	query := `
		UPDATE payment_events
		SET status = $2,
			error_message = $3,
			attempts = attempts + 1,
			processed_at = NOW()
		WHERE event_id = $1`

	result, err := r.db.ExecContext(ctx, query, eventID, models.PaymentEventFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark payment event %s as failed: %w", eventID, err)
	}

	// Reconciliation only sees rows that exist
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to mark payment event %s as failed: %w", eventID, ErrPaymentEventNotFound)
	}

	return nil
}

// MarkMalformed records why a verified event could not be turned into a booking
func (r *PaymentEventRepository) MarkMalformed(ctx context.Context, eventID string, reason string) error {
	query := `
		UPDATE payment_events
		SET status = $2,
			error_message = $3,
			processed_at = NOW()
		WHERE event_id = $1`

	_, err := r.db.ExecContext(ctx, query, eventID, models.PaymentEventMalformed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark payment event %s as malformed: %w", eventID, err)
	}

	return nil
}

// ListFailed returns failed events still under the attempt limit, oldest first
func (r *PaymentEventRepository) ListFailed(ctx context.Context, maxAttempts, limit int) ([]*models.PaymentEvent, error) {
	events := []*models.PaymentEvent{}
	query := `
		SELECT id, event_id, event_type, checkout_session_id, status,
			expected_amount, received_amount, amounts_match,
			raw_body, error_message, attempts, booking_id, created_at, processed_at
		FROM payment_events
		WHERE status = $1
		AND attempts < $2
		ORDER BY created_at ASC
		LIMIT $3`

	err := r.db.SelectContext(ctx, &events, query, models.PaymentEventFailed, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed payment events: %w", err)
	}

	return events, nil
}

// GetAmountMismatches returns events whose session total differed from the metadata total
func (r *PaymentEventRepository) GetAmountMismatches(ctx context.Context, limit int) ([]*models.PaymentEvent, error) {
	events := []*models.PaymentEvent{}
	query := `
		SELECT id, event_id, event_type, checkout_session_id, status,
			expected_amount, received_amount, amounts_match,
			raw_body, error_message, attempts, booking_id, created_at, processed_at
		FROM payment_events
		WHERE amounts_match = FALSE
		ORDER BY created_at DESC
		LIMIT $1`

	err := r.db.SelectContext(ctx, &events, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get amount mismatches: %w", err)
	}

	return events, nil
}
