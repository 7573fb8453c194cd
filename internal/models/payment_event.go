package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventStatus tracks what the webhook consumer did with a provider event
type PaymentEventStatus string

const (
	PaymentEventReceived  PaymentEventStatus = "received"
	PaymentEventProcessed PaymentEventStatus = "processed"
	PaymentEventDuplicate PaymentEventStatus = "duplicate"
	PaymentEventIgnored   PaymentEventStatus = "ignored"
	PaymentEventMalformed PaymentEventStatus = "malformed"
	// PaymentEventFailed means the event was valid but the booking write failed
	PaymentEventFailed PaymentEventStatus = "failed"
)

// PaymentEvent is the log entry for a verified Stripe webhook event.
// The raw body is kept so a failed booking write can be replayed.
type PaymentEvent struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	EventID           string             `json:"event_id" db:"event_id"`
	EventType         string             `json:"event_type" db:"event_type"`
	CheckoutSessionID *string            `json:"checkout_session_id,omitempty" db:"checkout_session_id"`
	Status            PaymentEventStatus `json:"status" db:"status"`

	// Amount tracking in minor units
	ExpectedAmount *int64 `json:"expected_amount,omitempty" db:"expected_amount"`
	ReceivedAmount *int64 `json:"received_amount,omitempty" db:"received_amount"`
	AmountsMatch   *bool  `json:"amounts_match,omitempty" db:"amounts_match"`

	RawBody      string     `json:"-" db:"raw_body"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	Attempts     int        `json:"attempts" db:"attempts"`
	BookingID    *uuid.UUID `json:"booking_id,omitempty" db:"booking_id"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// NewPaymentEvent creates a log entry for a freshly verified event
func NewPaymentEvent(eventID, eventType string, rawBody []byte) *PaymentEvent {
	return &PaymentEvent{
		ID:        uuid.New(),
		EventID:   eventID,
		EventType: eventType,
		Status:    PaymentEventReceived,
		RawBody:   string(rawBody),
		CreatedAt: time.Now(),
	}
}

// SetCheckoutSession sets the Stripe checkout session id
func (pe *PaymentEvent) SetCheckoutSession(sessionID string) *PaymentEvent {
	if sessionID != "" {
		pe.CheckoutSessionID = &sessionID
	}
	return pe
}

// SetAmounts records expected and received minor-unit amounts and returns whether they match
func (pe *PaymentEvent) SetAmounts(expected, received int64) bool {
	pe.ExpectedAmount = &expected
	pe.ReceivedAmount = &received
	match := expected == received
	pe.AmountsMatch = &match
	return match
}
