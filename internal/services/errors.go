package services

import (
	"errors"
	"fmt"
)

// ErrSignatureVerificationFailed is returned before any parsing of a webhook body
var ErrSignatureVerificationFailed = errors.New("webhook signature verification failed")

// InvalidBookingRequestError is a caller-correctable problem with a checkout request
type InvalidBookingRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidBookingRequestError) Error() string {
	return fmt.Sprintf("invalid booking request: %s %s", e.Field, e.Reason)
}

func invalidRequest(field, reason string) error {
	return &InvalidBookingRequestError{Field: field, Reason: reason}
}

// PaymentProviderError wraps a failed call to Stripe. Its message is safe to
// show to callers; the cause is only for logs.
type PaymentProviderError struct {
	Op  string
	Err error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *PaymentProviderError) Unwrap() error {
	return e.Err
}

// MalformedWebhookEventError is a verified event that cannot become a booking
type MalformedWebhookEventError struct {
	EventID string
	Field   string
	Reason  string
}

func (e *MalformedWebhookEventError) Error() string {
	return fmt.Sprintf("malformed webhook event %s: %s %s", e.EventID, e.Field, e.Reason)
}

// BookingPersistenceError is a valid event whose booking write failed.
// The delivery is still acknowledged; reconciliation retries the write.
type BookingPersistenceError struct {
	EventID   string
	SessionID string
	Err       error
}

func (e *BookingPersistenceError) Error() string {
	return fmt.Sprintf("failed to persist booking for session %s (event %s): %v", e.SessionID, e.EventID, e.Err)
}

func (e *BookingPersistenceError) Unwrap() error {
	return e.Err
}
