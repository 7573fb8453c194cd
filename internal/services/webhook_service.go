package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
)

// EventCheckoutSessionCompleted is the only Stripe event that creates bookings
const EventCheckoutSessionCompleted = "checkout.session.completed"

// BookingConfirmedRoutingKey is the broker routing key for new bookings
const BookingConfirmedRoutingKey = "booking.confirmed"

// BookingLedger is where confirmed bookings are written
type BookingLedger interface {
	Create(ctx context.Context, booking *models.Booking) error
}

// PaymentEventStore records verified webhook events and what became of them
type PaymentEventStore interface {
	Record(ctx context.Context, event *models.PaymentEvent) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, status models.PaymentEventStatus, bookingID *uuid.UUID) error
	MarkFailed(ctx context.Context, eventID string, reason string) error
	MarkMalformed(ctx context.Context, eventID string, reason string) error
}

// EventPublisher sends JSON messages to the message broker
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload interface{}) error
}

// WebhookResult is the acknowledgement returned to Stripe
type WebhookResult struct {
	Received  bool                      `json:"received"`
	Warning   string                    `json:"warning,omitempty"`
	Status    models.PaymentEventStatus `json:"-"`
	BookingID *uuid.UUID                `json:"-"`
}

// WebhookService consumes Stripe webhook deliveries and writes the booking ledger
type WebhookService struct {
	verifier  WebhookVerifier
	ledger    BookingLedger
	events    PaymentEventStore
	publisher EventPublisher
	currency  string
	logger    *logrus.Logger
}

// NewWebhookService creates a webhook service. publisher may be nil.
func NewWebhookService(
	verifier WebhookVerifier,
	ledger BookingLedger,
	events PaymentEventStore,
	publisher EventPublisher,
	currency string,
	logger *logrus.Logger,
) *WebhookService {
	if currency == "" {
		currency = "usd"
	}
	return &WebhookService{
		verifier:  verifier,
		ledger:    ledger,
		events:    events,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// HandleDelivery verifies a raw delivery, records it and processes it.
//
// Errors:
//   - ErrSignatureVerificationFailed: nothing was recorded or written
//   - *MalformedWebhookEventError: verified, recorded as malformed, no booking
//   - *BookingPersistenceError: returned together with a non-nil result that
//     must still be acknowledged; the event is queued for reconciliation
func (s *WebhookService) HandleDelivery(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	event, err := s.verifier.ConstructEvent(payload, signatureHeader)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"security_event": "webhook_signature_rejected",
			"has_signature":  signatureHeader != "",
			"payload_bytes":  len(payload),
		}).Warn("Rejected webhook delivery with invalid signature")
		if errors.Is(err, ErrSignatureVerificationFailed) {
			return nil, err
		}
		return nil, errors.Join(ErrSignatureVerificationFailed, err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})
	logger.Info("Verified Stripe webhook event")

	record := models.NewPaymentEvent(event.ID, string(event.Type), payload)
	if string(event.Type) == EventCheckoutSessionCompleted {
		if session, err := decodeCheckoutSession(&event); err == nil {
			s.annotateAmounts(record, session)
		}
	}

	isNew, err := s.events.Record(ctx, record)
	if err != nil {
		// The ledger's unique index still guards the booking, so keep going
		logger.WithError(err).Error("Failed to record payment event")
		isNew = true
	} else if !isNew {
		logger.Info("Redelivery of an already recorded event")
	}

	return s.process(ctx, &event, !isNew)
}

// ProcessEvent applies an already verified event. Reconciliation uses it to
// replay events whose booking write failed.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *stripe.Event) (*WebhookResult, error) {
	return s.process(ctx, event, false)
}

// process applies the event. A redelivered event that finds its booking
// already written keeps its recorded status.
func (s *WebhookService) process(ctx context.Context, event *stripe.Event, redelivery bool) (*WebhookResult, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	if string(event.Type) != EventCheckoutSessionCompleted {
		s.mark(ctx, logger, event.ID, models.PaymentEventIgnored, nil)
		logger.Debug("Ignoring unhandled event type")
		return &WebhookResult{Received: true, Status: models.PaymentEventIgnored}, nil
	}

	session, err := decodeCheckoutSession(event)
	if err != nil {
		return nil, s.malformed(ctx, logger, &MalformedWebhookEventError{
			EventID: event.ID,
			Field:   "data.object",
			Reason:  "is not a checkout session",
		})
	}

	booking, err := s.bookingFromSession(event.ID, session)
	if err != nil {
		return nil, s.malformed(ctx, logger, err)
	}

	logger = logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"vehicle_id": booking.VehicleID,
		"renter_id":  booking.RenterID,
		"amount":     booking.TotalAmount,
	})

	err = s.ledger.Create(ctx, booking)
	switch {
	case errors.Is(err, database.ErrDuplicateBooking):
		logger.Info("Booking already exists for checkout session")
		if !redelivery {
			s.mark(ctx, logger, event.ID, models.PaymentEventDuplicate, nil)
		}
		return &WebhookResult{Received: true, Status: models.PaymentEventDuplicate}, nil

	case err != nil:
		persistErr := &BookingPersistenceError{EventID: event.ID, SessionID: session.ID, Err: err}
		logger.WithError(err).Error("Failed to persist booking after successful payment")
		if markErr := s.events.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			logger.WithError(markErr).WithField("manual_followup", true).
				Error("Failed to queue payment event for reconciliation, booking needs manual follow-up")
		}
		return &WebhookResult{
			Received: true,
			Warning:  "payment received but booking could not be saved yet; it will be retried",
			Status:   models.PaymentEventFailed,
		}, persistErr
	}

	logger.WithField("booking_id", booking.ID).Info("Booking confirmed")
	s.mark(ctx, logger, event.ID, models.PaymentEventProcessed, &booking.ID)
	s.publishConfirmed(ctx, logger, booking)

	return &WebhookResult{Received: true, Status: models.PaymentEventProcessed, BookingID: &booking.ID}, nil
}

// bookingFromSession builds the booking from session metadata only
func (s *WebhookService) bookingFromSession(eventID string, session *stripe.CheckoutSession) (*models.Booking, error) {
	if strings.TrimSpace(session.ID) == "" {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "data.object.id", Reason: "is missing"}
	}

	metadata := session.Metadata
	if key, missing := models.MissingMetadataKey(metadata); missing {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "metadata." + key, Reason: "is missing"}
	}

	start, err := ParseRentalDate(strings.TrimSpace(metadata[models.MetadataStartDate]))
	if err != nil {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "metadata." + models.MetadataStartDate, Reason: "is not a valid date"}
	}
	end, err := ParseRentalDate(strings.TrimSpace(metadata[models.MetadataEndDate]))
	if err != nil {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "metadata." + models.MetadataEndDate, Reason: "is not a valid date"}
	}
	if !end.After(start) {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "metadata." + models.MetadataEndDate, Reason: "must be after startDate"}
	}
	total, err := strconv.ParseFloat(strings.TrimSpace(metadata[models.MetadataTotalAmount]), 64)
	if err != nil || math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return nil, &MalformedWebhookEventError{EventID: eventID, Field: "metadata." + models.MetadataTotalAmount, Reason: "is not a valid amount"}
	}

	currency := strings.ToLower(string(session.Currency))
	if currency == "" {
		currency = s.currency
	}

	return &models.Booking{
		ID:                uuid.New(),
		RenterID:          strings.TrimSpace(metadata[models.MetadataRenterID]),
		VehicleID:         strings.TrimSpace(metadata[models.MetadataVehicleID]),
		CheckoutSessionID: session.ID,
		StartDate:         start,
		EndDate:           end,
		TotalAmount:       total,
		Currency:          currency,
		Status:            models.BookingStatusConfirmed,
	}, nil
}

// annotateAmounts links the session and compares the charged total with the metadata total
func (s *WebhookService) annotateAmounts(record *models.PaymentEvent, session *stripe.CheckoutSession) {
	record.SetCheckoutSession(session.ID)

	total, err := strconv.ParseInt(strings.TrimSpace(session.Metadata[models.MetadataTotalAmount]), 10, 64)
	if err != nil || session.AmountTotal == 0 {
		return
	}

	expected := ToMinorUnits(total)
	if !record.SetAmounts(expected, session.AmountTotal) {
		s.logger.WithFields(logrus.Fields{
			"event_id":        record.EventID,
			"session_id":      session.ID,
			"expected_amount": expected,
			"received_amount": session.AmountTotal,
		}).Warn("Checkout amount differs from booking metadata")
	}
}

func (s *WebhookService) malformed(ctx context.Context, logger *logrus.Entry, err error) error {
	logger.WithError(err).Error("Malformed checkout.session.completed event")
	if markErr := s.events.MarkMalformed(ctx, eventIDOf(err), err.Error()); markErr != nil {
		logger.WithError(markErr).Warn("Failed to mark payment event as malformed")
	}
	return err
}

func (s *WebhookService) mark(ctx context.Context, logger *logrus.Entry, eventID string, status models.PaymentEventStatus, bookingID *uuid.UUID) {
	if err := s.events.MarkProcessed(ctx, eventID, status, bookingID); err != nil {
		logger.WithError(err).WithField("status", status).Warn("Failed to update payment event status")
	}
}

func (s *WebhookService) publishConfirmed(ctx context.Context, logger *logrus.Entry, booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, BookingConfirmedRoutingKey, models.NewBookingConfirmedEvent(booking)); err != nil {
		logger.WithError(err).Warn("Failed to publish booking.confirmed")
	}
}

func decodeCheckoutSession(event *stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errors.New("event has no data object")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func eventIDOf(err error) string {
	var malformed *MalformedWebhookEventError
	if errors.As(err, &malformed) {
		return malformed.EventID
	}
	return ""
}
