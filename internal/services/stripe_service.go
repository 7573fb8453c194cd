package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// CheckoutSessionParams describes the hosted checkout page to create
type CheckoutSessionParams struct {
	ProductName string
	Description string
	UnitAmount  int64 // minor units (cents)
	Quantity    int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the part of the provider's session this service keeps
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutProvider creates hosted checkout sessions
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error)
}

// WebhookVerifier authenticates a raw webhook body against its signature header
type WebhookVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// StripeService talks to Stripe through an explicitly constructed API client
type StripeService struct {
	client        *client.API
	webhookSecret string
	logger        *logrus.Logger
}

// NewStripeService creates a Stripe service using the default API backends
func NewStripeService(cfg *config.StripeConfig, logger *logrus.Logger) *StripeService {
	return NewStripeServiceWithBackends(cfg, nil, logger)
}

// NewStripeServiceWithBackends creates a Stripe service with custom backends (nil uses Stripe's)
func NewStripeServiceWithBackends(cfg *config.StripeConfig, backends *stripe.Backends, logger *logrus.Logger) *StripeService {
	return &StripeService{
		client:        client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// CreateCheckoutSession creates a one-line-item card payment session
func (s *StripeService) CreateCheckoutSession(ctx context.Context, p *CheckoutSessionParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.ProductName),
						Description: stripe.String(p.Description),
					},
					UnitAmount: stripe.Int64(p.UnitAmount),
				},
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	for key, value := range p.Metadata {
		params.AddMetadata(key, value)
	}

	s.logger.WithFields(logrus.Fields{
		"product":     p.ProductName,
		"unit_amount": p.UnitAmount,
		"currency":    p.Currency,
	}).Info("Creating Stripe checkout session")

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		fields := logrus.Fields{"product": p.ProductName}
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			fields["stripe_type"] = stripeErr.Type
			fields["stripe_code"] = stripeErr.Code
			fields["stripe_request_id"] = stripeErr.RequestID
			fields["http_status"] = stripeErr.HTTPStatusCode
		}
		s.logger.WithError(err).WithFields(fields).Error("Stripe checkout session creation failed")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.WithField("session_id", session.ID).Info("Stripe checkout session created")

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header over the exact payload bytes
func (s *StripeService) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if signatureHeader == "" {
		return stripe.Event{}, fmt.Errorf("%w: missing Stripe-Signature header", ErrSignatureVerificationFailed)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
	}

	return event, nil
}
