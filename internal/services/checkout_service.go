package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// VehicleCatalog is the read-only vehicle inventory
type VehicleCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// CheckoutService turns a rental request into a hosted Stripe Checkout session.
// It never persists anything: the booking is written by the webhook consumer.
type CheckoutService struct {
	provider   CheckoutProvider
	catalog    VehicleCatalog
	validate   *validator.Validate
	currency   string
	successURL string
	cancelURL  string
	logger     *logrus.Logger
}

// NewCheckoutService creates a checkout service. catalog may be nil, in which
// case the client's vehicle name and price are trusted.
func NewCheckoutService(
	provider CheckoutProvider,
	catalog VehicleCatalog,
	stripeCfg *config.StripeConfig,
	appCfg *config.AppConfig,
	logger *logrus.Logger,
) *CheckoutService {
	currency := stripeCfg.Currency
	if currency == "" {
		currency = "usd"
	}

	return &CheckoutService{
		provider:   provider,
		catalog:    catalog,
		validate:   newRentalValidator(),
		currency:   currency,
		successURL: appCfg.SuccessURL(),
		cancelURL:  appCfg.CancelURL(),
		logger:     logger,
	}
}

// newRentalValidator reports field names from the `field` tag so errors use the request's JSON paths
func newRentalValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// pricedRental is a validated rental with its computed charge
type pricedRental struct {
	request     models.RentalRequest
	start       time.Time
	end         time.Time
	days        int
	totalAmount int64
}

// CreateSession validates and prices the request, then creates the Stripe session.
// Every call creates a new session.
func (s *CheckoutService) CreateSession(ctx context.Context, req models.RentalRequest) (*models.CreateCheckoutSessionResponse, error) {
	rental, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	metadata := models.CheckoutMetadata{
		RenterID:    rental.request.RenterID,
		VehicleID:   rental.request.VehicleID,
		StartDate:   rental.request.StartDate,
		EndDate:     rental.request.EndDate,
		TotalAmount: rental.totalAmount,
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &CheckoutSessionParams{
		ProductName: "Rent " + rental.request.VehicleName,
		Description: rentalDescription(rental),
		UnitAmount:  ToMinorUnits(rental.totalAmount),
		Quantity:    1,
		Currency:    s.currency,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
		Metadata:    metadata.ToMap(),
	})
	if err != nil {
		return nil, &PaymentProviderError{Op: "create checkout session", Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":  session.ID,
		"vehicle_id":  rental.request.VehicleID,
		"renter_id":   rental.request.RenterID,
		"rental_days": rental.days,
		"amount":      rental.totalAmount,
	}).Info("Checkout session created")

	return &models.CreateCheckoutSessionResponse{ID: session.ID, URL: session.URL}, nil
}

// Quote prices a request exactly as CreateSession would, without contacting Stripe
func (s *CheckoutService) Quote(ctx context.Context, req models.RentalRequest) (*models.QuoteResponse, error) {
	rental, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	return &models.QuoteResponse{
		VehicleID:   rental.request.VehicleID,
		RentalDays:  rental.days,
		PricePerDay: rental.request.PricePerDay,
		TotalAmount: rental.totalAmount,
		Currency:    s.currency,
	}, nil
}

func (s *CheckoutService) price(ctx context.Context, req models.RentalRequest) (*pricedRental, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, invalidRequest(verrs[0].Field(), validationReason(verrs[0]))
		}
		return nil, fmt.Errorf("failed to validate rental request: %w", err)
	}
	if math.IsNaN(req.PricePerDay) || math.IsInf(req.PricePerDay, 0) {
		return nil, invalidRequest("vehicle.price", "must be a number")
	}

	start, err := ParseRentalDate(req.StartDate)
	if err != nil {
		return nil, invalidRequest("startDate", "must be a valid date")
	}
	end, err := ParseRentalDate(req.EndDate)
	if err != nil {
		return nil, invalidRequest("endDate", "must be a valid date")
	}
	if rentalDurationDays(start, end) <= 0 {
		return nil, invalidRequest("endDate", "must be after startDate")
	}

	if s.catalog != nil {
		if err := s.applyCatalog(ctx, &req); err != nil {
			return nil, err
		}
	}

	days := RentalDays(start, end)
	if !TotalWithinLimit(days, req.PricePerDay) {
		return nil, invalidRequest("vehicle.price", fmt.Sprintf("results in a total above %d", MaxRentalTotal))
	}
	return &pricedRental{
		request:     req,
		start:       start,
		end:         end,
		days:        days,
		totalAmount: RentalTotal(days, req.PricePerDay),
	}, nil
}

// applyCatalog makes the inventory's name and price authoritative
func (s *CheckoutService) applyCatalog(ctx context.Context, req *models.RentalRequest) error {
	vehicle, err := s.catalog.GetByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, database.ErrVehicleNotFound) {
			return invalidRequest("vehicle._id", "does not exist")
		}
		return fmt.Errorf("failed to look up vehicle %s: %w", req.VehicleID, err)
	}
	if !vehicle.Available {
		return invalidRequest("vehicle._id", "is not available")
	}
	if vehicle.PayPerDay <= 0 {
		return invalidRequest("vehicle.price", "has no catalog price")
	}

	if vehicle.PayPerDay != req.PricePerDay {
		s.logger.WithFields(logrus.Fields{
			"vehicle_id":    req.VehicleID,
			"client_price":  req.PricePerDay,
			"catalog_price": vehicle.PayPerDay,
		}).Warn("Client price differs from catalog, using catalog price")
	}

	req.PricePerDay = vehicle.PayPerDay
	if vehicle.CarName != "" {
		req.VehicleName = vehicle.CarName
	}
	return nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func rentalDescription(r *pricedRental) string {
	unit := "days"
	if r.days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("From %s to %s (%d %s)",
		strings.TrimSpace(r.request.StartDate), strings.TrimSpace(r.request.EndDate), r.days, unit)
}
