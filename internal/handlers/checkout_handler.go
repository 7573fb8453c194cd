package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/middleware"
	"github.com/rentwheels/car-rental-backend/internal/models"
	"github.com/rentwheels/car-rental-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// CheckoutHandler handles checkout session creation and price quotes
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	logger          *logrus.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *services.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// ============================================================================
// CREATE CHECKOUT SESSION - POST /api/v1/stripe/create-checkout-session
// ============================================================================

// CreateCheckoutSession starts a hosted Stripe Checkout for a rental
// @Summary Create checkout session
// @Description Validates the rental, prices it and returns the Stripe session id
// @Tags Payments
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param request body models.CreateCheckoutSessionRequest true "Rental request"
// @Success 200 {object} models.CreateCheckoutSessionResponse
// @Failure 400 {object} map[string]interface{} "Invalid booking request"
// @Failure 500 {object} map[string]interface{} "Payment provider error"
// @Router /stripe/create-checkout-session [post]
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	rental, ok := h.bindRentalRequest(c)
	if !ok {
		return
	}

	response, err := h.checkoutService.CreateSession(c.Request.Context(), rental)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ============================================================================
// QUOTE - POST /api/v1/bookings/quote
// ============================================================================

// Quote returns the price a checkout for the same request would charge
func (h *CheckoutHandler) Quote(c *gin.Context) {
	rental, ok := h.bindRentalRequest(c)
	if !ok {
		return
	}

	quote, err := h.checkoutService.Quote(c.Request.Context(), rental)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// bindRentalRequest parses the body and resolves the renter. An authenticated
// user always wins over the body's userId.
func (h *CheckoutHandler) bindRentalRequest(c *gin.Context) (models.RentalRequest, bool) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			reason := wrongTypeReason(typeErr.Type)
			abortWithError(c, http.StatusBadRequest, "invalid_booking_request", typeErr.Field+" "+reason, typeErr.Field)
			return models.RentalRequest{}, false
		}
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON", "")
		return models.RentalRequest{}, false
	}

	rental := req.ToRentalRequest()
	if userCtx, exists := middleware.GetUserContext(c); exists {
		rental.RenterID = userCtx.UserID
	}

	return rental, true
}

func wrongTypeReason(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "has the wrong type"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "must be a number"
	case reflect.String:
		return "must be a string"
	case reflect.Struct:
		return "must be an object"
	default:
		return "has the wrong type"
	}
}
