package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: message, Field: field})
}

// respondServiceError maps service errors to HTTP responses. Provider and
// internal details are logged, never returned.
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		invalid   *services.InvalidBookingRequestError
		provider  *services.PaymentProviderError
		malformed *services.MalformedWebhookEventError
	)

	switch {
	case errors.As(err, &invalid):
		abortWithError(c, http.StatusBadRequest, "invalid_booking_request", invalid.Field+" "+invalid.Reason, invalid.Field)

	case errors.Is(err, services.ErrSignatureVerificationFailed):
		abortWithError(c, http.StatusBadRequest, "signature_verification_failed", "Webhook signature verification failed", "")

	case errors.As(err, &malformed):
		abortWithError(c, http.StatusBadRequest, "malformed_webhook_event", malformed.Field+" "+malformed.Reason, malformed.Field)

	case errors.As(err, &provider):
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Payment provider call failed")
		abortWithError(c, http.StatusInternalServerError, "payment_provider_error", "Unable to start checkout. Please try again.", "")

	default:
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Something went wrong. Please try again.", "")
	}
}
