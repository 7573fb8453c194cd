package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// MaxWebhookBodyBytes caps Stripe webhook bodies
const MaxWebhookBodyBytes = 64 * 1024

// WebhookHandler receives Stripe webhook deliveries
type WebhookHandler struct {
	webhookService *services.WebhookService
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *services.WebhookService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// ============================================================================
// STRIPE WEBHOOK - POST /api/v1/stripe/webhook
// ============================================================================

// HandleStripeWebhook verifies and applies a Stripe event.
// The raw body must reach the verifier untouched, so it is never bound as JSON.
// @Summary Stripe webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} services.WebhookResult
// @Failure 400 {object} map[string]interface{} "Bad signature or malformed event"
// @Router /stripe/webhook [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WithField("limit", MaxWebhookBodyBytes).Warn("Webhook body too large")
			abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Webhook body exceeds the size limit", "")
			return
		}
		h.logger.WithError(err).Error("Failed to read webhook body")
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Unable to read request body", "")
		return
	}

	result, err := h.webhookService.HandleDelivery(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var persistErr *services.BookingPersistenceError
		if errors.As(err, &persistErr) && result != nil {
			// Acknowledged so Stripe stops retrying; reconciliation owns the retry
			c.JSON(http.StatusOK, result)
			return
		}
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
