package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// AdminHandler exposes payment reconciliation operations
type AdminHandler struct {
	cronService      *services.CronService
	paymentEventRepo *database.PaymentEventRepository
	logger           *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(cronService *services.CronService, paymentEventRepo *database.PaymentEventRepository, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		cronService:      cronService,
		paymentEventRepo: paymentEventRepo,
		logger:           logger,
	}
}

// RunReconciliation replays failed booking writes now
// POST /api/v1/admin/reconciliation/run
func (h *AdminHandler) RunReconciliation(c *gin.Context) {
	report, err := h.cronService.RunReconciliationNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrReconciliationInProgress) {
			abortWithError(c, http.StatusConflict, "reconciliation_in_progress", "A reconciliation run is already in progress", "")
			return
		}
		h.logger.WithError(err).Error("Manual reconciliation failed")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Reconciliation failed", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "reconciliation completed",
		"report":  report,
	})
}

// GetReconciliationStatus returns the scheduler state and the last run
// GET /api/v1/admin/reconciliation/status
func (h *AdminHandler) GetReconciliationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}

// GetAmountMismatches lists events whose charged total differed from the booking total
// GET /api/v1/admin/payments/mismatches
func (h *AdminHandler) GetAmountMismatches(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 50)
	if !ok || limit < 1 || limit > maxPageSize {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 100", "limit")
		return
	}

	events, err := h.paymentEventRepo.GetAmountMismatches(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load amount mismatches")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to load amount mismatches", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
