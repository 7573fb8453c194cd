package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BookingHandler exposes read-only views of the booking ledger
type BookingHandler struct {
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingRepo *database.BookingRepository, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// GetByCheckoutSession returns the booking for a checkout session.
// The webhook may not have landed yet when the success page asks, which is
// reported as 202 processing rather than 404.
// @Router /bookings/checkout/{session_id} [get]
func (h *BookingHandler) GetByCheckoutSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "session_id is required", "session_id")
		return
	}

	booking, err := h.bookingRepo.GetByCheckoutSessionID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, database.ErrBookingNotFound) {
			c.JSON(http.StatusAccepted, gin.H{
				"status":              "processing",
				"checkout_session_id": sessionID,
			})
			return
		}
		h.logger.WithError(err).WithField("session_id", sessionID).Error("Failed to load booking")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to load booking", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  booking.Status,
		"booking": booking,
	})
}

// ListMine returns the authenticated renter's bookings
// @Router /bookings/me [get]
func (h *BookingHandler) ListMine(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		abortWithError(c, http.StatusUnauthorized, "unauthorized", "user not authenticated", "")
		return
	}

	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok || limit < 1 || limit > maxPageSize {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 100", "limit")
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok || offset < 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "offset must be zero or more", "offset")
		return
	}

	bookings, err := h.bookingRepo.ListByRenter(c.Request.Context(), userCtx.UserID, limit, offset)
	if err != nil {
		h.logger.WithError(err).WithField("renter_id", userCtx.UserID).Error("Failed to list bookings")
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to list bookings", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"limit":    limit,
		"offset":   offset,
		"count":    len(bookings),
	})
}

func queryInt(c *gin.Context, key string, defaultValue int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
