package database

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

var (
	// ErrDuplicateBooking is returned when a checkout session already has a booking
	ErrDuplicateBooking = errors.New("booking already exists for checkout session")

	ErrBookingNotFound = errors.New("booking not found")

	// ErrPaymentEventNotFound is returned when an update matches no recorded event
	ErrPaymentEventNotFound = errors.New("payment event not recorded")
	ErrVehicleNotFound = errors.New("vehicle not found")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation
}
