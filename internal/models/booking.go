package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a rental booking
type BookingStatus string

const (
	// BookingStatusPending is reserved for a future reservation-hold feature
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// Booking is a confirmed rental in the booking ledger.
// Rows are only ever written from a verified checkout.session.completed event.
type Booking struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	RenterID          string        `json:"renter_id" db:"renter_id"`
	VehicleID         string        `json:"vehicle_id" db:"vehicle_id"`
	CheckoutSessionID string        `json:"checkout_session_id" db:"checkout_session_id"`
	StartDate         time.Time     `json:"start_date" db:"start_date"`
	EndDate           time.Time     `json:"end_date" db:"end_date"`
	TotalAmount       float64       `json:"total_amount" db:"total_amount"`
	Currency          string        `json:"currency" db:"currency"`
	Status            BookingStatus `json:"status" db:"status"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
}

// BookingConfirmedEvent is published to the message broker after a booking is written
type BookingConfirmedEvent struct {
	Event      string `json:"event"`       // "booking.confirmed"
	Version    int    `json:"version"`     // 1
	OccurredAt string `json:"occurred_at"` // RFC3339
	Data       struct {
		BookingID         string  `json:"booking_id"`
		RenterID          string  `json:"renter_id"`
		VehicleID         string  `json:"vehicle_id"`
		CheckoutSessionID string  `json:"checkout_session_id"`
		StartDate         string  `json:"start_date"`
		EndDate           string  `json:"end_date"`
		TotalAmount       float64 `json:"total_amount"`
		Currency          string  `json:"currency"`
	} `json:"data"`
}

// NewBookingConfirmedEvent builds the broker message for a booking
func NewBookingConfirmedEvent(b *Booking) BookingConfirmedEvent {
	evt := BookingConfirmedEvent{
		Event:      "booking.confirmed",
		Version:    1,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	evt.Data.BookingID = b.ID.String()
	evt.Data.RenterID = b.RenterID
	evt.Data.VehicleID = b.VehicleID
	evt.Data.CheckoutSessionID = b.CheckoutSessionID
	evt.Data.StartDate = b.StartDate.UTC().Format(time.RFC3339)
	evt.Data.EndDate = b.EndDate.UTC().Format(time.RFC3339)
	evt.Data.TotalAmount = b.TotalAmount
	evt.Data.Currency = b.Currency
	return evt
}
