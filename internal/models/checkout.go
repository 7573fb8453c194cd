package models

import (
	"strconv"
	"strings"
)

// AnonymousRenterID is used when a checkout is started without a known renter
const AnonymousRenterID = "anonymous"

// Checkout session metadata keys. Stripe metadata values are strings only.
const (
	MetadataRenterID    = "renterId"
	MetadataVehicleID   = "vehicleId"
	MetadataStartDate   = "startDate"
	MetadataEndDate     = "endDate"
	MetadataTotalAmount = "totalAmount"
)

// RequiredMetadataKeys lists every key a completed checkout must carry back
var RequiredMetadataKeys = []string{
	MetadataRenterID,
	MetadataVehicleID,
	MetadataStartDate,
	MetadataEndDate,
	MetadataTotalAmount,
}

// CheckoutVehicle is the vehicle snapshot sent by the booking page.
// Older clients send name/price, the inventory API exposes carName/payPerDay.
type CheckoutVehicle struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	CarName   string   `json:"carName"`
	Price     *float64 `json:"price"`
	PayPerDay *float64 `json:"payPerDay"`
}

// CreateCheckoutSessionRequest is the body of POST /stripe/create-checkout-session
type CreateCheckoutSessionRequest struct {
	Vehicle   *CheckoutVehicle `json:"vehicle"`
	UserID    string           `json:"userId"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
}

// CreateCheckoutSessionResponse is returned once Stripe has created the session
type CreateCheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// RentalRequest is the normalized, never-persisted booking intent
type RentalRequest struct {
	VehicleID   string  `field:"vehicle._id" validate:"required"`
	VehicleName string  `field:"vehicle.name" validate:"required"`
	PricePerDay float64 `field:"vehicle.price" validate:"gt=0"`
	RenterID    string  `field:"userId" validate:"required"`
	StartDate   string  `field:"startDate" validate:"required"`
	EndDate     string  `field:"endDate" validate:"required"`
}

// ToRentalRequest resolves field aliases into a RentalRequest.
// This is the only place name/carName and price/payPerDay are reconciled.
func (r *CreateCheckoutSessionRequest) ToRentalRequest() RentalRequest {
	req := RentalRequest{
		RenterID:  strings.TrimSpace(r.UserID),
		StartDate: strings.TrimSpace(r.StartDate),
		EndDate:   strings.TrimSpace(r.EndDate),
	}
	if req.RenterID == "" {
		req.RenterID = AnonymousRenterID
	}

	if r.Vehicle == nil {
		return req
	}

	req.VehicleID = strings.TrimSpace(r.Vehicle.ID)
	req.VehicleName = strings.TrimSpace(r.Vehicle.Name)
	if req.VehicleName == "" {
		req.VehicleName = strings.TrimSpace(r.Vehicle.CarName)
	}
	// First non-zero alias wins; a zero or negative price is still passed on to validation
	switch {
	case r.Vehicle.Price != nil && *r.Vehicle.Price != 0:
		req.PricePerDay = *r.Vehicle.Price
	case r.Vehicle.PayPerDay != nil:
		req.PricePerDay = *r.Vehicle.PayPerDay
	}

	return req
}

// QuoteResponse is the price preview for a date range
type QuoteResponse struct {
	VehicleID   string  `json:"vehicleId"`
	RentalDays  int     `json:"rentalDays"`
	PricePerDay float64 `json:"pricePerDay"`
	TotalAmount int64   `json:"totalAmount"`
	Currency    string  `json:"currency"`
}

// CheckoutMetadata is the booking intent carried on a checkout session
type CheckoutMetadata struct {
	RenterID    string
	VehicleID   string
	StartDate   string
	EndDate     string
	TotalAmount int64
}

// ToMap renders the metadata in the string-only form Stripe stores
func (m CheckoutMetadata) ToMap() map[string]string {
	return map[string]string{
		MetadataRenterID:    m.RenterID,
		MetadataVehicleID:   m.VehicleID,
		MetadataStartDate:   m.StartDate,
		MetadataEndDate:     m.EndDate,
		MetadataTotalAmount: strconv.FormatInt(m.TotalAmount, 10),
	}
}

// MissingMetadataKey returns the first required key that is absent or blank
func MissingMetadataKey(metadata map[string]string) (string, bool) {
	for _, key := range RequiredMetadataKeys {
		if strings.TrimSpace(metadata[key]) == "" {
			return key, true
		}
	}
	return "", false
}
