package models

import "time"

// Vehicle is a read-only view of the inventory record managed by the vehicle service
type Vehicle struct {
	ID        string    `json:"_id" db:"id"`
	CarName   string    `json:"carName" db:"car_name"`
	CarType   string    `json:"carType" db:"car_type"`
	PayPerDay float64   `json:"payPerDay" db:"pay_per_day"`
	Available bool      `json:"available" db:"available"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
