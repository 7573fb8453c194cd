package services

import (
	"fmt"
	"math"
	"time"
)

const millisPerDay = 24 * 60 * 60 * 1000

// MaxRentalTotal is the largest charge in whole units. Stripe caps unit_amount
// at eight digits of minor units.
const MaxRentalTotal int64 = 999_999

// rentalDateLayouts are tried in order when parsing a booking date
var rentalDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseRentalDate parses a calendar date or timestamp. Date-only values are UTC midnight.
func ParseRentalDate(value string) (time.Time, error) {
	for _, layout := range rentalDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// rentalDurationDays is ceil((end - start) / 1 day) without any floor
func rentalDurationDays(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	return int(math.Ceil(float64(ms) / millisPerDay))
}

// RentalDays returns the number of billable days between start and end.
// Never less than 1; inverted ranges are rejected before this is called.
func RentalDays(start, end time.Time) int {
	days := rentalDurationDays(start, end)
	if days < 1 {
		return 1
	}
	return days
}

// RentalTotal is the charge in whole currency units for a rental.
// Callers check TotalWithinLimit first; out-of-range totals do not convert.
func RentalTotal(days int, pricePerDay float64) int64 {
	return int64(math.Round(float64(days) * pricePerDay))
}

// TotalWithinLimit reports whether days × pricePerDay rounds to at most MaxRentalTotal
func TotalWithinLimit(days int, pricePerDay float64) bool {
	total := math.Round(float64(days) * pricePerDay)
	return !math.IsNaN(total) && total <= float64(MaxRentalTotal)
}

// ToMinorUnits converts a whole-unit amount to cents for Stripe
func ToMinorUnits(amount int64) int64 {
	return amount * 100
}
