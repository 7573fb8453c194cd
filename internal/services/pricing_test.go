package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseRentalDate(value)
	require.NoError(t, err)
	return d
}

func TestParseRentalDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"Date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"RFC3339", "2024-06-01T10:30:00Z", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), false},
		{"Datetime local", "2024-06-01T10:30", time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), false},
		{"Not a date", "tomorrow", time.Time{}, true},
		{"Impossible day", "2024-02-30", time.Time{}, true},
		{"Empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRentalDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"Three days", "2024-06-01", "2024-06-04", 3},
		{"One day", "2024-06-01", "2024-06-02", 1},
		{"Partial day rounds up", "2024-06-01T10:00", "2024-06-02T11:00", 2},
		{"Few hours", "2024-06-01T10:00", "2024-06-01T12:00", 1},
		{"Same instant floors to one", "2024-06-01", "2024-06-01", 1},
		{"Inverted floors to one", "2024-06-04", "2024-06-01", 1},
		{"Across month end", "2024-01-30", "2024-02-02", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RentalDays(mustDate(t, tt.start), mustDate(t, tt.end)))
		})
	}
}

func TestRentalDays_NeverBelowOneAndMatchesCeil(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for minutes := 1; minutes <= 60*24*40; minutes += 37 {
		end := start.Add(time.Duration(minutes) * time.Minute)
		days := RentalDays(start, end)

		expected := int(math.Ceil(end.Sub(start).Hours() / 24))
		assert.Equal(t, expected, days, "minutes=%d", minutes)
		assert.GreaterOrEqual(t, days, 1)
	}
}

func TestRentalTotal(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		price    float64
		expected int64
	}{
		{"Whole price", 3, 50, 150},
		{"Rounds half up", 1, 49.5, 50},
		{"Rounds to nearest", 3, 33.33, 100},
		{"Fractional accumulates", 7, 19.99, 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := RentalTotal(tt.days, tt.price)
			second := RentalTotal(tt.days, tt.price)
			assert.Equal(t, tt.expected, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(15000), ToMinorUnits(150))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}

func TestTotalWithinLimit(t *testing.T) {
	assert.True(t, TotalWithinLimit(3, 333_333))
	assert.True(t, TotalWithinLimit(1, 999_999.4))
	assert.False(t, TotalWithinLimit(1, 999_999.5))
	assert.False(t, TotalWithinLimit(36527, 1e18))
	assert.Equal(t, int64(99_999_900), ToMinorUnits(MaxRentalTotal))
}
