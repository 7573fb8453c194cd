package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_Ordered(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_vehicles.sql",
		"002_create_bookings.sql",
		"003_create_payment_events.sql",
	}, names)
}

func TestSchema_UniqueKeys(t *testing.T) {
	bookings, err := Files.ReadFile("002_create_bookings.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(bookings), "UNIQUE INDEX IF NOT EXISTS idx_bookings_checkout_session_id ON bookings (checkout_session_id)"))

	events, err := Files.ReadFile("003_create_payment_events.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(events), "ON payment_events (event_id)"))
}
