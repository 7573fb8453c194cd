package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: "postgres://localhost/rentals"},
		JWT:      JWTConfig{Secret: "secret"},
		Stripe: StripeConfig{
			SecretKey:     "sk_test_123",
			WebhookSecret: "whsec_123",
			Currency:      "usd",
		},
		App:            AppConfig{ClientURL: "https://rent.example.com"},
		Reconciliation: ReconciliationConfig{MaxAttempts: 5},
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(c *Config)
		message string
	}{
		{"Missing database", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL"},
		{"Missing JWT secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"Missing Stripe key", func(c *Config) { c.Stripe.SecretKey = "" }, "STRIPE_SECRET_KEY"},
		{"Missing webhook secret", func(c *Config) { c.Stripe.WebhookSecret = "" }, "STRIPE_WEBHOOK_SECRET"},
		{"Missing client URL", func(c *Config) { c.App.ClientURL = "" }, "CLIENT_URL"},
		{"Zero attempts", func(c *Config) { c.Reconciliation.MaxAttempts = 0 }, "RECONCILIATION_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRedirectURLs(t *testing.T) {
	app := AppConfig{ClientURL: "https://rent.example.com"}
	assert.Equal(t, "https://rent.example.com/payment-success", app.SuccessURL())
	assert.Equal(t, "https://rent.example.com/payment-cancel", app.CancelURL())
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("TEST_ORIGINS", " https://a.example.com , ,https://b.example.com")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, getEnvAsSlice("TEST_ORIGINS", nil))

	t.Setenv("TEST_ORIGINS", " , ")
	assert.Equal(t, []string{"fallback"}, getEnvAsSlice("TEST_ORIGINS", []string{"fallback"}))
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))

	t.Setenv("TEST_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("TEST_INT", 7))
}
