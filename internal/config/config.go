package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration (tokens are issued by the auth service, only verified here)
	JWT JWTConfig

	// Stripe configuration
	Stripe StripeConfig

	// Client application configuration
	App AppConfig

	// CORS configuration
	CORS CORSConfig

	// Messaging configuration
	Messaging MessagingConfig

	// Reconciliation job configuration
	Reconciliation ReconciliationConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string
	Issuer string
}

// StripeConfig holds Stripe Checkout configuration
type StripeConfig struct {
	SecretKey     string // server-to-Stripe calls (SECRET - never expose to client)
	WebhookSecret string // signing secret of the webhook endpoint
	Currency      string
}

// AppConfig holds settings about the client application
type AppConfig struct {
	ClientURL string // base URL used to build the payment redirect targets
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// MessagingConfig holds RabbitMQ configuration. An empty URL disables publishing.
type MessagingConfig struct {
	AMQPURL  string
	Exchange string
}

// ReconciliationConfig controls the job that re-drives failed booking writes
type ReconciliationConfig struct {
	Enabled     bool
	Schedule    string // cron spec with seconds field
	MaxAttempts int
	BatchSize   int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "car-rental-auth"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
		},
		App: AppConfig{
			ClientURL: strings.TrimRight(clientURL, "/"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{clientURL}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Messaging: MessagingConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "car-rental.events"),
		},
		Reconciliation: ReconciliationConfig{
			Enabled:     getEnvAsBool("RECONCILIATION_ENABLED", true),
			Schedule:    getEnv("RECONCILIATION_SCHEDULE", "0 */5 * * * *"),
			MaxAttempts: getEnvAsInt("RECONCILIATION_MAX_ATTEMPTS", 5),
			BatchSize:   getEnvAsInt("RECONCILIATION_BATCH_SIZE", 50),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if c.App.ClientURL == "" {
		return fmt.Errorf("CLIENT_URL is required")
	}

	if c.Reconciliation.MaxAttempts < 1 {
		return fmt.Errorf("RECONCILIATION_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// SuccessURL is where Stripe sends the browser after a completed payment
func (a AppConfig) SuccessURL() string {
	return a.ClientURL + "/payment-success"
}

// CancelURL is where Stripe sends the browser when the renter backs out
func (a AppConfig) CancelURL() string {
	return a.ClientURL + "/payment-cancel"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
