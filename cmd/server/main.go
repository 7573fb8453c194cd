package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/config"
	"github.com/rentwheels/car-rental-backend/internal/database"
	"github.com/rentwheels/car-rental-backend/internal/handlers"
	"github.com/rentwheels/car-rental-backend/internal/middleware"
	"github.com/rentwheels/car-rental-backend/internal/services"
	"github.com/rentwheels/car-rental-backend/pkg/jwt"
	"github.com/rentwheels/car-rental-backend/pkg/mq"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// accessTokenExpiry only matters for tokens minted locally; the API verifies tokens from the auth service
const accessTokenExpiry = 15 * time.Minute

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting car rental booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	bookingRepo := database.NewBookingRepository(db.DB, logger)
	paymentEventRepo := database.NewPaymentEventRepository(db.DB, logger)
	vehicleRepo := database.NewVehicleRepository(db.DB)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, accessTokenExpiry)
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	checkoutService := services.NewCheckoutService(stripeService, vehicleRepo, &cfg.Stripe, &cfg.App, logger)

	// Booking notifications are optional
	var publisher services.EventPublisher
	if cfg.Messaging.AMQPURL != "" {
		mqPublisher, err := mq.NewPublisher(cfg.Messaging.AMQPURL, cfg.Messaging.Exchange)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, booking notifications disabled")
		} else {
			defer mqPublisher.Close()
			publisher = mqPublisher
			logger.WithField("exchange", cfg.Messaging.Exchange).Info("✓ Booking notifications enabled")
		}
	} else {
		logger.Info("AMQP_URL not set, booking notifications disabled")
	}

	webhookService := services.NewWebhookService(
		stripeService,
		bookingRepo,
		paymentEventRepo,
		publisher,
		cfg.Stripe.Currency,
		logger,
	)
	reconciliationService := services.NewReconciliationService(paymentEventRepo, webhookService, &cfg.Reconciliation, logger)

	cronService := services.NewCronService(reconciliationService, &cfg.Reconciliation, logger)
	if cfg.Reconciliation.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	} else {
		logger.Info("Reconciliation job disabled")
	}

	logger.Info("Services initialized")

	// Handlers
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, logger)
	webhookHandler := handlers.NewWebhookHandler(webhookService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingRepo, logger)
	adminHandler := handlers.NewAdminHandler(cronService, paymentEventRepo, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	optionalAuth := middleware.OptionalAuth(jwtService, logger)

	v1 := router.Group("/api/v1")
	{
		stripeRoutes := v1.Group("/stripe")
		{
			stripeRoutes.POST("/create-checkout-session", optionalAuth, checkoutHandler.CreateCheckoutSession)
			stripeRoutes.POST("/webhook", webhookHandler.HandleStripeWebhook)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("/quote", optionalAuth, checkoutHandler.Quote)
			bookings.GET("/checkout/:session_id", bookingHandler.GetByCheckoutSession)
			bookings.GET("/me", middleware.AuthMiddleware(jwtService, logger), bookingHandler.ListMine)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger), middleware.RequireRole("admin"))
		{
			admin.POST("/reconciliation/run", adminHandler.RunReconciliation)
			admin.GET("/reconciliation/status", adminHandler.GetReconciliationStatus)
			admin.GET("/payments/mismatches", adminHandler.GetAmountMismatches)
		}
	}

	// Unversioned paths the storefront was built against
	legacy := router.Group("/api/stripe")
	{
		legacy.POST("/create-checkout-session", optionalAuth, checkoutHandler.CreateCheckoutSession)
		legacy.POST("/webhook", webhookHandler.HandleStripeWebhook)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Reconciliation.Enabled {
		cronService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
