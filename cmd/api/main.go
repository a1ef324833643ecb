package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vanfit-commerce/shipping-service/pkg/kafka"
	"github.com/vanfit-commerce/shipping-service/pkg/logging"
	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
	"github.com/vanfit-commerce/shipping-service/pkg/middleware"
	"github.com/vanfit-commerce/shipping-service/pkg/mongodb"
	"github.com/vanfit-commerce/shipping-service/pkg/tracing"

	"github.com/vanfit-commerce/shipping-service/internal/api/handlers"
	"github.com/vanfit-commerce/shipping-service/internal/application"
	"github.com/vanfit-commerce/shipping-service/internal/domain"
	"github.com/vanfit-commerce/shipping-service/internal/infrastructure/carriers"
	mongoRepo "github.com/vanfit-commerce/shipping-service/internal/infrastructure/mongodb"
)

const serviceName = "shipping-service"

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	// Setup enhanced logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting shipping-service API")

	// Load configuration
	config := loadConfig()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer
	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize carrier adapter
	carrier := carriers.NewDirectFreightAdapter(config.Carrier, logger, m)
	logger.Info("Carrier adapter initialized", "carrier", carrier.CarrierCode(), "baseUrl", config.Carrier.BaseURL)

	// Initialize repositories
	sessionRepo := mongoRepo.NewSessionRepository(mongoClient.Database())

	// Initialize application services
	quoteService := application.NewQuoteService(carrier, domain.NewFallbackEstimator(config.Estimator), logger, m)
	cartService := application.NewCartShippingService(sessionRepo, quoteService, producer, logger, m)
	bookingService := application.NewBookingService(carrier, producer, logger, m)
	addressService := application.NewAddressSearchService(carrier, logger)

	// Initialize handlers
	quoteHandler := handlers.NewQuoteHandler(quoteService, logger)
	cartHandler := handlers.NewCartHandler(cartService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	addressHandler := handlers.NewAddressHandler(addressService, logger)

	// Setup Gin router with middleware
	router := gin.New()

	// Apply standard middleware
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)

	// Add metrics middleware
	router.Use(middleware.MetricsMiddleware(m))

	// Add tracing middleware
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	// Handle 404 and 405 errors
	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Ad-hoc quoting
		shipping := v1.Group("/shipping")
		{
			shipping.POST("/quote", quoteHandler.GetQuotes)
		}

		// Suburb autocomplete and depot lookup
		v1.GET("/address-search", addressHandler.Search)
		v1.GET("/depots", addressHandler.SearchDepots)

		// Cart shipping state
		carts := v1.Group("/carts")
		{
			carts.PUT("/:cartId/address", cartHandler.SetAddress)
			carts.POST("/:cartId/quotes", cartHandler.RequestQuotes)
			carts.POST("/:cartId/quotes/select", cartHandler.SelectQuote)
			carts.GET("/:cartId/shipping", cartHandler.GetShipping)
			carts.DELETE("/:cartId/shipping", cartHandler.ClearShipping)
		}

		// Freight bookings
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:bookingId/status", bookingHandler.GetBookingStatus)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Carrier    carriers.Config
	Estimator  *domain.EstimatorConfig
}

func loadConfig() *Config {
	carrierConfig := carriers.DefaultConfig()
	carrierConfig.BaseURL = getEnv("CARRIER_BASE_URL", "https://api.directfreight.com.au")
	carrierConfig.APIKey = getEnv("CARRIER_API_KEY", "")
	carrierConfig.AccountNumber = getEnv("CARRIER_ACCOUNT_NUMBER", "")
	carrierConfig.RequestTimeout = getEnvDuration("CARRIER_REQUEST_TIMEOUT", 10*time.Second)
	carrierConfig.MaxRetries = getEnvInt("CARRIER_MAX_RETRIES", 2)
	carrierConfig.RateLimitWindow = getEnvDuration("CARRIER_RATE_LIMIT_WINDOW", time.Minute)
	carrierConfig.RateLimitMax = getEnvInt("CARRIER_RATE_LIMIT_MAX", 100)
	carrierConfig.Pickup = carriers.PickupLocation{
		Name:           getEnv("PICKUP_NAME", "VanFit Warehouse"),
		Address:        getEnv("PICKUP_ADDRESS", "4 Production Dr"),
		AddressLineTwo: getEnv("PICKUP_ADDRESS_2", ""),
		Suburb:         getEnv("PICKUP_SUBURB", "Campbellfield"),
		Postcode:       getEnv("PICKUP_POSTCODE", "3061"),
		State:          getEnv("PICKUP_STATE", "VIC"),
	}

	estimatorConfig := domain.DefaultEstimatorConfig()
	estimatorConfig.FreeShippingThreshold = getEnvFloat("FREE_SHIPPING_THRESHOLD", estimatorConfig.FreeShippingThreshold)
	estimatorConfig.RemoteFreeShippingThreshold = getEnvFloat("REMOTE_FREE_SHIPPING_THRESHOLD", estimatorConfig.RemoteFreeShippingThreshold)
	estimatorConfig.SignatureValueThreshold = getEnvFloat("SIGNATURE_VALUE_THRESHOLD", estimatorConfig.SignatureValueThreshold)

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8014"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "vanfit_shipping"),
			Username:       getEnv("MONGODB_USERNAME", ""),
			Password:       getEnv("MONGODB_PASSWORD", ""),
			AuthDB:         getEnv("MONGODB_AUTH_DB", "admin"),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		Carrier:   carrierConfig,
		Estimator: estimatorConfig,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
