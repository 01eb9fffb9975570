package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/contracts"
	"github.com/shopfront/order-platform/internal/api/handlers"
	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/internal/domain"
	infra "github.com/shopfront/order-platform/internal/infrastructure/mongodb"
	"github.com/shopfront/order-platform/internal/infrastructure/payments"
	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/cloudevents"
	"github.com/shopfront/order-platform/pkg/contracts/asyncapi"
	"github.com/shopfront/order-platform/pkg/contracts/openapi"
	"github.com/shopfront/order-platform/pkg/idempotency"
	"github.com/shopfront/order-platform/pkg/kafka"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
	"github.com/shopfront/order-platform/pkg/middleware"
	"github.com/shopfront/order-platform/pkg/mongodb"
	"github.com/shopfront/order-platform/pkg/outbox"
	outboxMongo "github.com/shopfront/order-platform/pkg/outbox/mongodb"
	"github.com/shopfront/order-platform/pkg/tracing"
)

const serviceName = "order-service"

var newMongoClient = mongodb.NewClient

var initTracing = tracing.Initialize

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
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting order-service API")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return err
	}

	// Tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.Enabled = config.TracingEnabled

	tracerProvider, err := initTracing(ctx, tracingConfig)
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

	m := metrics.New(metrics.DefaultConfig(serviceName))

	// MongoDB
	mongoClient, err := newMongoClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	defer mongoClient.Close(context.Background())
	db := mongoClient.Database()
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	idempotencyStore := idempotency.NewMongoStore(db)
	outboxStore := outboxMongo.NewStore(db)

	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"domain":      func(ctx context.Context) error { return infra.EnsureIndexes(ctx, db) },
		"idempotency": idempotencyStore.EnsureIndexes,
		"outbox":      outboxStore.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.WithError(err).Error("Failed to create indexes", "indexes", name)
			return err
		}
	}

	// Kafka and outbox
	producer := kafka.NewProducer(config.Kafka, m)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventValidator, err := asyncapi.NewEventValidatorFromBytes(contracts.AsyncAPI)
	if err != nil {
		logger.WithError(err).Error("Failed to load event contracts")
		return err
	}

	publisher := outbox.NewPublisher(outboxStore, producer, logger, m, &outbox.PublisherConfig{
		PollInterval: config.OutboxPollInterval,
		Validator:    eventValidator,
	})
	relayCtx, stopRelay := context.WithCancel(ctx)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		publisher.Run(relayCtx)
	}()
	defer func() {
		stopRelay()
		<-relayDone
	}()

	// Repositories and services
	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceOrderService)
	orders := infra.NewOrderRepository(db, eventFactory, m)
	products := infra.NewProductRepository(db, m)
	tx := mongodb.NewTransactor(mongoClient, m)

	ledger := application.NewLedgerService(products, infra.NewWalletRepository(db, m), logger)
	gateway := payments.NewRazorPayGateway(config.RazorPay, logger, m)

	placement := application.NewOrderPlacementService(application.PlacementDeps{
		Orders:    orders,
		Addresses: infra.NewAddressRepository(db),
		Carts:     infra.NewCartRepository(db),
		Products:  products,
		Ledger:    ledger,
		Gateway:   gateway,
		Tx:        tx,
	}, application.PlacementConfig{Currency: config.Currency}, logger, m)
	lifecycle := application.NewOrderLifecycleService(orders, ledger, tx, application.LifecycleConfig{
		ReturnPolicy: config.ReturnPolicy,
	}, logger, m)
	queries := application.NewOrderQueryService(orders, infra.NewUserRepository(db), logger)

	tokens, err := auth.NewTokenService(config.Token)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize token service")
		return err
	}
	authService := application.NewAuthService(infra.NewAdminCredentialRepository(db), tokens, logger)

	// Router
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.HTTPMetrics(m, "/health", "/ready"))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	if config.OpenAPIValidation {
		requestValidator, err := openapi.NewValidatorFromBytes(contracts.OpenAPI)
		if err != nil {
			logger.WithError(err).Error("Failed to load API contract")
			return err
		}
		router.Use(middleware.OpenAPIValidation(requestValidator, logger))
		logger.Info("OpenAPI request validation enabled")
	}

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, map[string]func(context.Context) error{
		"mongodb": mongoClient.HealthCheck,
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	idempotencyConfig := idempotency.DefaultConfig(idempotencyStore, logger)
	idempotencyConfig.Metrics = m
	idempotencyConfig.Scope = handlers.CallerID

	handlers.RegisterRoutes(router, handlers.Routes{
		Orders:        handlers.NewOrderHandler(placement, lifecycle, queries, logger),
		Admin:         handlers.NewAdminHandler(lifecycle, queries, ledger, logger),
		Authenticator: authService,
		Ledger:        ledger,
		Verifier:      tokens,
		Idempotency:   idempotency.Middleware(idempotencyConfig),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
			serverErr <- err
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	select {
	case <-signalCh:
	case err := <-serverErr:
		return err
	}
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
	ServerAddr         string
	Environment        string
	OTLPEndpoint       string
	TracingEnabled     bool
	MongoDB            *mongodb.Config
	Kafka              *kafka.Config
	Token              auth.TokenConfig
	RazorPay           payments.RazorPayConfig
	Currency           string
	ReturnPolicy       domain.ReturnPolicy
	OutboxPollInterval time.Duration
	OpenAPIValidation  bool
}

func loadConfig() (*Config, error) {
	tokenTTL, err := time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	pollInterval, err := time.ParseDuration(getEnv("OUTBOX_POLL_INTERVAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("OUTBOX_POLL_INTERVAL: %w", err)
	}
	policy, err := domain.ParseReturnPolicy(getEnv("RETURN_REQUEST_POLICY", string(domain.ReturnPolicyAny)))
	if err != nil {
		return nil, fmt.Errorf("RETURN_REQUEST_POLICY: %w", err)
	}
	tracingEnabled, err := strconv.ParseBool(getEnv("TRACING_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("TRACING_ENABLED: %w", err)
	}
	openAPIValidation, err := strconv.ParseBool(getEnv("OPENAPI_VALIDATION", "false"))
	if err != nil {
		return nil, fmt.Errorf("OPENAPI_VALIDATION: %w", err)
	}

	return &Config{
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: tracingEnabled,
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database:       getEnv("MONGODB_DATABASE", "shopfront"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092")),
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		Token: auth.TokenConfig{
			Secret: []byte(getEnv("JWT_SECRET", "")),
			Issuer: serviceName,
			TTL:    tokenTTL,
		},
		RazorPay: payments.RazorPayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:   getEnv("RAZORPAY_BASE_URL", payments.DefaultBaseURL),
		},
		Currency:           getEnv("PAYMENT_CURRENCY", application.DefaultCurrency),
		ReturnPolicy:       policy,
		OutboxPollInterval: pollInterval,
		OpenAPIValidation:  openAPIValidation,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
