package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/internal/infrastructure/payments"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "default"))
	assert.Equal(t, "default", getEnv("MISSING_ENV", "default"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "shopfront", cfg.MongoDB.Database)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, serviceName, cfg.Kafka.ClientID)
	assert.Equal(t, time.Hour, cfg.Token.TTL)
	assert.Equal(t, payments.DefaultBaseURL, cfg.RazorPay.BaseURL)
	assert.Equal(t, application.DefaultCurrency, cfg.Currency)
	assert.Equal(t, domain.ReturnPolicyAny, cfg.ReturnPolicy)
	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.True(t, cfg.TracingEnabled)
	assert.False(t, cfg.OpenAPIValidation)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("MONGODB_URI", "mongodb://test:27017")
	t.Setenv("MONGODB_DATABASE", "orders_test")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("RETURN_REQUEST_POLICY", "Delivered")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("TRACING_ENABLED", "false")
	t.Setenv("OPENAPI_VALIDATION", "true")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "mongodb://test:27017", cfg.MongoDB.URI)
	assert.Equal(t, "orders_test", cfg.MongoDB.Database)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []byte("s3cret"), cfg.Token.Secret)
	assert.Equal(t, 15*time.Minute, cfg.Token.TTL)
	assert.Equal(t, "rzp_test", cfg.RazorPay.KeyID)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, domain.ReturnPolicyDelivered, cfg.ReturnPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.False(t, cfg.TracingEnabled)
	assert.True(t, cfg.OpenAPIValidation)
}

func TestLoadConfig_RejectsMalformedValues(t *testing.T) {
	for key, value := range map[string]string{
		"JWT_TTL":               "forever",
		"OUTBOX_POLL_INTERVAL":  "often",
		"RETURN_REQUEST_POLICY": "never",
		"TRACING_ENABLED":       "maybe",
		"OPENAPI_VALIDATION":    "sometimes",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := loadConfig()
			assert.ErrorContains(t, err, key)
		})
	}
}
