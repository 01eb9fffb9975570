package idempotency

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
)

const (
	DefaultMaxKeyLength = 255
	// DefaultLockTimeout is how long an in-flight record blocks retries before it can be taken over
	DefaultLockTimeout     = time.Minute
	DefaultRetentionPeriod = 24 * time.Hour
	// DefaultMaxResponseSize is the largest response body that is stored for replay
	DefaultMaxResponseSize = 1 << 20
)

// Config holds configuration for the idempotency middleware
type Config struct {
	Store   Store
	Logger  *logging.Logger
	Metrics *metrics.Metrics

	// Scope returns the caller a key belongs to. Keys are global when nil.
	Scope func(*gin.Context) string

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration
	MaxResponseSize int
}

// DefaultConfig returns a configuration with every limit at its default
func DefaultConfig(store Store, logger *logging.Logger) *Config {
	return (&Config{Store: store, Logger: logger}).withDefaults()
}

// withDefaults returns a copy with zero limits replaced by their defaults
func (c *Config) withDefaults() *Config {
	out := *c
	if out.MaxKeyLength <= 0 {
		out.MaxKeyLength = DefaultMaxKeyLength
	}
	if out.LockTimeout <= 0 {
		out.LockTimeout = DefaultLockTimeout
	}
	if out.RetentionPeriod <= 0 {
		out.RetentionPeriod = DefaultRetentionPeriod
	}
	if out.MaxResponseSize <= 0 {
		out.MaxResponseSize = DefaultMaxResponseSize
	}
	return &out
}

func (c *Config) scope(ctx *gin.Context) string {
	if c.Scope == nil {
		return ""
	}
	return c.Scope(ctx)
}
