package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
)

// ErrCircuitOpen is returned when the breaker rejects a call without running it
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig tunes when a breaker trips and how it recovers
type BreakerConfig struct {
	Name string
	// HalfOpenProbes is how many calls may run while half-open
	HalfOpenProbes uint32
	// Window resets the closed-state counts; zero never resets
	Window time.Duration
	// Cooldown is how long the breaker stays open before probing
	Cooldown            time.Duration
	ConsecutiveFailures uint32
	FailureRatio        float64
	// MinRequests must be seen in the window before FailureRatio applies
	MinRequests uint32
	// Tolerate reports errors that say nothing about upstream health, such as
	// a rejected request. Caller cancellation is always tolerated.
	Tolerate func(err error) bool
}

// DefaultBreakerConfig returns the settings used for payment gateway calls
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		HalfOpenProbes:      3,
		Window:              time.Minute,
		Cooldown:            30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

// CircuitBreaker guards calls to one upstream
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *logging.Logger
}

// NewCircuitBreaker creates a breaker reporting its state to m, which may be nil
func NewCircuitBreaker(config BreakerConfig, logger *logging.Logger, m *metrics.Metrics) *CircuitBreaker {
	logger = logger.WithComponent("circuit-breaker").WithFields(map[string]any{"breaker": config.Name})

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenProbes,
		Interval:    config.Window,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.ConsecutiveFailures {
				return true
			}
			return counts.Requests >= config.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			switch {
			case err == nil, errors.Is(err, context.Canceled):
				return true
			case config.Tolerate != nil:
				return config.Tolerate(err)
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
			m.SetCircuitBreakerState(name, stateValue(to))
		},
	}
	m.SetCircuitBreakerState(config.Name, stateValue(gobreaker.StateClosed))

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings), logger: logger}
}

// Call runs fn through b. A rejected call returns an error wrapping ErrCircuitOpen.
func Call[T any](ctx context.Context, b *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("Circuit breaker rejected call", "reason", err.Error())
		return zero, fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	}
	if err != nil {
		return zero, err
	}
	typed, _ := result.(T)
	return typed, nil
}

// State returns the current state
func (b *CircuitBreaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
