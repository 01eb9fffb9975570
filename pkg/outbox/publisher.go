package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopfront/order-platform/pkg/cloudevents"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
)

// Outcomes reported to metrics for each delivery attempt
const (
	OutcomePublished = "published"
	OutcomeRetry     = "retry"
	OutcomeParked    = "parked"
	OutcomeDeferred  = "deferred"
)

// EventSender delivers a CloudEvent to a topic
type EventSender interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.Event) error
}

// EventValidator checks an encoded CloudEvent against its contract
type EventValidator interface {
	ValidateEventJSON(eventJSON []byte) error
}

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// Validator is optional; a message that fails validation is retried and eventually parked
	Validator EventValidator
	Now       func() time.Time
}

// DefaultPublisherConfig returns default configuration
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    100,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Stats counts delivery outcomes since the publisher was created
type Stats struct {
	Published int
	Retried   int
	Parked    int
}

// Publisher relays due outbox messages to the broker. Messages of one
// aggregate are delivered in creation order: after a failure the rest of
// that aggregate's batch waits for the next poll.
type Publisher struct {
	store   Store
	sender  EventSender
	logger  *logging.Logger
	metrics *metrics.Metrics
	config  PublisherConfig

	mu    sync.Mutex
	stats Stats
}

// NewPublisher creates a publisher. Zero config fields take their defaults.
func NewPublisher(store Store, sender EventSender, logger *logging.Logger, m *metrics.Metrics, config *PublisherConfig) *Publisher {
	cfg := *DefaultPublisherConfig()
	if config != nil {
		if config.PollInterval > 0 {
			cfg.PollInterval = config.PollInterval
		}
		if config.BatchSize > 0 {
			cfg.BatchSize = config.BatchSize
		}
		if config.MaxAttempts > 0 {
			cfg.MaxAttempts = config.MaxAttempts
		}
		cfg.Validator = config.Validator
		cfg.Now = config.Now
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Publisher{
		store:   store,
		sender:  sender,
		logger:  logger.WithComponent("outbox-publisher"),
		metrics: m,
		config:  cfg,
	}
}

// Run polls until ctx is cancelled. The batch in flight when ctx is
// cancelled is finished before Run returns.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("Starting outbox publisher", "interval", p.config.PollInterval, "batchSize", p.config.BatchSize)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stats := p.Stats()
			p.logger.Info("Outbox publisher stopped",
				"published", stats.Published, "retried", stats.Retried, "parked", stats.Parked)
			return
		case <-ticker.C:
			p.ProcessBatch(context.WithoutCancel(ctx))
		}
	}
}

// ProcessBatch delivers one batch of due messages
func (p *Publisher) ProcessBatch(ctx context.Context) {
	messages, err := p.store.Due(ctx, p.config.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to load due outbox messages")
		return
	}
	p.metrics.SetOutboxPending(len(messages))

	blocked := make(map[string]bool)
	for _, msg := range messages {
		if blocked[msg.AggregateID] {
			p.metrics.RecordOutboxOutcome(msg.EventType, OutcomeDeferred)
			continue
		}

		if err := p.deliver(ctx, msg); err != nil {
			blocked[msg.AggregateID] = true
			p.fail(ctx, msg, err)
			continue
		}

		if err := p.store.MarkPublished(ctx, msg.ID, p.config.Now()); err != nil {
			p.logger.WithError(err).Error("Failed to mark outbox message published", "messageId", msg.ID)
		}
		p.count(OutcomePublished)
		p.metrics.RecordOutboxOutcome(msg.EventType, OutcomePublished)
	}
}

func (p *Publisher) deliver(ctx context.Context, msg *Message) error {
	if p.config.Validator != nil {
		if err := p.config.Validator.ValidateEventJSON(msg.Envelope); err != nil {
			return fmt.Errorf("event failed contract validation: %w", err)
		}
	}

	event, err := msg.Event()
	if err != nil {
		return fmt.Errorf("failed to decode CloudEvent: %w", err)
	}

	if err := p.sender.PublishEvent(ctx, msg.Topic, event); err != nil {
		return fmt.Errorf("failed to publish to Kafka: %w", err)
	}

	p.logger.Debug("Published outbox message", "messageId", msg.ID, "eventType", msg.EventType, "topic", msg.Topic)
	return nil
}

func (p *Publisher) fail(ctx context.Context, msg *Message, cause error) {
	msg.Fail(p.config.Now(), cause.Error(), p.config.MaxAttempts)

	outcome := OutcomeRetry
	if msg.Status == StatusParked {
		outcome = OutcomeParked
	}
	p.logger.WithError(cause).Error("Failed to publish outbox message",
		"messageId", msg.ID,
		"eventType", msg.EventType,
		"aggregateId", msg.AggregateID,
		"attempts", msg.Attempts,
		"outcome", outcome,
	)

	if err := p.store.SaveAttempt(ctx, msg); err != nil {
		p.logger.WithError(err).Error("Failed to record outbox attempt", "messageId", msg.ID)
	}
	p.count(outcome)
	p.metrics.RecordOutboxOutcome(msg.EventType, outcome)
}

func (p *Publisher) count(outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch outcome {
	case OutcomePublished:
		p.stats.Published++
	case OutcomeRetry:
		p.stats.Retried++
	case OutcomeParked:
		p.stats.Parked++
	}
}

// Stats returns a snapshot of the delivery counters
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
