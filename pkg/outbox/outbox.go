package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/order-platform/pkg/cloudevents"
)

// Status is the delivery state of a stored message
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	// StatusParked messages exhausted their attempts and wait for an operator
	StatusParked Status = "parked"
)

const (
	// DefaultMaxAttempts bounds delivery attempts per message
	DefaultMaxAttempts = 10

	baseBackoff = time.Second
	maxBackoff  = 5 * time.Minute
)

// Message is an encoded CloudEvent committed together with the aggregate
// change that produced it and not yet acknowledged by the broker.
type Message struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Envelope      json.RawMessage `bson:"envelope" json:"envelope"`
	Status        Status          `bson:"status" json:"status"`
	Attempts      int             `bson:"attempts" json:"attempts"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	NextAttemptAt time.Time       `bson:"nextAttemptAt" json:"nextAttemptAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}

// NewMessage encodes event for delivery to topic. The message is due immediately.
func NewMessage(aggregateID, topic string, event *cloudevents.Event) (*Message, error) {
	envelope, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Message{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		EventType:     event.Type,
		Topic:         topic,
		Envelope:      envelope,
		Status:        StatusPending,
		CreatedAt:     now,
		NextAttemptAt: now,
	}, nil
}

// Event decodes the envelope
func (m *Message) Event() (*cloudevents.Event, error) {
	var event cloudevents.Event
	if err := json.Unmarshal(m.Envelope, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Fail records a failed attempt. The message is parked once maxAttempts is
// reached, otherwise rescheduled with exponential backoff.
func (m *Message) Fail(now time.Time, reason string, maxAttempts int) {
	m.Attempts++
	m.LastError = reason
	if m.Attempts >= maxAttempts {
		m.Status = StatusParked
		return
	}
	m.NextAttemptAt = now.Add(Backoff(m.Attempts))
}

// Backoff returns the delay before retrying after the given number of failed attempts
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		return 0
	}
	delay := baseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
