package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront/order-platform/pkg/cloudevents"
	"github.com/shopfront/order-platform/pkg/metrics"
	"github.com/shopfront/order-platform/pkg/tracing"
)

// messageWriter is the part of *kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes CloudEvents. One writer serves every topic; the topic
// travels on each message.
type Producer struct {
	writer     messageWriter
	metrics    *metrics.Metrics
	propagator propagation.TextMapPropagator
}

// NewProducer creates a producer for the configured brokers
func NewProducer(config *Config, m *metrics.Metrics) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Transport:    &kafka.Transport{ClientID: config.ClientID},
	}, m)
}

func newProducer(w messageWriter, m *metrics.Metrics) *Producer {
	return &Producer{writer: w, metrics: m, propagator: propagation.TraceContext{}}
}

// PublishEvent writes event to topic keyed by its subject, so one order's
// events stay ordered within a partition
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.Event) error {
	ctx, span := tracing.Start(ctx, "kafka", "kafka.publish "+topic, trace.SpanKindProducer,
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", topic),
		attribute.String("cloudevents.event_type", event.Type),
		tracing.OrderIDKey.String(event.Subject),
	)

	start := time.Now()
	err := p.publish(ctx, topic, event)
	p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, time.Since(start))
	tracing.End(span, err)
	return err
}

func (p *Producer) publish(ctx context.Context, topic string, event *cloudevents.Event) error {
	msg, err := BuildMessage(event)
	if err != nil {
		return err
	}
	msg.Topic = topic
	p.propagator.Inject(ctx, headerCarrier{msg: &msg})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return nil
}

// BuildMessage encodes event in CloudEvents binary-header plus structured body form
func BuildMessage(event *cloudevents.Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{Key: []byte(event.Subject), Value: data, Time: event.Time}
	carrier := headerCarrier{msg: &msg}
	carrier.Set("ce-specversion", event.SpecVersion)
	carrier.Set("ce-id", event.ID)
	carrier.Set("ce-source", event.Source)
	carrier.Set("ce-type", event.Type)
	carrier.Set("ce-time", event.Time.Format(time.RFC3339))
	carrier.Set("content-type", event.DataContentType)
	carrier.Set("ce-shopcorrelationid", event.CorrelationID)
	carrier.Set("ce-shopuserid", event.UserID)
	return msg, nil
}

// Close flushes pending messages and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// headerCarrier adapts message headers to propagation.TextMapCarrier. Empty
// values are not written.
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	if value == "" {
		return
	}
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
