package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec

	// Storage and messaging
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	KafkaEventsPublished     *prometheus.CounterVec
	KafkaPublishDuration     *prometheus.HistogramVec
	OutboxPending            prometheus.Gauge
	OutboxPublished          *prometheus.CounterVec
	IdempotencyRequests      *prometheus.CounterVec

	// Business
	OrdersPlaced       *prometheus.CounterVec
	OrderTransitions   *prometheus.CounterVec
	WalletCredited     prometheus.Counter
	WalletDebited      prometheus.Counter
	UnitsRestocked     prometheus.Counter
	GatewayRequests    *prometheus.CounterVec
	GatewayDuration    prometheus.Histogram
	CircuitBreakerOpen *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "shopfront",
	}
}

// New creates and registers all collectors on a private registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	constLabels := prometheus.Labels{"service": config.ServiceName}

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: name, Help: help, ConstLabels: constLabels,
		}, labels)
		registry.MustRegister(c)
		return c
	}
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: name, Help: help, ConstLabels: constLabels,
		})
		registry.MustRegister(c)
		return c
	}
	histogramVec := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: name, Help: help, Buckets: buckets, ConstLabels: constLabels,
		}, labels)
		registry.MustRegister(h)
		return h
	}
	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: name, Help: help, ConstLabels: constLabels,
		})
		registry.MustRegister(g)
		return g
	}

	latency := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal:    counterVec("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration:  histogramVec("http_request_duration_seconds", "HTTP request duration in seconds", latency, "method", "path"),
		HTTPRequestsInFlight: gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),
		HTTPResponseSize:     histogramVec("http_response_size_bytes", "HTTP response body size in bytes", prometheus.ExponentialBuckets(64, 4, 8), "method", "path"),

		MongoDBOperations:        counterVec("mongodb_operations_total", "Total number of MongoDB operations", "collection", "operation", "status"),
		MongoDBOperationDuration: histogramVec("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds", latency, "collection", "operation"),
		KafkaEventsPublished:     counterVec("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		KafkaPublishDuration:     histogramVec("kafka_publish_duration_seconds", "Kafka publish duration in seconds", latency, "topic"),
		OutboxPending:            gauge("outbox_pending_events", "Due outbox messages seen by the last poll"),
		OutboxPublished:          counterVec("outbox_delivery_attempts_total", "Outbox delivery attempts by outcome", "event_type", "outcome"),
		IdempotencyRequests:      counterVec("idempotency_requests_total", "Requests carrying an Idempotency-Key by outcome", "outcome"),

		OrdersPlaced:     counterVec("orders_placed_total", "Orders placed", "payment_method"),
		OrderTransitions: counterVec("order_transitions_total", "Order status transitions", "from", "to", "status"),
		WalletCredited:   counter("wallet_credited_amount_total", "Sum of wallet credits"),
		WalletDebited:    counter("wallet_debited_amount_total", "Sum of wallet debits"),
		UnitsRestocked:   counter("inventory_units_restocked_total", "Units returned to stock"),
		GatewayRequests:  counterVec("payment_gateway_requests_total", "Payment gateway order requests", "status"),
		CircuitBreakerOpen: func() *prometheus.GaugeVec {
			g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)", ConstLabels: constLabels,
			}, []string{"name"})
			registry.MustRegister(g)
			return g
		}(),
	}

	m.GatewayDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "payment_gateway_duration_seconds", Help: "Payment gateway call duration", Buckets: latency, ConstLabels: constLabels,
	})
	registry.MustRegister(m.GatewayDuration)

	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordHTTPResponseSize records the body size of a response; gin reports -1 when nothing was written
func (m *Metrics) RecordHTTPResponseSize(method, path string, size int) {
	if m == nil || size < 0 {
		return
	}
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
}

// IncrementHTTPRequestsInFlight marks a request as started
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight marks a request as finished
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Dec()
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBOperations.WithLabelValues(collection, operation, statusLabel(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish attempt
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// SetOutboxPending records the number of unpublished events in the last batch
func (m *Metrics) SetOutboxPending(count int) {
	if m == nil {
		return
	}
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxOutcome records what happened to one outbox message in a batch
func (m *Metrics) RecordOutboxOutcome(eventType, outcome string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(eventType, outcome).Inc()
}

// RecordIdempotency counts an idempotent request outcome
func (m *Metrics) RecordIdempotency(outcome string) {
	if m == nil {
		return
	}
	m.IdempotencyRequests.WithLabelValues(outcome).Inc()
}

// RecordOrderPlaced counts a placed order
func (m *Metrics) RecordOrderPlaced(paymentMethod string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(paymentMethod).Inc()
}

// RecordOrderTransition counts an attempted status transition
func (m *Metrics) RecordOrderTransition(from, to string, success bool) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(from, to, statusLabel(success)).Inc()
}

// RecordWalletCredit adds to the credited total
func (m *Metrics) RecordWalletCredit(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.WalletCredited.Add(amount)
}

// RecordWalletDebit adds to the debited total
func (m *Metrics) RecordWalletDebit(amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.WalletDebited.Add(amount)
}

// RecordRestock adds restocked units
func (m *Metrics) RecordRestock(units int) {
	if m == nil || units <= 0 {
		return
	}
	m.UnitsRestocked.Add(float64(units))
}

// RecordGatewayRequest records a payment gateway call
func (m *Metrics) RecordGatewayRequest(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(statusLabel(success)).Inc()
	m.GatewayDuration.Observe(duration.Seconds())
}

// SetCircuitBreakerState records a breaker state (0 closed, 1 half-open, 2 open)
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerOpen.WithLabelValues(name).Set(float64(state))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
