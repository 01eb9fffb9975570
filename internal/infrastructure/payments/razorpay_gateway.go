package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
	"github.com/shopfront/order-platform/pkg/resilience"
	"github.com/shopfront/order-platform/pkg/tracing"
)

// DefaultBaseURL is the RazorPay REST endpoint
const DefaultBaseURL = "https://api.razorpay.com"

// RazorPayConfig holds gateway credentials and limits
type RazorPayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// StatusError is a non 2xx answer from the gateway
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("razorpay returned %d: %s", e.StatusCode, e.Body)
}

// RazorPayGateway implements domain.PaymentGateway against the RazorPay orders API
type RazorPayGateway struct {
	config     RazorPayConfig
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewRazorPayGateway creates a new RazorPayGateway
func NewRazorPayGateway(config RazorPayConfig, logger *logging.Logger, m *metrics.Metrics) *RazorPayGateway {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	breakerConfig := resilience.DefaultBreakerConfig("razorpay")
	// Rejected requests mean the gateway is up
	breakerConfig.Tolerate = func(err error) bool {
		var statusErr *StatusError
		return errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError
	}

	gatewayLogger := logger.WithComponent("razorpay")
	return &RazorPayGateway{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    resilience.NewCircuitBreaker(breakerConfig, logger, m),
		logger:     gatewayLogger,
		metrics:    m,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateGatewayOrder opens a RazorPay order for the amount in minor units
func (g *RazorPayGateway) CreateGatewayOrder(ctx context.Context, req domain.GatewayOrderRequest) (*domain.GatewayOrder, error) {
	ctx, span := tracing.Start(ctx, "razorpay", "razorpay.create_order", trace.SpanKindClient,
		tracing.PaymentReceiptKey.String(req.Receipt),
		attribute.Int64("payment.amount_minor", req.AmountMinor),
		attribute.String("payment.currency", req.Currency),
	)

	start := time.Now()
	created, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (*createOrderResponse, error) {
		return g.createOrder(ctx, req)
	})
	g.metrics.RecordGatewayRequest(err == nil, time.Since(start))

	if err != nil {
		tracing.End(span, err)
		g.logger.WithContext(ctx).WithError(err).Error("Failed to create gateway order", "receipt", req.Receipt)
		return nil, err
	}

	span.SetAttributes(tracing.GatewayOrderIDKey.String(created.ID))
	tracing.End(span, nil)

	return &domain.GatewayOrder{
		ID:       created.ID,
		Amount:   created.Amount,
		Currency: created.Currency,
		KeyID:    g.config.KeyID,
	}, nil
}

func (g *RazorPayGateway) createOrder(ctx context.Context, req domain.GatewayOrderRequest) (*createOrderResponse, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	endpoint := strings.TrimSuffix(g.config.BaseURL, "/") + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.config.KeyID, g.config.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach razorpay: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read razorpay response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var created createOrderResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to decode razorpay response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("razorpay response has no order id")
	}
	return &created, nil
}
