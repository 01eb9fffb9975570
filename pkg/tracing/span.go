package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Order and payment attribute keys shared by every span in the service
const (
	OrderIDKey        = attribute.Key("order.id")
	OrderStatusKey    = attribute.Key("order.status")
	OrderTargetKey    = attribute.Key("order.target_status")
	PaymentMethodKey  = attribute.Key("payment.method")
	PaymentReceiptKey = attribute.Key("payment.receipt")
	GatewayOrderIDKey = attribute.Key("payment.gateway_order_id")
)

// Start opens a span on the named tracer of the global provider
func Start(ctx context.Context, tracer, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracer).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// End marks the span failed when err is non-nil, then ends it
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
