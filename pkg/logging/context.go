package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	RequestIDKey     contextKey = "requestId"
	CorrelationIDKey contextKey = "correlationId"
	UserIDKey        contextKey = "userId"
)

var contextKeys = []contextKey{RequestIDKey, CorrelationIDKey, UserIDKey}

// ContextWithRequestID stores the request id for log correlation
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithCorrelationID stores the correlation id for log correlation
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// ContextWithUserID stores the acting user id for log correlation
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequestIDFromContext returns the request id stored in ctx
func RequestIDFromContext(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }

// CorrelationIDFromContext returns the correlation id stored in ctx
func CorrelationIDFromContext(ctx context.Context) string { return stringValue(ctx, CorrelationIDKey) }

// UserIDFromContext returns the acting user id stored in ctx
func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, UserIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	for _, key := range contextKeys {
		if v := stringValue(ctx, key); v != "" {
			attrs = append(attrs, string(key), v)
		}
	}
	return attrs
}

// contextHandler adds the ids found in the record's context. Ids already
// bound through WithContext are not repeated.
type contextHandler struct {
	slog.Handler
	bound map[contextKey]bool
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range contextKeys {
		if h.bound[key] {
			continue
		}
		if v := stringValue(ctx, key); v != "" {
			r.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	for _, a := range attrs {
		key := contextKey(a.Key)
		if isContextKey(key) && !bound[key] {
			next := make(map[contextKey]bool, len(bound)+1)
			for k, v := range bound {
				next[k] = v
			}
			next[key] = true
			bound = next
		}
	}
	return contextHandler{Handler: h.Handler.WithAttrs(attrs), bound: bound}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name), bound: h.bound}
}

func isContextKey(key contextKey) bool {
	for _, k := range contextKeys {
		if k == key {
			return true
		}
	}
	return false
}
