package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is the textual LOG_LEVEL value
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ParseLevel converts a LOG_LEVEL value into a LogLevel, defaulting to info
func ParseLevel(value string) LogLevel {
	level := LogLevel(strings.ToLower(strings.TrimSpace(value)))
	switch level {
	case LevelDebug, LevelWarn, LevelError:
		return level
	}
	return LevelInfo
}

func (l LogLevel) level() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config holds logger configuration
type Config struct {
	Level       LogLevel
	ServiceName string
	Environment string
	Version     string
	Output      io.Writer
	AddSource   bool
}

// DefaultConfig returns a default logger configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		Level:       LevelInfo,
		ServiceName: serviceName,
		Environment: getEnv("ENVIRONMENT", "development"),
		Version:     getEnv("VERSION", "unknown"),
		Output:      os.Stdout,
	}
}

// Logger is a JSON slog.Logger tagged with the service identity. Records
// logged with a context also carry the request scoped ids found in it.
type Logger struct {
	*slog.Logger
}

// redacted lists attribute keys whose values never reach the log
var redacted = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"authorization": {},
	"signature":     {},
}

// New creates a Logger writing one JSON object per line
func New(config *Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level:       config.Level.level(),
		AddSource:   config.AddSource,
		ReplaceAttr: replaceAttr,
	})

	return &Logger{Logger: slog.New(contextHandler{Handler: handler}).With(
		"service", config.ServiceName,
		"environment", config.Environment,
		"version", config.Version,
	)}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redacted[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(a.Key, a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithContext binds the request scoped ids in ctx, for call sites that log
// without passing ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return l
	}
	return l.with(attrs...)
}

// WithFields adds arbitrary key/value pairs
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// WithError adds an error attribute
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// WithComponent tags log lines with the emitting component
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// BusinessEvent describes a domain level occurrence worth a log line of its own
type BusinessEvent struct {
	EventType  string
	EntityType string
	EntityID   string
	Action     string
	RelatedIDs map[string]string
	Details    map[string]any
}

// LogBusinessEvent emits a structured business event
func (l *Logger) LogBusinessEvent(ctx context.Context, event BusinessEvent) {
	attrs := []slog.Attr{
		slog.String("eventType", event.EventType),
		slog.String("entityType", event.EntityType),
		slog.String("entityId", event.EntityID),
		slog.String("action", event.Action),
	}
	if len(event.RelatedIDs) > 0 {
		attrs = append(attrs, slog.Any("relatedIds", event.RelatedIDs))
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, slog.Any("details", event.Details))
	}
	l.LogAttrs(ctx, slog.LevelInfo, "Business event", attrs...)
}

// Audit logs a security relevant action performed by a principal
func (l *Logger) Audit(ctx context.Context, action, resource, resourceID, actor string, details map[string]any) {
	l.LogAttrs(ctx, slog.LevelInfo, "Audit",
		slog.Bool("audit", true),
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resourceId", resourceID),
		slog.String("actor", actor),
		slog.Any("details", details),
	)
}

// HTTPRequest logs a completed request at a level derived from its status
func (l *Logger) HTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	l.LogAttrs(ctx, level, "HTTP request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Int64("durationMs", duration.Milliseconds()),
	)
}

// SetDefault installs l as the process wide slog default
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
