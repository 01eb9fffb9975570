package idempotency

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shopfront/order-platform/pkg/errors"
	"github.com/shopfront/order-platform/pkg/middleware"
)

const (
	// HeaderIdempotencyKey is the request header carrying the client's key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed marks a response served from a stored record
	HeaderReplayed = "Idempotent-Replayed"
)

// Error codes returned by the middleware
const (
	CodeKeyInvalid        = "IDEMPOTENCY_KEY_INVALID"
	CodeParameterMismatch = "IDEMPOTENCY_PARAMETER_MISMATCH"
	CodeConcurrentRequest = "IDEMPOTENCY_CONCURRENT_REQUEST"
)

// responseWriter captures the response body for storage
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware makes the wrapped routes safe to retry. Requests without an
// Idempotency-Key header pass through unchanged.
func Middleware(config *Config) gin.HandlerFunc {
	config = config.withDefaults()

	return func(c *gin.Context) {
		key, err := ParseKey(c.GetHeader(HeaderIdempotencyKey), config.MaxKeyLength)
		if err != nil {
			middleware.AbortWithAppError(c, errors.NewAppError(CodeKeyInvalid, err.Error(), http.StatusBadRequest))
			return
		}
		if key == "" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		process(c, config, key, config.scope(c), Fingerprint(c.Request.Method, c.Request.URL.Path, body))
	}
}

func process(c *gin.Context, config *Config, key, userID, fingerprint string) {
	ctx := c.Request.Context()
	logger := config.Logger.WithContext(ctx).WithFields(map[string]any{
		"idempotencyKey": key,
		"path":           c.Request.URL.Path,
	})
	now := time.Now().UTC()

	record, isNew, err := config.Store.Acquire(ctx, &Record{
		ID:          uuid.New().String(),
		Key:         key,
		UserID:      userID,
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Fingerprint: fingerprint,
		LockedAt:    &now,
		CreatedAt:   now,
		ExpiresAt:   now.Add(config.RetentionPeriod),
	})
	if err != nil {
		logger.WithError(err).Error("Failed to acquire idempotency key")
		config.Metrics.RecordIdempotency("storage_error")
		middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency storage is temporarily unavailable"))
		return
	}

	if !isNew && record.Fingerprint != fingerprint {
		logger.Warn("Idempotency key reused with different parameters")
		config.Metrics.RecordIdempotency("mismatch")
		middleware.AbortWithAppError(c, errors.NewAppError(CodeParameterMismatch,
			"request parameters differ from the original request with this idempotency key", http.StatusUnprocessableEntity))
		return
	}

	if record.IsCompleted() {
		logger.Info("Replaying stored response", "statusCode", record.ResponseCode)
		config.Metrics.RecordIdempotency("replayed")
		for k, v := range record.ResponseHeaders {
			c.Header(k, v)
		}
		c.Header(HeaderReplayed, "true")
		c.Data(record.ResponseCode, "application/json; charset=utf-8", record.ResponseBody)
		c.Abort()
		return
	}

	if !isNew {
		locked, err := config.Store.Takeover(ctx, record.ID, now.Add(-config.LockTimeout))
		if err != nil {
			logger.WithError(err).Error("Failed to lock idempotency key")
			config.Metrics.RecordIdempotency("storage_error")
			middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency storage is temporarily unavailable"))
			return
		}
		if !locked {
			logger.Warn("Concurrent request with the same idempotency key")
			config.Metrics.RecordIdempotency("concurrent")
			middleware.AbortWithAppError(c, errors.NewAppError(CodeConcurrentRequest,
				"a request with this idempotency key is currently being processed", http.StatusConflict))
			return
		}
	}

	config.Metrics.RecordIdempotency("processed")

	writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
	c.Writer = writer
	c.Next()

	status := writer.Status()
	responseBody := writer.body.Bytes()

	// Server errors and oversized bodies are not cached; the key is freed for a retry.
	if status >= http.StatusInternalServerError || len(responseBody) > config.MaxResponseSize {
		if err := config.Store.Release(ctx, record.ID); err != nil {
			logger.WithError(err).Error("Failed to release idempotency key")
		}
		return
	}

	headers := make(map[string]string)
	for k, v := range writer.Header() {
		if len(v) > 0 && k != HeaderReplayed {
			headers[k] = v[0]
		}
	}

	if err := config.Store.Complete(ctx, record.ID, status, responseBody, headers); err != nil {
		logger.WithError(err).Error("Failed to store idempotent response")
		config.Metrics.RecordIdempotency("storage_error")
		return
	}
	logger.Debug("Stored idempotent response", "statusCode", status)
}
