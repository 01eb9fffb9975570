package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/errors"
)

// retryAfterSeconds is advertised on retryable failures
const retryAfterSeconds = "5"

// APIErrorResponse is the body of every non-2xx response
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func writeError(c *gin.Context, appErr *errors.AppError, abort bool) {
	if appErr.Retryable() {
		c.Header("Retry-After", retryAfterSeconds)
	}
	body := APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
	if abort {
		c.AbortWithStatusJSON(appErr.HTTPStatus, body)
		return
	}
	c.JSON(appErr.HTTPStatus, body)
}

// ErrorResponder logs and writes handler errors
type ErrorResponder struct {
	ctx    *gin.Context
	logger *slog.Logger
}

// NewErrorResponder creates an ErrorResponder for one request
func NewErrorResponder(ctx *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{ctx: ctx, logger: logger}
}

// RespondWithError sends err, treating anything that is not an AppError as internal
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(errors.FromError(err))
}

// RespondWithAppError sends appErr
func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	logError(r.logger, r.ctx, appErr)
	writeError(r.ctx, appErr, false)
}

// RespondUnauthorized sends a 401
func (r *ErrorResponder) RespondUnauthorized(message string) {
	r.RespondWithAppError(errors.ErrUnauthorized(message))
}

// logError logs server faults at error level and client faults at warn
func logError(logger *slog.Logger, c *gin.Context, appErr *errors.AppError) {
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"requestId", GetRequestID(c),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, "details", appErr.Details)
	}
	logger.Log(c.Request.Context(), level, appErr.Message, attrs...)
}

// AbortWithAppError stops the handler chain with appErr
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	writeError(c, appErr, true)
}
