package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in API error bodies
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "RESOURCE_NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeBadRequest          = "BAD_REQUEST"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodePaymentGateway      = "PAYMENT_GATEWAY_ERROR"
)

// Kind is a class of failure: its code, HTTP status and whether the client
// may retry the identical request
type Kind struct {
	Code      string
	Status    int
	Retryable bool
}

var (
	KindValidation          = Kind{Code: CodeValidationError, Status: http.StatusBadRequest}
	KindBadRequest          = Kind{Code: CodeBadRequest, Status: http.StatusBadRequest}
	KindUnauthorized        = Kind{Code: CodeUnauthorized, Status: http.StatusUnauthorized}
	KindForbidden           = Kind{Code: CodeForbidden, Status: http.StatusForbidden}
	KindNotFound            = Kind{Code: CodeNotFound, Status: http.StatusNotFound}
	KindConflict            = Kind{Code: CodeConflict, Status: http.StatusConflict}
	KindInsufficientBalance = Kind{Code: CodeInsufficientBalance, Status: http.StatusUnprocessableEntity}
	KindInternal            = Kind{Code: CodeInternalError, Status: http.StatusInternalServerError}
	KindPaymentGateway      = Kind{Code: CodePaymentGateway, Status: http.StatusBadGateway, Retryable: true}
	KindServiceUnavailable  = Kind{Code: CodeServiceUnavailable, Status: http.StatusServiceUnavailable, Retryable: true}
)

// AppError is an error safe to show to API clients. Err holds the cause for
// logs and is never serialised.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`

	retryable bool
}

// New creates an AppError of kind
func New(kind Kind, message string) *AppError {
	return &AppError{
		Code:       kind.Code,
		Message:    message,
		HTTPStatus: kind.Status,
		retryable:  kind.Retryable,
	}
}

// NewAppError creates an AppError with a code outside the predefined kinds
func NewAppError(code, message string, httpStatus int) *AppError {
	return New(Kind{Code: code, Status: httpStatus}, message)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so errors.Is(err, ErrNotFound(""))
// holds for every not found error
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Retryable reports whether repeating the request may succeed
func (e *AppError) Retryable() bool {
	return e.retryable
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func ErrValidation(message string) *AppError {
	return New(KindValidation, message)
}

// ErrValidationWithFields carries one message per invalid field
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	err := New(KindValidation, message)
	err.Details = fields
	return err
}

func ErrBadRequest(message string) *AppError {
	return New(KindBadRequest, message)
}

func ErrNotFound(resource string) *AppError {
	return New(KindNotFound, resource+" not found")
}

func ErrConflict(message string) *AppError {
	return New(KindConflict, message)
}

func ErrUnauthorized(message string) *AppError {
	return New(KindUnauthorized, orDefault(message, "authentication required"))
}

func ErrForbidden(message string) *AppError {
	return New(KindForbidden, orDefault(message, "access denied"))
}

func ErrInternal(message string) *AppError {
	return New(KindInternal, orDefault(message, "an internal error occurred"))
}

func ErrServiceUnavailable(message string) *AppError {
	return New(KindServiceUnavailable, message)
}

// ErrInsufficientBalance is returned when a wallet cannot cover a debit
func ErrInsufficientBalance(message string) *AppError {
	return New(KindInsufficientBalance, message)
}

// ErrPaymentGateway is returned when the payment provider fails. The message
// is generic and the cause stays in Err for logs.
func ErrPaymentGateway(cause error) *AppError {
	return New(KindPaymentGateway, "payment could not be initiated, please retry").Wrap(cause)
}

// AsAppError extracts an AppError from err
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError converts any error into an AppError, defaulting to an internal error
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
