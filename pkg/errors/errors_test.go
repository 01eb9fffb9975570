package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		err       *AppError
		code      string
		status    int
		message   string
		retryable bool
	}{
		{ErrValidation("bad"), CodeValidationError, http.StatusBadRequest, "bad", false},
		{ErrNotFound("order"), CodeNotFound, http.StatusNotFound, "order not found", false},
		{ErrConflict("cannot edit delivered order"), CodeConflict, http.StatusConflict, "cannot edit delivered order", false},
		{ErrUnauthorized(""), CodeUnauthorized, http.StatusUnauthorized, "authentication required", false},
		{ErrForbidden(""), CodeForbidden, http.StatusForbidden, "access denied", false},
		{ErrInternal(""), CodeInternalError, http.StatusInternalServerError, "an internal error occurred", false},
		{ErrInsufficientBalance("insufficient wallet balance"), CodeInsufficientBalance, http.StatusUnprocessableEntity, "insufficient wallet balance", false},
		{ErrServiceUnavailable("down"), CodeServiceUnavailable, http.StatusServiceUnavailable, "down", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestPaymentGatewayKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("razorpay returned 500: upstream timeout")
	err := ErrPaymentGateway(cause)

	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.NotContains(t, err.Message, "upstream timeout")
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())
}

func TestIsMatchesOnCode(t *testing.T) {
	wrapped := fmt.Errorf("load order: %w", ErrNotFound("order"))

	assert.ErrorIs(t, wrapped, ErrNotFound("product"))
	assert.NotErrorIs(t, wrapped, ErrConflict(""))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	conflict := ErrConflict("order was modified concurrently")
	assert.Same(t, conflict, FromError(fmt.Errorf("tx: %w", conflict)))

	internal := FromError(errors.New("connection reset"))
	require.NotNil(t, internal)
	assert.Equal(t, CodeInternalError, internal.Code)
	assert.EqualError(t, internal.Err, "connection reset")
}
