package application

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/errors"
	"github.com/shopfront/order-platform/pkg/logging"
)

// mapDomainError translates domain failures into transport level AppErrors.
// Anything unrecognised is an internal error with the cause kept for logs.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	switch {
	case stderrors.Is(err, domain.ErrOrderNotFound):
		return errors.ErrNotFound("order")
	case stderrors.Is(err, domain.ErrAddressNotFound):
		return errors.ErrNotFound("address")
	case stderrors.Is(err, domain.ErrProductNotFound):
		return errors.ErrNotFound("product")
	case stderrors.Is(err, domain.ErrUserNotFound):
		return errors.ErrNotFound("user")
	case stderrors.Is(err, domain.ErrCartChanged):
		return errors.ErrConflict(err.Error())
	case stderrors.Is(err, domain.ErrInvalidTransition):
		return errors.ErrConflict(err.Error())
	case stderrors.Is(err, domain.ErrInsufficientBalance):
		return errors.ErrInsufficientBalance(err.Error())
	case stderrors.Is(err, domain.ErrPaymentGateway):
		return errors.ErrPaymentGateway(err)
	case stderrors.Is(err, domain.ErrInvalidCredentials):
		return errors.ErrUnauthorized(err.Error())
	case stderrors.Is(err, domain.ErrValidation):
		return errors.ErrValidation(err.Error())
	default:
		return errors.ErrInternal("").Wrap(err)
	}
}

// fail maps err and logs it, at warn level for client errors
func fail(ctx context.Context, logger *logging.Logger, err error, msg string, args ...any) error {
	mapped := mapDomainError(err)
	l := logger.WithContext(ctx).WithError(err)
	if appErr, ok := errors.AsAppError(mapped); ok && appErr.HTTPStatus < http.StatusInternalServerError {
		l.Warn(msg, args...)
	} else {
		l.Error(msg, args...)
	}
	return mapped
}
