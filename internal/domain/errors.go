package domain

import (
	"errors"
	"fmt"
)

// Lookup failures
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Lifecycle failures. ErrConcurrentUpdate means another transition changed the order first.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderCancelled    = fmt.Errorf("%w: cannot edit cancelled order", ErrInvalidTransition)
	ErrOrderDelivered    = fmt.Errorf("%w: cannot edit delivered order", ErrInvalidTransition)
	ErrConcurrentUpdate  = fmt.Errorf("%w: order was modified concurrently", ErrInvalidTransition)
)

// ErrCartChanged means the cart was modified between the checkout read and its clear
var ErrCartChanged = errors.New("cart changed during checkout")

// Settlement failures
var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrPaymentGateway      = errors.New("payment gateway error")
)

// Validation failures
var (
	ErrValidation           = errors.New("validation failed")
	ErrEmptyCart            = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidTotal         = fmt.Errorf("%w: total price must be positive", ErrValidation)
	ErrNegativeDiscount     = fmt.Errorf("%w: sub total must not be below total price", ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: invalid payment method", ErrValidation)
	ErrGatewayCheckout      = fmt.Errorf("%w: RazorPay orders are placed through the gateway checkout", ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: invalid order status", ErrValidation)
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrReturnReasonRequired = fmt.Errorf("%w: return reason is required", ErrValidation)
	ErrReturnNotAllowed     = fmt.Errorf("%w: return can only be requested for delivered orders", ErrValidation)
	ErrInvalidReturnPolicy  = fmt.Errorf("%w: invalid return request policy", ErrValidation)
)

// ErrInvalidCredentials is returned for any failed admin login
var ErrInvalidCredentials = errors.New("invalid credentials")

func transitionError(from, to OrderStatus) error {
	return fmt.Errorf("%w: cannot change order from %s to %s", ErrInvalidTransition, from, to)
}
