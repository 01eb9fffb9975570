package domain

import "context"

// GatewayOrderRequest asks the payment provider to open an order
type GatewayOrderRequest struct {
	// AmountMinor is the amount in currency minor units
	AmountMinor int64
	Currency    string
	Receipt     string
}

// GatewayOrder is the provider side order
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	KeyID    string
}

// PaymentGateway opens orders at the online payment provider
type PaymentGateway interface {
	CreateGatewayOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
}
