package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Event types, published as CloudEvent types
const (
	EventOrderPlaced          = "shopfront.order.placed"
	EventOrderStatusChanged   = "shopfront.order.status-changed"
	EventOrderCancelled       = "shopfront.order.cancelled"
	EventOrderReturned        = "shopfront.order.returned"
	EventOrderReturnRequested = "shopfront.order.return-requested"
	EventOrderReturnAccepted  = "shopfront.order.return-accepted"
	EventOrderReturnRejected  = "shopfront.order.return-rejected"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseDomainEvent contains common event fields
type BaseDomainEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateId string    `json:"aggregateId"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseDomainEvent) EventType() string     { return e.Type }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseDomainEvent) AggregateID() string   { return e.AggregateId }

func newBase(eventType, orderID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateId: orderID,
		Timestamp:   time.Now().UTC(),
	}
}

// OrderPlacedEvent is raised when an order is created
type OrderPlacedEvent struct {
	BaseDomainEvent
	OrderID        string        `json:"orderId"`
	UserID         string        `json:"userId"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	Total          float64       `json:"total"`
	DiscountPrice  float64       `json:"discountPrice"`
	Items          []CartLine    `json:"items"`
	GatewayOrderID string        `json:"gatewayOrderId,omitempty"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: newBase(EventOrderPlaced, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		PaymentMethod:   order.PaymentMethod,
		Total:           order.Total,
		DiscountPrice:   order.DiscountPrice,
		Items:           order.Carts,
		GatewayOrderID:  order.GatewayOrderID,
	}
}

// OrderStatusChangedEvent is raised by every accepted status transition.
// Cancellations and returns carry their own event type.
type OrderStatusChangedEvent struct {
	BaseDomainEvent
	OrderID       string        `json:"orderId"`
	UserID        string        `json:"userId"`
	From          OrderStatus   `json:"from"`
	To            OrderStatus   `json:"to"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Refund        float64       `json:"refund"`
	Restocked     []CartLine    `json:"restocked"`
}

// NewOrderStatusChangedEvent creates the event for a transition from -> order.Status
func NewOrderStatusChangedEvent(order *Order, from OrderStatus, settlement Settlement) *OrderStatusChangedEvent {
	eventType := EventOrderStatusChanged
	switch order.Status {
	case StatusCancelled:
		eventType = EventOrderCancelled
	case StatusReturned:
		eventType = EventOrderReturned
	}

	restocked := make([]CartLine, 0, len(settlement.Restock))
	for productID, qty := range settlement.Restock {
		restocked = append(restocked, CartLine{ProductID: productID, Quantity: qty})
	}
	sort.Slice(restocked, func(i, j int) bool { return restocked[i].ProductID < restocked[j].ProductID })

	return &OrderStatusChangedEvent{
		BaseDomainEvent: newBase(eventType, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		From:            from,
		To:              order.Status,
		PaymentMethod:   order.PaymentMethod,
		Refund:          settlement.Refund,
		Restocked:       restocked,
	}
}

// OrderReturnRequestedEvent is raised when a customer asks for a return
type OrderReturnRequestedEvent struct {
	BaseDomainEvent
	OrderID string      `json:"orderId"`
	UserID  string      `json:"userId"`
	Status  OrderStatus `json:"status"`
	Reason  string      `json:"reason"`
}

// NewOrderReturnRequestedEvent creates a new OrderReturnRequestedEvent
func NewOrderReturnRequestedEvent(order *Order) *OrderReturnRequestedEvent {
	return &OrderReturnRequestedEvent{
		BaseDomainEvent: newBase(EventOrderReturnRequested, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		Reason:          order.Return.Reason,
	}
}

// OrderReturnResolvedEvent is raised when an admin accepts or rejects a return
type OrderReturnResolvedEvent struct {
	BaseDomainEvent
	OrderID string      `json:"orderId"`
	UserID  string      `json:"userId"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// NewOrderReturnResolvedEvent creates the accepted or rejected event
func NewOrderReturnResolvedEvent(order *Order, from OrderStatus) *OrderReturnResolvedEvent {
	eventType := EventOrderReturnRejected
	if order.Status == StatusReturnPickup {
		eventType = EventOrderReturnAccepted
	}
	return &OrderReturnResolvedEvent{
		BaseDomainEvent: newBase(eventType, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		From:            from,
		To:              order.Status,
	}
}
