package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusShipped        OrderStatus = "Shipped"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
	StatusReturned       OrderStatus = "Returned"
	StatusReturnPickup   OrderStatus = "returnPickup"
	StatusReturnRejected OrderStatus = "returnRejected"
)

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
		StatusReturned, StatusReturnPickup, StatusReturnRejected:
		return true
	default:
		return false
	}
}

// PaymentMethod represents how an order is paid
type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "COD"
	PaymentWallet   PaymentMethod = "Wallet"
	PaymentRazorPay PaymentMethod = "RazorPay"
)

// ParsePaymentMethod normalises user input, accepting the legacy "Razor Pay" label
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch strings.ReplaceAll(strings.TrimSpace(value), " ", "") {
	case "COD":
		return PaymentCOD, nil
	case "Wallet":
		return PaymentWallet, nil
	case "RazorPay":
		return PaymentRazorPay, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Refundable reports whether money was taken up front and is refunded to the wallet
func (p PaymentMethod) Refundable() bool {
	return p == PaymentWallet || p == PaymentRazorPay
}

// ReturnPolicy decides which orders accept a return request
type ReturnPolicy string

const (
	ReturnPolicyAny       ReturnPolicy = "any"
	ReturnPolicyDelivered ReturnPolicy = "delivered"
)

// ParseReturnPolicy parses a configured policy; empty means any
func ParseReturnPolicy(value string) (ReturnPolicy, error) {
	switch ReturnPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ReturnPolicyAny:
		return ReturnPolicyAny, nil
	case ReturnPolicyDelivered:
		return ReturnPolicyDelivered, nil
	default:
		return "", ErrInvalidReturnPolicy
	}
}

// AddressSnapshot is the delivery address copied into the order at placement
type AddressSnapshot struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Line1   string `bson:"line1" json:"line1"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	Pincode string `bson:"pincode" json:"pincode"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// ProductSnapshot is the product data copied into the order at placement
type ProductSnapshot struct {
	ProductID string  `bson:"productId" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

// CartLine is a product and quantity captured from the cart
type CartLine struct {
	ProductID string `bson:"productId" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// ReturnRequest records a customer's return request
type ReturnRequest struct {
	Requested   bool      `bson:"requested" json:"requested"`
	Reason      string    `bson:"reason" json:"reason"`
	RequestedAt time.Time `bson:"requestedAt" json:"requestedAt"`
}

// Order is the aggregate root of the order lifecycle
type Order struct {
	ID             string            `bson:"_id" json:"id"`
	UserID         string            `bson:"userId" json:"userId"`
	Address        AddressSnapshot   `bson:"address" json:"address"`
	Products       []ProductSnapshot `bson:"products" json:"products"`
	Carts          []CartLine        `bson:"carts" json:"carts"`
	Total          float64           `bson:"total" json:"total"`
	DiscountPrice  float64           `bson:"discountPrice" json:"discountPrice"`
	PaymentMethod  PaymentMethod     `bson:"paymentMethod" json:"paymentMethod"`
	Status         OrderStatus       `bson:"status" json:"status"`
	Return         *ReturnRequest    `bson:"return,omitempty" json:"return,omitempty"`
	GatewayOrderID string            `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt" json:"updatedAt"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewOrderParams carries the inputs of a placement
type NewOrderParams struct {
	UserID        string
	Address       AddressSnapshot
	Products      []ProductSnapshot
	Carts         []CartLine
	TotalPrice    float64
	SubTotal      float64
	PaymentMethod PaymentMethod
}

// NewOrder creates an order in Processing
func NewOrder(params NewOrderParams) (*Order, error) {
	if len(params.Carts) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range params.Carts {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if params.TotalPrice <= 0 {
		return nil, ErrInvalidTotal
	}
	discount := params.SubTotal - params.TotalPrice
	if discount < 0 {
		return nil, ErrNegativeDiscount
	}
	switch params.PaymentMethod {
	case PaymentCOD, PaymentWallet, PaymentRazorPay:
	default:
		return nil, ErrInvalidPaymentMethod
	}

	now := time.Now().UTC()
	order := &Order{
		ID:            "ORD-" + uuid.New().String()[:8],
		UserID:        params.UserID,
		Address:       params.Address,
		Products:      append([]ProductSnapshot(nil), params.Products...),
		Carts:         append([]CartLine(nil), params.Carts...),
		Total:         params.TotalPrice,
		DiscountPrice: discount,
		PaymentMethod: params.PaymentMethod,
		Status:        StatusProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
		domainEvents:  make([]DomainEvent, 0),
	}

	order.addDomainEvent(NewOrderPlacedEvent(order))
	return order, nil
}

// OwnedBy reports whether the order belongs to userID
func (o *Order) OwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

// AttachGatewayOrder records the gateway order created for this order
func (o *Order) AttachGatewayOrder(gatewayOrderID string) {
	o.GatewayOrderID = gatewayOrderID
	for _, e := range o.domainEvents {
		if placed, ok := e.(*OrderPlacedEvent); ok {
			placed.GatewayOrderID = gatewayOrderID
		}
	}
}

// Settlement lists the ledger effects of a transition
type Settlement struct {
	// Restock maps product id to units returned to stock
	Restock map[string]int
	// Refund is credited to the user's wallet
	Refund float64
}

// RestockUnits returns the total units returned to stock
func (s Settlement) RestockUnits() int {
	total := 0
	for _, qty := range s.Restock {
		total += qty
	}
	return total
}

// IsEmpty reports whether the settlement has no ledger effect
func (s Settlement) IsEmpty() bool {
	return len(s.Restock) == 0 && s.Refund == 0
}

// ChangeStatus applies a status transition and returns its ledger effects.
// The order is left untouched when the transition is rejected.
func (o *Order) ChangeStatus(target OrderStatus) (Settlement, error) {
	if !target.IsValid() {
		return Settlement{}, ErrInvalidStatus
	}

	var settlement Settlement
	switch o.Status {
	case StatusCancelled:
		return Settlement{}, ErrOrderCancelled
	case StatusDelivered:
		return Settlement{}, ErrOrderDelivered
	case StatusProcessing:
		switch target {
		case StatusShipped, StatusDelivered:
		case StatusCancelled:
			settlement.Restock = o.restockLines()
			settlement.Refund = o.refundAmount()
		case StatusReturned:
			settlement.Refund = o.refundAmount()
		default:
			return Settlement{}, transitionError(o.Status, target)
		}
	case StatusShipped:
		if target != StatusDelivered {
			return Settlement{}, transitionError(o.Status, target)
		}
	default:
		return Settlement{}, transitionError(o.Status, target)
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now().UTC()
	o.addDomainEvent(NewOrderStatusChangedEvent(o, from, settlement))

	return settlement, nil
}

// restockLines sums cart quantities per product id
func (o *Order) restockLines() map[string]int {
	restock := make(map[string]int, len(o.Carts))
	for _, line := range o.Carts {
		restock[line.ProductID] += line.Quantity
	}
	return restock
}

func (o *Order) refundAmount() float64 {
	if o.PaymentMethod.Refundable() {
		return o.Total
	}
	return 0
}

// RequestReturn records a return request without changing the status
func (o *Order) RequestReturn(reason string, policy ReturnPolicy) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReturnReasonRequired
	}
	if policy == ReturnPolicyDelivered && o.Status != StatusDelivered {
		return ErrReturnNotAllowed
	}

	now := time.Now().UTC()
	o.Return = &ReturnRequest{Requested: true, Reason: reason, RequestedAt: now}
	o.UpdatedAt = now
	o.addDomainEvent(NewOrderReturnRequestedEvent(o))
	return nil
}

// AcceptReturn schedules the return pickup
func (o *Order) AcceptReturn() {
	o.resolveReturn(StatusReturnPickup)
}

// RejectReturn rejects the return request
func (o *Order) RejectReturn() {
	o.resolveReturn(StatusReturnRejected)
}

func (o *Order) resolveReturn(status OrderStatus) {
	from := o.Status
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	o.addDomainEvent(NewOrderReturnResolvedEvent(o, from))
}

// DomainEvents returns pending domain events
func (o *Order) DomainEvents() []DomainEvent {
	return o.domainEvents
}

// ClearDomainEvents drops pending domain events once they are persisted
func (o *Order) ClearDomainEvents() {
	o.domainEvents = make([]DomainEvent, 0)
}

func (o *Order) addDomainEvent(event DomainEvent) {
	o.domainEvents = append(o.domainEvents, event)
}
