package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestParams(method PaymentMethod) NewOrderParams {
	return NewOrderParams{
		UserID:  "user-1",
		Address: AddressSnapshot{ID: "addr-1", Name: "Asha", Line1: "12 MG Road", City: "Kochi", State: "KL", Pincode: "682001"},
		Products: []ProductSnapshot{
			{ProductID: "p1", Name: "Kettle", Price: 100},
			{ProductID: "p2", Name: "Mug", Price: 50},
		},
		Carts: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 2},
		},
		TotalPrice:    300,
		SubTotal:      300,
		PaymentMethod: method,
	}
}

func createTestOrder(t *testing.T, method PaymentMethod, status OrderStatus) *Order {
	t.Helper()
	order, err := NewOrder(createTestParams(method))
	require.NoError(t, err)
	order.Status = status
	order.ClearDomainEvents()
	return order
}

func TestNewOrder(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(p *NewOrderParams)
		expectError error
	}{
		{name: "Valid order creation", mutate: func(*NewOrderParams) {}},
		{name: "Empty cart", mutate: func(p *NewOrderParams) { p.Carts = nil }, expectError: ErrEmptyCart},
		{name: "Zero total", mutate: func(p *NewOrderParams) { p.TotalPrice = 0 }, expectError: ErrInvalidTotal},
		{name: "Negative discount", mutate: func(p *NewOrderParams) { p.SubTotal = 250 }, expectError: ErrNegativeDiscount},
		{name: "Unknown payment method", mutate: func(p *NewOrderParams) { p.PaymentMethod = "Cheque" }, expectError: ErrInvalidPaymentMethod},
		{name: "Non positive quantity", mutate: func(p *NewOrderParams) { p.Carts[0].Quantity = 0 }, expectError: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := createTestParams(PaymentWallet)
			tt.mutate(&params)

			order, err := NewOrder(params)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Regexp(t, `^ORD-[0-9a-f]{8}$`, order.ID)
			assert.Equal(t, StatusProcessing, order.Status)
			assert.Equal(t, 300.0, order.Total)
			assert.Equal(t, 0.0, order.DiscountPrice)
			assert.NotZero(t, order.CreatedAt)

			events := order.DomainEvents()
			require.Len(t, events, 1)
			placed, ok := events[0].(*OrderPlacedEvent)
			require.True(t, ok)
			assert.Equal(t, EventOrderPlaced, placed.EventType())
			assert.Equal(t, order.ID, placed.AggregateID())
		})
	}
}

func TestNewOrder_Discount(t *testing.T) {
	params := createTestParams(PaymentCOD)
	params.SubTotal = 350

	order, err := NewOrder(params)
	require.NoError(t, err)
	assert.Equal(t, 50.0, order.DiscountPrice)
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    PaymentMethod
		wantErr bool
	}{
		{in: "COD", want: PaymentCOD},
		{in: "Wallet", want: PaymentWallet},
		{in: "RazorPay", want: PaymentRazorPay},
		{in: "Razor Pay", want: PaymentRazorPay},
		{in: "card", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePaymentMethod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrder_ChangeStatus(t *testing.T) {
	tests := []struct {
		name          string
		method        PaymentMethod
		from          OrderStatus
		to            OrderStatus
		expectError   error
		expectRefund  float64
		expectRestock map[string]int
		expectEvent   string
	}{
		{name: "Processing to Shipped", method: PaymentCOD, from: StatusProcessing, to: StatusShipped, expectEvent: EventOrderStatusChanged},
		{name: "Processing to Delivered", method: PaymentWallet, from: StatusProcessing, to: StatusDelivered, expectEvent: EventOrderStatusChanged},
		{
			name: "Cancel wallet order restocks and refunds", method: PaymentWallet, from: StatusProcessing, to: StatusCancelled,
			expectRefund: 300, expectRestock: map[string]int{"p1": 2, "p2": 2}, expectEvent: EventOrderCancelled,
		},
		{
			name: "Cancel RazorPay order refunds", method: PaymentRazorPay, from: StatusProcessing, to: StatusCancelled,
			expectRefund: 300, expectRestock: map[string]int{"p1": 2, "p2": 2}, expectEvent: EventOrderCancelled,
		},
		{
			name: "Cancel COD order restocks only", method: PaymentCOD, from: StatusProcessing, to: StatusCancelled,
			expectRestock: map[string]int{"p1": 2, "p2": 2}, expectEvent: EventOrderCancelled,
		},
		{name: "Return wallet order refunds", method: PaymentWallet, from: StatusProcessing, to: StatusReturned, expectRefund: 300, expectEvent: EventOrderReturned},
		{name: "Return COD order has no money effect", method: PaymentCOD, from: StatusProcessing, to: StatusReturned, expectEvent: EventOrderReturned},
		{name: "Shipped to Delivered", method: PaymentCOD, from: StatusShipped, to: StatusDelivered, expectEvent: EventOrderStatusChanged},
		{name: "Cancelled is terminal", method: PaymentWallet, from: StatusCancelled, to: StatusProcessing, expectError: ErrOrderCancelled},
		{name: "Cancelled cannot be cancelled again", method: PaymentWallet, from: StatusCancelled, to: StatusCancelled, expectError: ErrOrderCancelled},
		{name: "Delivered is terminal", method: PaymentWallet, from: StatusDelivered, to: StatusCancelled, expectError: ErrOrderDelivered},
		{name: "Shipped cannot be cancelled", method: PaymentWallet, from: StatusShipped, to: StatusCancelled, expectError: ErrInvalidTransition},
		{name: "Returned cannot move", method: PaymentWallet, from: StatusReturned, to: StatusShipped, expectError: ErrInvalidTransition},
		{name: "Processing to returnPickup is not a status change", method: PaymentCOD, from: StatusProcessing, to: StatusReturnPickup, expectError: ErrInvalidTransition},
		{name: "Unknown target", method: PaymentCOD, from: StatusProcessing, to: OrderStatus("Lost"), expectError: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := createTestOrder(t, tt.method, tt.from)
			before := *order

			settlement, err := order.ChangeStatus(tt.to)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.True(t, settlement.IsEmpty())
				assert.Equal(t, before.Status, order.Status)
				assert.Empty(t, order.DomainEvents())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, order.Status)
			assert.Equal(t, tt.expectRefund, settlement.Refund)
			if tt.expectRestock == nil {
				assert.Empty(t, settlement.Restock)
			} else {
				assert.Equal(t, tt.expectRestock, settlement.Restock)
			}

			events := order.DomainEvents()
			require.Len(t, events, 1)
			changed, ok := events[0].(*OrderStatusChangedEvent)
			require.True(t, ok)
			assert.Equal(t, tt.expectEvent, changed.EventType())
			assert.Equal(t, tt.from, changed.From)
			assert.Equal(t, tt.to, changed.To)
			assert.Equal(t, tt.expectRefund, changed.Refund)
		})
	}
}

func TestOrder_ChangeStatus_TransitionMessages(t *testing.T) {
	order := createTestOrder(t, PaymentCOD, StatusCancelled)
	_, err := order.ChangeStatus(StatusShipped)
	assert.EqualError(t, err, "invalid status transition: cannot edit cancelled order")

	order = createTestOrder(t, PaymentCOD, StatusDelivered)
	_, err = order.ChangeStatus(StatusShipped)
	assert.EqualError(t, err, "invalid status transition: cannot edit delivered order")

	order = createTestOrder(t, PaymentCOD, StatusShipped)
	_, err = order.ChangeStatus(StatusReturned)
	assert.EqualError(t, err, "invalid status transition: cannot change order from Shipped to Returned")
}

func TestOrder_ChangeStatus_RestockSumsSharedProducts(t *testing.T) {
	params := createTestParams(PaymentCOD)
	params.Carts = []CartLine{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	}
	order, err := NewOrder(params)
	require.NoError(t, err)

	settlement, err := order.ChangeStatus(StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 5, "p2": 1}, settlement.Restock)
	assert.Equal(t, 6, settlement.RestockUnits())

	changed := order.DomainEvents()[1].(*OrderStatusChangedEvent)
	assert.Equal(t, []CartLine{{ProductID: "p1", Quantity: 5}, {ProductID: "p2", Quantity: 1}}, changed.Restocked)
}

func TestOrder_RequestReturn(t *testing.T) {
	tests := []struct {
		name        string
		status      OrderStatus
		policy      ReturnPolicy
		reason      string
		expectError error
	}{
		{name: "Any policy accepts processing order", status: StatusProcessing, policy: ReturnPolicyAny, reason: "wrong size"},
		{name: "Delivered policy accepts delivered order", status: StatusDelivered, policy: ReturnPolicyDelivered, reason: "damaged"},
		{name: "Delivered policy rejects shipped order", status: StatusShipped, policy: ReturnPolicyDelivered, reason: "late", expectError: ErrReturnNotAllowed},
		{name: "Blank reason", status: StatusDelivered, policy: ReturnPolicyAny, reason: "   ", expectError: ErrReturnReasonRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := createTestOrder(t, PaymentWallet, tt.status)

			err := order.RequestReturn(tt.reason, tt.policy)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, order.Return)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, order.Return)
			assert.True(t, order.Return.Requested)
			assert.Equal(t, tt.reason, order.Return.Reason)
			assert.Equal(t, tt.status, order.Status)
			require.Len(t, order.DomainEvents(), 1)
			assert.Equal(t, EventOrderReturnRequested, order.DomainEvents()[0].EventType())
		})
	}
}

func TestOrder_ResolveReturn(t *testing.T) {
	order := createTestOrder(t, PaymentWallet, StatusDelivered)
	order.AcceptReturn()
	assert.Equal(t, StatusReturnPickup, order.Status)
	assert.Equal(t, EventOrderReturnAccepted, order.DomainEvents()[0].EventType())

	order = createTestOrder(t, PaymentWallet, StatusDelivered)
	order.RejectReturn()
	assert.Equal(t, StatusReturnRejected, order.Status)
	resolved := order.DomainEvents()[0].(*OrderReturnResolvedEvent)
	assert.Equal(t, EventOrderReturnRejected, resolved.EventType())
	assert.Equal(t, StatusDelivered, resolved.From)
}

func TestParseReturnPolicy(t *testing.T) {
	p, err := ParseReturnPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ReturnPolicyAny, p)

	p, err = ParseReturnPolicy("Delivered")
	require.NoError(t, err)
	assert.Equal(t, ReturnPolicyDelivered, p)

	_, err = ParseReturnPolicy("never")
	assert.ErrorIs(t, err, ErrInvalidReturnPolicy)
}

func TestOrder_AttachGatewayOrder(t *testing.T) {
	order, err := NewOrder(createTestParams(PaymentRazorPay))
	require.NoError(t, err)

	order.AttachGatewayOrder("order_Rz123")
	assert.Equal(t, "order_Rz123", order.GatewayOrderID)
	assert.Equal(t, "order_Rz123", order.DomainEvents()[0].(*OrderPlacedEvent).GatewayOrderID)
}
