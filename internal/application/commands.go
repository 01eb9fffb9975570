package application

// PlaceOrderCommand places an order from the user's cart
type PlaceOrderCommand struct {
	UserID        string
	AddressID     string
	PaymentMethod string
	TotalPrice    float64
	SubTotal      float64
}

// PlaceGatewayOrderCommand places a RazorPay order and opens it at the gateway
type PlaceGatewayOrderCommand struct {
	UserID     string
	AddressID  string
	TotalPrice float64
	SubTotal   float64
}

// ChangeStatusCommand is an admin status change
type ChangeStatusCommand struct {
	OrderID string
	Status  string
	Actor   string
}

// CancelOrderCommand is a customer cancellation
type CancelOrderCommand struct {
	UserID  string
	OrderID string
}

// RequestReturnCommand is a customer return request
type RequestReturnCommand struct {
	UserID  string
	OrderID string
	Reason  string
}

// ResolveReturnCommand accepts or rejects a return request
type ResolveReturnCommand struct {
	OrderID string
	Actor   string
}

// ListUserOrdersQuery lists the caller's orders
type ListUserOrdersQuery struct {
	UserID   string
	Page     int64
	PageSize int64
	Sort     string
}

// GetUserOrderQuery fetches one of the caller's orders
type GetUserOrderQuery struct {
	UserID  string
	OrderID string
}

// ListOrdersQuery lists all orders for admins
type ListOrdersQuery struct {
	Page     int64
	PageSize int64
	Status   string
	Sort     string
}

// SalesReportQuery selects the report population
type SalesReportQuery struct {
	Status string
}

// LoginCommand is an admin login attempt
type LoginCommand struct {
	Username string
	Password string
}
