package dto

// PlaceOrderRequest is the checkout body for COD and Wallet orders. RazorPay
// orders go through PlaceGatewayOrderRequest.
type PlaceOrderRequest struct {
	AddressID     string  `json:"addressId" binding:"required,notblank" example:"ADDR-1"`
	PaymentMethod string  `json:"paymentMethod" binding:"required,checkout_method" example:"Wallet"`
	TotalPrice    float64 `json:"totalPrice" binding:"required,gt=0" example:"250"`
	SubTotal      float64 `json:"subTotal" binding:"required,gt=0" example:"300"`
}

// PlaceGatewayOrderRequest is the checkout body for RazorPay orders
type PlaceGatewayOrderRequest struct {
	AddressID  string  `json:"addressId" binding:"required,notblank" example:"ADDR-1"`
	TotalPrice float64 `json:"totalPrice" binding:"required,gt=0" example:"250"`
	SubTotal   float64 `json:"subTotal" binding:"required,gt=0" example:"300"`
}

// ReturnRequest carries the customer's return reason
type ReturnRequest struct {
	Reason string `json:"reason" binding:"required,notblank,max=1000" example:"Item arrived damaged"`
}

// ChangeStatusRequest is the admin status change body
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,order_status" example:"Shipped"`
}

// LoginRequest is the admin login body
type LoginRequest struct {
	Username string `json:"username" binding:"required,notblank" example:"admin"`
	Password string `json:"password" binding:"required" example:"secret"`
}

// ListOrdersParams are the listing query parameters
type ListOrdersParams struct {
	Sort   string `form:"sort" binding:"omitempty,oneof=recentOrders olderOrders"`
	Status string `form:"status" binding:"omitempty,order_status"`
}

// SalesReportParams are the report query parameters
type SalesReportParams struct {
	Status string `form:"status" binding:"omitempty,oneof=Delivered Cancelled"`
}
