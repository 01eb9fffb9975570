package application

import "time"

// OrderDTO represents an order in responses
type OrderDTO struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Address        AddressDTO    `json:"address"`
	Products       []ProductDTO  `json:"products"`
	Items          []CartLineDTO `json:"items"`
	Total          float64       `json:"total"`
	DiscountPrice  float64       `json:"discountPrice"`
	PaymentMethod  string        `json:"paymentMethod"`
	Status         string        `json:"status"`
	Return         *ReturnDTO    `json:"return,omitempty"`
	GatewayOrderID string        `json:"gatewayOrderId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// AddressDTO represents the delivery address of an order
type AddressDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone,omitempty"`
}

// ProductDTO represents a product captured on an order
type ProductDTO struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
}

// CartLineDTO represents an ordered quantity
type CartLineDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ReturnDTO represents a return request
type ReturnDTO struct {
	Requested   bool      `json:"requested"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requestedAt"`
}

// GatewayOrderDTO is returned by gateway placement for client side checkout
type GatewayOrderDTO struct {
	OrderID        string   `json:"orderId"`
	GatewayOrderID string   `json:"gatewayOrderId"`
	Amount         int64    `json:"amount"`
	Currency       string   `json:"currency"`
	KeyID          string   `json:"keyId"`
	Order          OrderDTO `json:"order"`
}

// UserDTO represents a customer
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderDetailsDTO is the admin view of an order
type OrderDetailsDTO struct {
	Order OrderDTO `json:"order"`
	User  *UserDTO `json:"user,omitempty"`
}

// SalesReportRowDTO is one order in the sales report
type SalesReportRowDTO struct {
	OrderID       string    `json:"orderId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	Total         float64   `json:"total"`
	DiscountPrice float64   `json:"discountPrice"`
	PaymentMethod string    `json:"paymentMethod"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SalesSummaryDTO aggregates the report rows
type SalesSummaryDTO struct {
	OrderCount    int     `json:"orderCount"`
	GrossTotal    float64 `json:"grossTotal"`
	TotalDiscount float64 `json:"totalDiscount"`
}

// SalesReportDTO is the admin sales report
type SalesReportDTO struct {
	Status  string              `json:"status"`
	Rows    []SalesReportRowDTO `json:"rows"`
	Summary SalesSummaryDTO     `json:"summary"`
}

// StockDTO is a product's stock level
type StockDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}

// WalletDTO is a user's wallet balance
type WalletDTO struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
	Exists bool    `json:"exists"`
}

// TokenDTO is an issued access token
type TokenDTO struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
