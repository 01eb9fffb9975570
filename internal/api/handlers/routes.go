package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/middleware"
)

// Routes bundles what the /api/v1 tree needs
type Routes struct {
	Orders        *OrderHandler
	Admin         *AdminHandler
	Authenticator Authenticator
	Ledger        LedgerReader
	Verifier      middleware.TokenVerifier
	// Idempotency guards order placement; nil disables it
	Idempotency gin.HandlerFunc
	Logger      *logging.Logger
}

// RegisterRoutes mounts the API under /api/v1
func RegisterRoutes(router gin.IRouter, routes Routes) {
	v1 := router.Group("/api/v1")

	v1.POST("/admin/login", Login(routes.Authenticator, routes.Logger))

	idempotent := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if routes.Idempotency == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{routes.Idempotency, h}
	}

	customer := v1.Group("", middleware.Authenticate(routes.Verifier), middleware.RequireRole(auth.RoleCustomer))
	{
		customer.POST("/orders", idempotent(routes.Orders.PlaceOrder)...)
		customer.POST("/orders/gateway", idempotent(routes.Orders.PlaceGatewayOrder)...)
		customer.GET("/orders", routes.Orders.ListOrders)
		customer.GET("/orders/:orderId", routes.Orders.GetOrder)
		customer.POST("/orders/:orderId/cancel", routes.Orders.CancelOrder)
		customer.POST("/orders/:orderId/return", routes.Orders.RequestReturn)
		customer.GET("/wallet", GetWallet(routes.Ledger, routes.Logger))
	}

	admin := v1.Group("/admin", middleware.Authenticate(routes.Verifier), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/orders", routes.Admin.ListOrders)
		admin.GET("/orders/:orderId", routes.Admin.GetOrder)
		admin.PUT("/orders/:orderId/status", routes.Admin.ChangeStatus)
		admin.POST("/orders/:orderId/return/accept", routes.Admin.AcceptReturn)
		admin.POST("/orders/:orderId/return/reject", routes.Admin.RejectReturn)
		admin.GET("/reports/sales", routes.Admin.SalesReport)
		admin.GET("/products/:productId/stock", routes.Admin.GetStock)
	}
}
