package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/pkg/api"
	"github.com/shopfront/order-platform/pkg/middleware"
)

// OrderPlacer places checkout orders
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, cmd application.PlaceOrderCommand) (*application.OrderDTO, error)
	PlaceGatewayOrder(ctx context.Context, cmd application.PlaceGatewayOrderCommand) (*application.GatewayOrderDTO, error)
}

// OrderLifecycle moves orders through their statuses
type OrderLifecycle interface {
	ChangeStatus(ctx context.Context, cmd application.ChangeStatusCommand) (*application.OrderDTO, error)
	CancelOrder(ctx context.Context, cmd application.CancelOrderCommand) (*application.OrderDTO, error)
	RequestReturn(ctx context.Context, cmd application.RequestReturnCommand) (*application.OrderDTO, error)
	AcceptReturn(ctx context.Context, cmd application.ResolveReturnCommand) (*application.OrderDTO, error)
	RejectReturn(ctx context.Context, cmd application.ResolveReturnCommand) (*application.OrderDTO, error)
}

// OrderReader serves order views
type OrderReader interface {
	ListUserOrders(ctx context.Context, query application.ListUserOrdersQuery) (*api.PageResponse[application.OrderDTO], error)
	GetUserOrder(ctx context.Context, query application.GetUserOrderQuery) (*application.OrderDTO, error)
	ListOrders(ctx context.Context, query application.ListOrdersQuery) (*api.PageResponse[application.OrderDTO], error)
	GetOrderDetails(ctx context.Context, orderID string) (*application.OrderDetailsDTO, error)
	SalesReport(ctx context.Context, query application.SalesReportQuery) (*application.SalesReportDTO, error)
}

// LedgerReader reads wallet balances and stock levels
type LedgerReader interface {
	GetBalance(ctx context.Context, userID string) (*application.WalletDTO, error)
	GetStock(ctx context.Context, productID string) (*application.StockDTO, error)
}

// Authenticator logs admins in
type Authenticator interface {
	Login(ctx context.Context, cmd application.LoginCommand) (*application.TokenDTO, error)
}

// CallerID returns the subject of the authenticated principal, or "" when the
// request is anonymous
func CallerID(c *gin.Context) string {
	if principal, ok := middleware.PrincipalFromGin(c); ok {
		return principal.Subject
	}
	return ""
}
