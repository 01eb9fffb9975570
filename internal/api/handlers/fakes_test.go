package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/pkg/api"
	"github.com/shopfront/order-platform/pkg/auth"
	"github.com/shopfront/order-platform/pkg/logging"
)

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("handlers-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (*auth.Principal, error) {
	switch token {
	case "user-token":
		return &auth.Principal{Subject: "user-1", Role: auth.RoleCustomer}, nil
	case "admin-token":
		return &auth.Principal{Subject: "admin-1", Role: auth.RoleAdmin, Username: "root"}, nil
	}
	return nil, errors.New("invalid token")
}

type fakePlacer struct {
	placeFn   func(context.Context, application.PlaceOrderCommand) (*application.OrderDTO, error)
	gatewayFn func(context.Context, application.PlaceGatewayOrderCommand) (*application.GatewayOrderDTO, error)
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, cmd application.PlaceOrderCommand) (*application.OrderDTO, error) {
	if f.placeFn != nil {
		return f.placeFn(ctx, cmd)
	}
	return sampleOrder(), nil
}

func (f *fakePlacer) PlaceGatewayOrder(ctx context.Context, cmd application.PlaceGatewayOrderCommand) (*application.GatewayOrderDTO, error) {
	if f.gatewayFn != nil {
		return f.gatewayFn(ctx, cmd)
	}
	order := sampleOrder()
	order.PaymentMethod = "RazorPay"
	order.GatewayOrderID = "order_gw1"
	return &application.GatewayOrderDTO{
		OrderID:        order.ID,
		GatewayOrderID: "order_gw1",
		Amount:         30000,
		Currency:       "INR",
		KeyID:          "rzp_test",
		Order:          *order,
	}, nil
}

type fakeLifecycle struct {
	changeFn func(context.Context, application.ChangeStatusCommand) (*application.OrderDTO, error)
	cancelFn func(context.Context, application.CancelOrderCommand) (*application.OrderDTO, error)
	returnFn func(context.Context, application.RequestReturnCommand) (*application.OrderDTO, error)
	resolved []application.ResolveReturnCommand
}

func (f *fakeLifecycle) ChangeStatus(ctx context.Context, cmd application.ChangeStatusCommand) (*application.OrderDTO, error) {
	if f.changeFn != nil {
		return f.changeFn(ctx, cmd)
	}
	order := sampleOrder()
	order.Status = cmd.Status
	return order, nil
}

func (f *fakeLifecycle) CancelOrder(ctx context.Context, cmd application.CancelOrderCommand) (*application.OrderDTO, error) {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, cmd)
	}
	order := sampleOrder()
	order.Status = "Cancelled"
	return order, nil
}

func (f *fakeLifecycle) RequestReturn(ctx context.Context, cmd application.RequestReturnCommand) (*application.OrderDTO, error) {
	if f.returnFn != nil {
		return f.returnFn(ctx, cmd)
	}
	order := sampleOrder()
	order.Return = &application.ReturnDTO{Requested: true, Reason: cmd.Reason, RequestedAt: time.Now().UTC()}
	return order, nil
}

func (f *fakeLifecycle) AcceptReturn(_ context.Context, cmd application.ResolveReturnCommand) (*application.OrderDTO, error) {
	f.resolved = append(f.resolved, cmd)
	order := sampleOrder()
	order.Status = "returnPickup"
	return order, nil
}

func (f *fakeLifecycle) RejectReturn(_ context.Context, cmd application.ResolveReturnCommand) (*application.OrderDTO, error) {
	f.resolved = append(f.resolved, cmd)
	order := sampleOrder()
	order.Status = "returnRejected"
	return order, nil
}

type fakeReader struct {
	listUserFn func(context.Context, application.ListUserOrdersQuery) (*api.PageResponse[application.OrderDTO], error)
	getUserFn  func(context.Context, application.GetUserOrderQuery) (*application.OrderDTO, error)
	listFn     func(context.Context, application.ListOrdersQuery) (*api.PageResponse[application.OrderDTO], error)
	reportFn   func(context.Context, application.SalesReportQuery) (*application.SalesReportDTO, error)
}

func (f *fakeReader) ListUserOrders(ctx context.Context, query application.ListUserOrdersQuery) (*api.PageResponse[application.OrderDTO], error) {
	if f.listUserFn != nil {
		return f.listUserFn(ctx, query)
	}
	page := api.NewPageResponse([]application.OrderDTO{*sampleOrder()}, query.Page, query.PageSize, 1)
	return &page, nil
}

func (f *fakeReader) GetUserOrder(ctx context.Context, query application.GetUserOrderQuery) (*application.OrderDTO, error) {
	if f.getUserFn != nil {
		return f.getUserFn(ctx, query)
	}
	return sampleOrder(), nil
}

func (f *fakeReader) ListOrders(ctx context.Context, query application.ListOrdersQuery) (*api.PageResponse[application.OrderDTO], error) {
	if f.listFn != nil {
		return f.listFn(ctx, query)
	}
	page := api.NewPageResponse([]application.OrderDTO{}, query.Page, query.PageSize, 0)
	return &page, nil
}

func (f *fakeReader) GetOrderDetails(_ context.Context, orderID string) (*application.OrderDetailsDTO, error) {
	order := sampleOrder()
	order.ID = orderID
	return &application.OrderDetailsDTO{
		Order: *order,
		User:  &application.UserDTO{ID: "user-1", Name: "Asha", Email: "asha@example.com"},
	}, nil
}

func (f *fakeReader) SalesReport(ctx context.Context, query application.SalesReportQuery) (*application.SalesReportDTO, error) {
	if f.reportFn != nil {
		return f.reportFn(ctx, query)
	}
	status := query.Status
	if status == "" {
		status = "Delivered"
	}
	return &application.SalesReportDTO{
		Status: status,
		Rows: []application.SalesReportRowDTO{{
			OrderID: "ORD-1a2b3c4d", UserName: "Asha", UserEmail: "asha@example.com",
			Total: 300, DiscountPrice: 20, PaymentMethod: "Wallet", CreatedAt: time.Now().UTC(),
		}},
		Summary: application.SalesSummaryDTO{OrderCount: 1, GrossTotal: 300, TotalDiscount: 20},
	}, nil
}

type fakeLedger struct {
	balanceFn func(context.Context, string) (*application.WalletDTO, error)
	stockFn   func(context.Context, string) (*application.StockDTO, error)
}

func (f *fakeLedger) GetBalance(ctx context.Context, userID string) (*application.WalletDTO, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, userID)
	}
	return &application.WalletDTO{UserID: userID, Amount: 0, Exists: false}, nil
}

func (f *fakeLedger) GetStock(ctx context.Context, productID string) (*application.StockDTO, error) {
	if f.stockFn != nil {
		return f.stockFn(ctx, productID)
	}
	return &application.StockDTO{ProductID: productID, Name: "Kettle", Stock: 7}, nil
}

type fakeAuthenticator struct {
	loginFn func(context.Context, application.LoginCommand) (*application.TokenDTO, error)
}

func (f *fakeAuthenticator) Login(ctx context.Context, cmd application.LoginCommand) (*application.TokenDTO, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, cmd)
	}
	return &application.TokenDTO{AccessToken: "jwt", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour).UTC()}, nil
}

func sampleOrder() *application.OrderDTO {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &application.OrderDTO{
		ID:     "ORD-1a2b3c4d",
		UserID: "user-1",
		Address: application.AddressDTO{
			ID: "addr-1", Name: "Asha", Line1: "12 MG Road", City: "Pune", State: "MH", Pincode: "411001",
		},
		Products:      []application.ProductDTO{{ProductID: "P1", Name: "Kettle", Price: 150}},
		Items:         []application.CartLineDTO{{ProductID: "P1", Quantity: 2}},
		Total:         300,
		DiscountPrice: 0,
		PaymentMethod: "Wallet",
		Status:        "Processing",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
