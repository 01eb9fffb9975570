package application

import (
	"context"
	"fmt"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/api"
	"github.com/shopfront/order-platform/pkg/logging"
)

const (
	// DefaultUserPageSize is the customer order history page size
	DefaultUserPageSize int64 = 8
	// DefaultAdminPageSize is the admin listing page size
	DefaultAdminPageSize int64 = 5
)

// OrderQueryService serves read only order views
type OrderQueryService struct {
	orders domain.OrderRepository
	users  domain.UserDirectory
	logger *logging.Logger
}

// NewOrderQueryService creates a new OrderQueryService
func NewOrderQueryService(orders domain.OrderRepository, users domain.UserDirectory, logger *logging.Logger) *OrderQueryService {
	return &OrderQueryService{
		orders: orders,
		users:  users,
		logger: logger.WithComponent("order-queries"),
	}
}

// ListUserOrders returns one page of the caller's orders
func (s *OrderQueryService) ListUserOrders(ctx context.Context, query ListUserOrdersQuery) (*api.PageResponse[OrderDTO], error) {
	page := domain.NewPagination(query.Page, query.PageSize, DefaultUserPageSize)

	orders, total, err := s.orders.FindByUser(ctx, query.UserID, page, domain.ParseSortOrder(query.Sort))
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to list orders: %w", err),
			"Failed to list user orders", "userId", query.UserID)
	}

	result := api.NewPageResponse(ToOrderDTOs(orders), page.Page, page.PageSize, total)
	return &result, nil
}

// GetUserOrder returns one of the caller's orders
func (s *OrderQueryService) GetUserOrder(ctx context.Context, query GetUserOrderQuery) (*OrderDTO, error) {
	order, err := s.orders.FindByID(ctx, query.OrderID)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to get order: %w", err),
			"Failed to get order", "orderId", query.OrderID)
	}
	if order == nil || !order.OwnedBy(query.UserID) {
		return nil, mapDomainError(domain.ErrOrderNotFound)
	}
	return ToOrderDTO(order), nil
}

// ListOrders returns one page of all orders, optionally filtered by status
func (s *OrderQueryService) ListOrders(ctx context.Context, query ListOrdersQuery) (*api.PageResponse[OrderDTO], error) {
	filter := domain.OrderFilter{Sort: domain.ParseSortOrder(query.Sort)}
	if query.Status != "" {
		status := domain.OrderStatus(query.Status)
		if !status.IsValid() {
			return nil, mapDomainError(fmt.Errorf("%w: %s", domain.ErrInvalidStatus, query.Status))
		}
		filter.Status = &status
	}

	page := domain.NewPagination(query.Page, query.PageSize, DefaultAdminPageSize)
	orders, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to list orders: %w", err), "Failed to list orders")
	}

	result := api.NewPageResponse(ToOrderDTOs(orders), page.Page, page.PageSize, total)
	return &result, nil
}

// GetOrderDetails returns an order with its customer
func (s *OrderQueryService) GetOrderDetails(ctx context.Context, orderID string) (*OrderDetailsDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to get order: %w", err),
			"Failed to get order", "orderId", orderID)
	}
	if order == nil {
		return nil, mapDomainError(domain.ErrOrderNotFound)
	}

	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to get user: %w", err),
			"Failed to get order user", "orderId", orderID, "userId", order.UserID)
	}

	return &OrderDetailsDTO{Order: *ToOrderDTO(order), User: ToUserDTO(user)}, nil
}

// SalesReport lists delivered or cancelled orders with their customers
func (s *OrderQueryService) SalesReport(ctx context.Context, query SalesReportQuery) (*SalesReportDTO, error) {
	status := domain.StatusDelivered
	if query.Status != "" {
		status = domain.OrderStatus(query.Status)
	}
	if status != domain.StatusDelivered && status != domain.StatusCancelled {
		return nil, mapDomainError(fmt.Errorf("%w: sales report supports Delivered or Cancelled, got %s",
			domain.ErrInvalidStatus, query.Status))
	}

	orders, err := s.orders.FindByStatus(ctx, status)
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("failed to list orders: %w", err),
			"Failed to build sales report", "status", status)
	}

	userIDs := make([]string, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
	}

	users := map[string]*domain.User{}
	if len(userIDs) > 0 {
		found, err := s.users.FindManyByIDs(ctx, userIDs)
		if err != nil {
			return nil, fail(ctx, s.logger, fmt.Errorf("failed to get users: %w", err),
				"Failed to build sales report", "status", status)
		}
		for _, u := range found {
			users[u.ID] = u
		}
	}

	report := &SalesReportDTO{
		Status: string(status),
		Rows:   make([]SalesReportRowDTO, 0, len(orders)),
	}
	for _, o := range orders {
		row := SalesReportRowDTO{
			OrderID:       o.ID,
			Total:         o.Total,
			DiscountPrice: o.DiscountPrice,
			PaymentMethod: string(o.PaymentMethod),
			CreatedAt:     o.CreatedAt,
		}
		if u, ok := users[o.UserID]; ok {
			row.UserName = u.Name
			row.UserEmail = u.Email
		}
		report.Rows = append(report.Rows, row)
		report.Summary.OrderCount++
		report.Summary.GrossTotal += o.Total
		report.Summary.TotalDiscount += o.DiscountPrice
	}

	return report, nil
}
