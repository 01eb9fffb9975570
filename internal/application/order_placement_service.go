package application

import (
	"context"
	"fmt"
	"math"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
)

// DefaultCurrency is used for gateway orders when none is configured
const DefaultCurrency = "INR"

// OrderPlacementService turns a cart into an order
type OrderPlacementService struct {
	orders    domain.OrderRepository
	addresses domain.AddressBook
	carts     domain.CartStore
	products  domain.ProductCatalog
	ledger    *LedgerService
	gateway   domain.PaymentGateway
	tx        domain.Transactor
	currency  string
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// PlacementConfig holds placement settings
type PlacementConfig struct {
	Currency string
}

// PlacementDeps groups the collaborators of placement
type PlacementDeps struct {
	Orders    domain.OrderRepository
	Addresses domain.AddressBook
	Carts     domain.CartStore
	Products  domain.ProductCatalog
	Ledger    *LedgerService
	Gateway   domain.PaymentGateway
	Tx        domain.Transactor
}

// NewOrderPlacementService creates a new OrderPlacementService
func NewOrderPlacementService(deps PlacementDeps, config PlacementConfig, logger *logging.Logger, m *metrics.Metrics) *OrderPlacementService {
	currency := config.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &OrderPlacementService{
		orders:    deps.Orders,
		addresses: deps.Addresses,
		carts:     deps.Carts,
		products:  deps.Products,
		ledger:    deps.Ledger,
		gateway:   deps.Gateway,
		tx:        deps.Tx,
		currency:  currency,
		logger:    logger.WithComponent("order-placement"),
		metrics:   m,
	}
}

// PlaceOrder creates the order, clears the cart and, for wallet payment,
// debits the wallet. All three commit together.
func (s *OrderPlacementService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*OrderDTO, error) {
	method, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if method == domain.PaymentRazorPay {
		return nil, mapDomainError(domain.ErrGatewayCheckout)
	}

	order, err := s.buildOrder(ctx, cmd.UserID, cmd.AddressID, method, cmd.TotalPrice, cmd.SubTotal)
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to build order", "userId", cmd.UserID)
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return err
		}
		if err := s.clearCart(txCtx, order); err != nil {
			return err
		}
		if order.PaymentMethod == domain.PaymentWallet {
			return s.ledger.Debit(txCtx, order.UserID, order.Total)
		}
		return nil
	})
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to place order", "orderId", order.ID, "userId", order.UserID)
	}

	order.ClearDomainEvents()
	s.recordPlaced(ctx, order)
	return ToOrderDTO(order), nil
}

// PlaceGatewayOrder opens a gateway order for a RazorPay checkout, then
// creates the order and clears the cart. Nothing is stored when the gateway fails.
func (s *OrderPlacementService) PlaceGatewayOrder(ctx context.Context, cmd PlaceGatewayOrderCommand) (*GatewayOrderDTO, error) {
	order, err := s.buildOrder(ctx, cmd.UserID, cmd.AddressID, domain.PaymentRazorPay, cmd.TotalPrice, cmd.SubTotal)
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to build order", "userId", cmd.UserID)
	}

	gatewayOrder, err := s.gateway.CreateGatewayOrder(ctx, domain.GatewayOrderRequest{
		AmountMinor: ToMinorUnits(order.Total),
		Currency:    s.currency,
		Receipt:     order.ID,
	})
	if err != nil {
		return nil, fail(ctx, s.logger, fmt.Errorf("%w: %v", domain.ErrPaymentGateway, err),
			"Failed to create gateway order", "orderId", order.ID)
	}

	order.AttachGatewayOrder(gatewayOrder.ID)

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return err
		}
		if err := s.clearCart(txCtx, order); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to place gateway order",
			"orderId", order.ID,
			"gatewayOrderId", gatewayOrder.ID,
		)
	}

	order.ClearDomainEvents()
	s.recordPlaced(ctx, order)

	return &GatewayOrderDTO{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrder.ID,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		KeyID:          gatewayOrder.KeyID,
		Order:          *ToOrderDTO(order),
	}, nil
}

// buildOrder resolves the address, cart and products of a placement
func (s *OrderPlacementService) buildOrder(ctx context.Context, userID, addressID string, method domain.PaymentMethod, total, subTotal float64) (*domain.Order, error) {
	address, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil || address.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}

	items, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.products.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	snapshots := make([]domain.ProductSnapshot, 0, len(ids))
	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		snapshots = append(snapshots, product.Snapshot())
	}

	return domain.NewOrder(domain.NewOrderParams{
		UserID:        userID,
		Address:       address.Snapshot(),
		Products:      snapshots,
		Carts:         lines,
		TotalPrice:    total,
		SubTotal:      subTotal,
		PaymentMethod: method,
	})
}

// clearCart removes the cart the order was built from. A different line count
// means a concurrent add or checkout touched the cart, and the placement aborts.
func (s *OrderPlacementService) clearCart(ctx context.Context, order *domain.Order) error {
	removed, err := s.carts.ClearByUser(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if removed != len(order.Carts) {
		return fmt.Errorf("%w: ordered %d lines, removed %d", domain.ErrCartChanged, len(order.Carts), removed)
	}
	return nil
}

func (s *OrderPlacementService) recordPlaced(ctx context.Context, order *domain.Order) {
	s.metrics.RecordOrderPlaced(string(order.PaymentMethod))
	if order.PaymentMethod == domain.PaymentWallet {
		s.metrics.RecordWalletDebit(order.Total)
	}

	related := map[string]string{"userId": order.UserID}
	if order.GatewayOrderID != "" {
		related["gatewayOrderId"] = order.GatewayOrderID
	}
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "order.placed",
		EntityType: "order",
		EntityID:   order.ID,
		Action:     "created",
		RelatedIDs: related,
		Details: map[string]any{
			"paymentMethod": string(order.PaymentMethod),
			"total":         order.Total,
			"discountPrice": order.DiscountPrice,
		},
	})
}

// ToMinorUnits converts a major unit amount to gateway minor units
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
