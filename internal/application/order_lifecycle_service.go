package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/metrics"
	"github.com/shopfront/order-platform/pkg/tracing"
)

// OrderLifecycleService applies status transitions and their ledger effects
type OrderLifecycleService struct {
	orders       domain.OrderRepository
	ledger       *LedgerService
	tx           domain.Transactor
	returnPolicy domain.ReturnPolicy
	sanitizer    *bluemonday.Policy
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// LifecycleConfig holds lifecycle policy
type LifecycleConfig struct {
	ReturnPolicy domain.ReturnPolicy
}

// NewOrderLifecycleService creates a new OrderLifecycleService
func NewOrderLifecycleService(
	orders domain.OrderRepository,
	ledger *LedgerService,
	tx domain.Transactor,
	config LifecycleConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) *OrderLifecycleService {
	policy := config.ReturnPolicy
	if policy == "" {
		policy = domain.ReturnPolicyAny
	}
	return &OrderLifecycleService{
		orders:       orders,
		ledger:       ledger,
		tx:           tx,
		returnPolicy: policy,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.WithComponent("order-lifecycle"),
		metrics:      m,
	}
}

// ChangeStatus applies an admin status change
func (s *OrderLifecycleService) ChangeStatus(ctx context.Context, cmd ChangeStatusCommand) (*OrderDTO, error) {
	return s.transition(ctx, cmd.OrderID, "", domain.OrderStatus(cmd.Status), cmd.Actor)
}

// CancelOrder cancels one of the caller's orders
func (s *OrderLifecycleService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (*OrderDTO, error) {
	return s.transition(ctx, cmd.OrderID, cmd.UserID, domain.StatusCancelled, cmd.UserID)
}

// transition runs one status change in a transaction: the guarded status write,
// restock per product and the wallet refund commit or abort together.
// A non-empty ownerID restricts the order to that user.
func (s *OrderLifecycleService) transition(ctx context.Context, orderID, ownerID string, target domain.OrderStatus, actor string) (*OrderDTO, error) {
	ctx, span := tracing.Start(ctx, "orders", "order.transition", trace.SpanKindInternal,
		tracing.OrderIDKey.String(orderID),
		tracing.OrderTargetKey.String(string(target)),
	)

	var (
		order      *domain.Order
		from       domain.OrderStatus
		settlement domain.Settlement
	)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.loadOrder(txCtx, orderID, ownerID)
		if err != nil {
			return err
		}

		from = current.Status
		result, err := current.ChangeStatus(target)
		if err != nil {
			return err
		}

		if err := s.orders.UpdateStatus(txCtx, current, from); err != nil {
			return err
		}

		for _, productID := range sortedKeys(result.Restock) {
			if err := s.ledger.Restock(txCtx, productID, result.Restock[productID]); err != nil {
				return err
			}
		}

		if result.Refund > 0 {
			if err := s.ledger.Credit(txCtx, current.UserID, result.Refund); err != nil {
				return err
			}
		}

		order, settlement = current, result
		return nil
	})

	s.metrics.RecordOrderTransition(string(from), string(target), err == nil)
	span.SetAttributes(tracing.OrderStatusKey.String(string(from)))
	tracing.End(span, err)
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to change order status",
			"orderId", orderID,
			"from", from,
			"to", target,
		)
	}

	order.ClearDomainEvents()
	s.metrics.RecordRestock(settlement.RestockUnits())
	s.metrics.RecordWalletCredit(settlement.Refund)

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "order.status_changed",
		EntityType: "order",
		EntityID:   order.ID,
		Action:     string(target),
		RelatedIDs: map[string]string{"userId": order.UserID, "actor": actor},
		Details: map[string]any{
			"from":          string(from),
			"refund":        settlement.Refund,
			"restockUnits":  settlement.RestockUnits(),
			"paymentMethod": string(order.PaymentMethod),
		},
	})

	return ToOrderDTO(order), nil
}

// RequestReturn records a return request on one of the caller's orders
func (s *OrderLifecycleService) RequestReturn(ctx context.Context, cmd RequestReturnCommand) (*OrderDTO, error) {
	reason := s.sanitizer.Sanitize(cmd.Reason)

	var order *domain.Order
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.loadOrder(txCtx, cmd.OrderID, cmd.UserID)
		if err != nil {
			return err
		}
		if err := current.RequestReturn(reason, s.returnPolicy); err != nil {
			return err
		}
		if err := s.orders.UpdateReturn(txCtx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to request return", "orderId", cmd.OrderID)
	}

	order.ClearDomainEvents()
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "order.return_requested",
		EntityType: "order",
		EntityID:   order.ID,
		Action:     "return_requested",
		RelatedIDs: map[string]string{"userId": order.UserID},
	})

	return ToOrderDTO(order), nil
}

// AcceptReturn moves the order to returnPickup
func (s *OrderLifecycleService) AcceptReturn(ctx context.Context, cmd ResolveReturnCommand) (*OrderDTO, error) {
	return s.resolveReturn(ctx, cmd, true)
}

// RejectReturn moves the order to returnRejected
func (s *OrderLifecycleService) RejectReturn(ctx context.Context, cmd ResolveReturnCommand) (*OrderDTO, error) {
	return s.resolveReturn(ctx, cmd, false)
}

func (s *OrderLifecycleService) resolveReturn(ctx context.Context, cmd ResolveReturnCommand, accept bool) (*OrderDTO, error) {
	target := domain.StatusReturnRejected
	if accept {
		target = domain.StatusReturnPickup
	}
	ctx, span := tracing.Start(ctx, "orders", "order.resolve_return", trace.SpanKindInternal,
		tracing.OrderIDKey.String(cmd.OrderID),
		tracing.OrderTargetKey.String(string(target)),
	)

	var (
		order *domain.Order
		from  domain.OrderStatus
	)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.loadOrder(txCtx, cmd.OrderID, "")
		if err != nil {
			return err
		}
		from = current.Status
		if accept {
			current.AcceptReturn()
		} else {
			current.RejectReturn()
		}
		if err := s.orders.UpdateStatus(txCtx, current, from); err != nil {
			return err
		}
		order = current
		return nil
	})

	s.metrics.RecordOrderTransition(string(from), string(target), err == nil)
	span.SetAttributes(tracing.OrderStatusKey.String(string(from)))
	tracing.End(span, err)
	if err != nil {
		return nil, fail(ctx, s.logger, err, "Failed to resolve return", "orderId", cmd.OrderID, "to", target)
	}

	order.ClearDomainEvents()
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "order.return_resolved",
		EntityType: "order",
		EntityID:   order.ID,
		Action:     string(target),
		RelatedIDs: map[string]string{"userId": order.UserID, "actor": cmd.Actor},
		Details:    map[string]any{"from": string(from)},
	})

	return ToOrderDTO(order), nil
}

func (s *OrderLifecycleService) loadOrder(ctx context.Context, orderID, ownerID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil || (ownerID != "" && !order.OwnedBy(ownerID)) {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
