package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/cloudevents"
	"github.com/shopfront/order-platform/pkg/kafka"
	"github.com/shopfront/order-platform/pkg/metrics"
	pkgmongo "github.com/shopfront/order-platform/pkg/mongodb"
	"github.com/shopfront/order-platform/pkg/outbox"
	outboxMongo "github.com/shopfront/order-platform/pkg/outbox/mongodb"
)

// OrderRepository implements domain.OrderRepository using MongoDB.
// Every write also stores the order's pending domain events in the outbox,
// inside the caller's transaction when ctx carries one.
type OrderRepository struct {
	collection   *mongo.Collection
	outbox       outbox.Store
	eventFactory *cloudevents.EventFactory
	metrics      *metrics.Metrics
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory, m *metrics.Metrics) *OrderRepository {
	return &OrderRepository{
		collection:   db.Collection(OrdersCollection),
		outbox:       outboxMongo.NewStore(db),
		eventFactory: eventFactory,
		metrics:      m,
	}
}

// Insert persists a new order
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) (err error) {
	defer func(start time.Time) { observe(r.metrics, OrdersCollection, "insert", start, err) }(time.Now())

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return r.saveEvents(ctx, order)
}

// FindByID retrieves an order by id
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// UpdateStatus writes the new status only while the stored status is still expected
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) (err error) {
	defer func(start time.Time) { observe(r.metrics, OrdersCollection, "update_status", start, err) }(time.Now())

	filter := bson.M{"_id": order.ID, "status": expected}
	update := bson.M{"$set": bson.M{
		"status":    order.Status,
		"updatedAt": order.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConcurrentUpdate
	}
	return r.saveEvents(ctx, order)
}

// UpdateReturn persists the return request
func (r *OrderRepository) UpdateReturn(ctx context.Context, order *domain.Order) (err error) {
	defer func(start time.Time) { observe(r.metrics, OrdersCollection, "update_return", start, err) }(time.Now())

	update := bson.M{"$set": bson.M{
		"return":    order.Return,
		"updatedAt": order.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": order.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update order return: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return r.saveEvents(ctx, order)
}

// FindByUser returns one page of a user's orders and their total count
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, page domain.Pagination, sort domain.SortOrder) ([]*domain.Order, int64, error) {
	return r.findPage(ctx, bson.M{"userId": userID}, page, sort)
}

// List returns one page of orders matching filter
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter, page domain.Pagination) ([]*domain.Order, int64, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	return r.findPage(ctx, query, page, filter.Sort)
}

// FindByStatus returns every order with status, newest first
func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, pkgmongo.PageOptions(0, 0, true))
	if err != nil {
		return nil, fmt.Errorf("failed to find orders by status: %w", err)
	}
	return decodeOrders(ctx, cursor)
}

func (r *OrderRepository) findPage(ctx context.Context, filter bson.M, page domain.Pagination, sort domain.SortOrder) ([]*domain.Order, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := pkgmongo.PageOptions(page.Skip(), page.Limit(), sort != domain.SortOlder)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}

	orders, err := decodeOrders(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Order, error) {
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// saveEvents appends the order's pending events to the outbox. The events stay
// on the order; the caller clears them once the transaction has committed.
func (r *OrderRepository) saveEvents(ctx context.Context, order *domain.Order) error {
	pending := order.DomainEvents()
	if len(pending) == 0 {
		return nil
	}

	messages := make([]*outbox.Message, 0, len(pending))
	for _, event := range pending {
		ce := r.eventFactory.CreateEvent(ctx, event.EventType(), "order/"+order.ID, event)
		msg, err := outbox.NewMessage(order.ID, kafka.Topics.OrdersEvents, ce)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", event.EventType(), err)
		}
		messages = append(messages, msg)
	}

	if err := r.outbox.Append(ctx, messages); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
