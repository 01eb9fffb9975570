package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopfront/order-platform/internal/domain"
)

// CartRepository implements domain.CartStore using MongoDB. One document per cart line.
type CartRepository struct {
	collection *mongo.Collection
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection(CartsCollection)}
}

// FindByUser returns the user's cart lines
func (r *CartRepository) FindByUser(ctx context.Context, userID string) ([]*domain.CartItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.CartItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

// ClearByUser deletes every cart line of the user
func (r *CartRepository) ClearByUser(ctx context.Context, userID string) (int, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return int(result.DeletedCount), nil
}
