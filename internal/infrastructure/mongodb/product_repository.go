package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/metrics"
)

// ProductRepository implements domain.ProductCatalog using MongoDB
type ProductRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database, m *metrics.Metrics) *ProductRepository {
	return &ProductRepository{collection: db.Collection(ProductsCollection), metrics: m}
}

// FindByID returns nil, nil when the product does not exist
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindManyByIDs returns the products that exist among productIDs
func (r *ProductRepository) FindManyByIDs(ctx context.Context, productIDs []string) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0, len(productIDs))
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// AdjustStock applies delta to the product's stock with $inc
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) (err error) {
	defer func(start time.Time) { observe(r.metrics, ProductsCollection, "adjust_stock", start, err) }(time.Now())

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$inc": bson.M{"stock": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	return nil
}
