package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shopfront/order-platform/pkg/metrics"
	outboxMongo "github.com/shopfront/order-platform/pkg/outbox/mongodb"
)

// Collection names
const (
	OrdersCollection           = "orders"
	WalletsCollection          = "wallets"
	ProductsCollection         = "products"
	CartsCollection            = "carts"
	AddressesCollection        = "addresses"
	UsersCollection            = "users"
	AdminCredentialsCollection = "admin_credentials"
)

// EnsureIndexes creates the indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		OrdersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		WalletsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CartsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		AddressesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}

	if err := outboxMongo.NewStore(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}

func observe(m *metrics.Metrics, collection, operation string, start time.Time, err error) {
	m.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}
