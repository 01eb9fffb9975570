package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shopfront/order-platform/internal/domain"
	"github.com/shopfront/order-platform/pkg/metrics"
	pkgmongo "github.com/shopfront/order-platform/pkg/mongodb"
)

// WalletRepository implements domain.WalletRepository using MongoDB
type WalletRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(db *mongo.Database, m *metrics.Metrics) *WalletRepository {
	return &WalletRepository{collection: db.Collection(WalletsCollection), metrics: m}
}

// FindByUserID returns the user's wallet, nil when none exists yet
func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&wallet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &wallet, nil
}

// Credit increments the balance, creating the wallet on first credit
func (r *WalletRepository) Credit(ctx context.Context, userID string, amount float64) (err error) {
	defer func(start time.Time) { observe(r.metrics, WalletsCollection, "credit", start, err) }(time.Now())

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"userId": userID},
		pkgmongo.BuildIncrementUpdate("amount", amount),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// Debit decrements the balance in one guarded update so it never goes negative
func (r *WalletRepository) Debit(ctx context.Context, userID string, amount float64) (err error) {
	defer func(start time.Time) { observe(r.metrics, WalletsCollection, "debit", start, err) }(time.Now())

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "amount": bson.M{"$gte": amount}},
		pkgmongo.BuildIncrementUpdate("amount", -amount),
	)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}
