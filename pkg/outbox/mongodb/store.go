package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shopfront/order-platform/pkg/outbox"
)

// CollectionName is the outbox collection
const CollectionName = "outbox_messages"

// publishedRetention is how long published messages live before the TTL index removes them
const publishedRetention = 7 * 24 * time.Hour

// Store implements outbox.Store on a MongoDB collection
type Store struct {
	collection *mongo.Collection
}

// NewStore creates a Store on db
func NewStore(db *mongo.Database) *Store {
	return &Store{collection: db.Collection(CollectionName)}
}

// Append inserts messages through the session carried by ctx, if any
func (s *Store) Append(ctx context.Context, messages []*outbox.Message) error {
	if len(messages) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		docs = append(docs, m)
	}

	// Ordered so a failure leaves no partial tail when there is no session.
	if _, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to append outbox messages: %w", err)
	}
	return nil
}

// Due returns pending messages scheduled at or before now
func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error) {
	filter := bson.M{
		"status":        outbox.StatusPending,
		"nextAttemptAt": bson.M{"$lte": now},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query due outbox messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*outbox.Message, 0, limit)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode outbox messages: %w", err)
	}
	return messages, nil
}

// MarkPublished moves a pending message to published
func (s *Store) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"status":      outbox.StatusPublished,
		"publishedAt": at,
	}})
}

// SaveAttempt writes back the attempt bookkeeping of m
func (s *Store) SaveAttempt(ctx context.Context, m *outbox.Message) error {
	return s.update(ctx, m.ID, bson.M{"$set": bson.M{
		"status":        m.Status,
		"attempts":      m.Attempts,
		"lastError":     m.LastError,
		"nextAttemptAt": m.NextAttemptAt,
	}})
}

func (s *Store) update(ctx context.Context, id string, update bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id, "status": outbox.StatusPending}, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox message %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("outbox message %s is not pending", id)
	}
	return nil
}

// EnsureIndexes creates the polling index, the per-order lookup index and a
// TTL index that expires published messages.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "nextAttemptAt", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().SetName("publishedAt_ttl").SetExpireAfterSeconds(int32(publishedRetention.Seconds())),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
