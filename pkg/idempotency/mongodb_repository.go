package idempotency

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the idempotency record collection
const CollectionName = "idempotency_keys"

// MongoStore implements Store using MongoDB
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoDB backed store
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(CollectionName)}
}

// Acquire upserts on (userId, key). Only an insert writes the lock, so an
// existing record comes back exactly as stored.
func (s *MongoStore) Acquire(ctx context.Context, record *Record) (*Record, bool, error) {
	filter := bson.M{"userId": record.UserID, "key": record.Key}
	update := bson.M{"$setOnInsert": record}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored Record
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert won the insert
		err = s.collection.FindOne(ctx, filter).Decode(&stored)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}
	return &stored, stored.ID == record.ID, nil
}

// Takeover locks an uncompleted record whose lock is absent or stale
func (s *MongoStore) Takeover(ctx context.Context, id string, staleBefore time.Time) (bool, error) {
	filter := bson.M{
		"_id":         id,
		"completedAt": bson.M{"$exists": false},
		"$or": bson.A{
			bson.M{"lockedAt": bson.M{"$exists": false}},
			bson.M{"lockedAt": bson.M{"$lt": staleBefore}},
		},
	}
	result, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"lockedAt": time.Now().UTC()}})
	if err != nil {
		return false, fmt.Errorf("failed to take over idempotency key: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// Complete stores the response and releases the lock
func (s *MongoStore) Complete(ctx context.Context, id string, code int, body []byte, headers map[string]string) error {
	update := bson.M{
		"$set": bson.M{
			"responseCode":    code,
			"responseBody":    body,
			"responseHeaders": headers,
			"completedAt":     time.Now().UTC(),
		},
		"$unset": bson.M{"lockedAt": ""},
	}
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Release unlocks a record without completing it
func (s *MongoStore) Release(ctx context.Context, id string) error {
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"lockedAt": ""}}); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Clean removes records that expired before the given time
func (s *MongoStore) Clean(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to clean idempotency keys: %w", err)
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the unique key index and the expiry TTL index
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_expires_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create idempotency indexes: %w", err)
	}
	return nil
}
