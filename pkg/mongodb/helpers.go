package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Now returns the current UTC time truncated to the millisecond precision Mongo stores
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// BuildIncrementUpdate builds an atomic $inc update that also bumps updatedAt
func BuildIncrementUpdate(field string, value interface{}) bson.M {
	return bson.M{
		"$inc": bson.M{field: value},
		"$set": bson.M{"updatedAt": Now()},
	}
}

// BuildUpdateWithTimestamp wraps fields in $set and bumps updatedAt
func BuildUpdateWithTimestamp(set bson.M) bson.M {
	fields := bson.M{"updatedAt": Now()}
	for k, v := range set {
		fields[k] = v
	}
	return bson.M{"$set": fields}
}

// SortByCreatedAt returns a createdAt sort, newest first when descending
func SortByCreatedAt(descending bool) bson.D {
	if descending {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return bson.D{{Key: "createdAt", Value: 1}}
}

// PageOptions returns find options for one createdAt ordered page
func PageOptions(skip, limit int64, descending bool) *options.FindOptions {
	return options.Find().
		SetSort(SortByCreatedAt(descending)).
		SetSkip(skip).
		SetLimit(limit)
}
