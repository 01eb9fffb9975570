package idempotency

import (
	"context"
	"time"
)

// Store persists idempotency records. Acquire must be atomic.
type Store interface {
	// Acquire inserts record or locks the existing record for the same user and key.
	// The boolean reports whether record was newly inserted.
	Acquire(ctx context.Context, record *Record) (*Record, bool, error)

	// Complete stores the response and releases the lock
	Complete(ctx context.Context, id string, code int, body []byte, headers map[string]string) error

	// Takeover locks an existing, uncompleted record whose lock is missing or
	// older than staleBefore. It reports false when another request holds it.
	Takeover(ctx context.Context, id string, staleBefore time.Time) (bool, error)

	// Release drops the lock without storing a response so the client may retry
	Release(ctx context.Context, id string) error

	// Clean removes records that expired before the given time
	Clean(ctx context.Context, before time.Time) (int64, error)
}
