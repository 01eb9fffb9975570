package outbox

import (
	"context"
	"time"
)

// Store persists outbox messages. Append must write through a session carried
// by ctx so messages commit with the aggregate.
type Store interface {
	Append(ctx context.Context, messages []*Message) error
	// Due returns pending messages whose next attempt is at or before now, oldest first
	Due(ctx context.Context, now time.Time, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	// SaveAttempt stores the attempt count, error, status and schedule of m
	SaveAttempt(ctx context.Context, m *Message) error
}
