package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopfront/order-platform/pkg/metrics"
	"github.com/shopfront/order-platform/pkg/tracing"
)

// Transactor runs callbacks inside a multi-document transaction.
// Repositories participate by using the context handed to the callback.
type Transactor struct {
	client   *mongo.Client
	database string
	metrics  *metrics.Metrics
}

// NewTransactor creates a Transactor for the given client
func NewTransactor(client *Client, m *metrics.Metrics) *Transactor {
	return &Transactor{
		client:   client.Client(),
		database: client.config.Database,
		metrics:  m,
	}
}

// WithinTransaction executes fn in a transaction. When ctx already carries a
// session, fn joins it instead of opening a nested one. fn may be retried by
// the driver on transient errors, so it must not depend on side effects of a
// previous attempt.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracing.Start(ctx, "mongodb", "mongodb.transaction", trace.SpanKindClient,
		semconv.DBSystemMongoDB,
		semconv.DBNameKey.String(t.database),
	)

	start := time.Now()
	err := t.run(ctx, fn)
	t.metrics.RecordMongoDBOperation("transaction", "commit", err == nil, time.Since(start))
	tracing.End(span, err)
	return err
}

func (t *Transactor) run(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	}, txnOpts)
	return err
}
