package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	pkgmongo "github.com/shopfront/order-platform/pkg/mongodb"
)

// MongoReplicaSet is a single node replica set, enough for multi-document transactions
type MongoReplicaSet struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// StartMongoReplicaSet starts a mongo:7 container configured as replica set rs0
func StartMongoReplicaSet(ctx context.Context) (*MongoReplicaSet, error) {
	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MongoReplicaSet{Container: container, URI: uri}, nil
}

// Connect opens a client on database
func (m *MongoReplicaSet) Connect(ctx context.Context, database string) (*pkgmongo.Client, error) {
	return pkgmongo.NewClient(ctx, &pkgmongo.Config{
		URI:            m.URI,
		Database:       database,
		ConnectTimeout: 30 * time.Second,
		MaxPoolSize:    20,
		Direct:         true,
	})
}

// Terminate stops the container
func (m *MongoReplicaSet) Terminate() error {
	return testcontainers.TerminateContainer(m.Container)
}
