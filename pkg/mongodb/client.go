package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// ErrNoTransactions is returned when the deployment is a standalone server.
// Order transitions need multi-document transactions, which only replica sets
// and sharded clusters provide.
var ErrNoTransactions = errors.New("mongodb deployment does not support transactions")

// Config holds MongoDB connection configuration
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64

	// ReplicaSet names the set when the URI omits it
	ReplicaSet string

	// Direct talks to the single host in URI without discovery, as test
	// containers advertise an address unreachable from the host
	Direct bool
}

// DefaultConfig returns a local single-node replica set
func DefaultConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017/?replicaSet=rs0",
		Database:       "shopfront",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
	}
}

// Client is a connected client bound to the service database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	config   *Config
}

// NewClient connects, pings the primary and checks that the deployment can
// run transactions
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	opts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority())
	if config.ReplicaSet != "" {
		opts.SetReplicaSet(config.ReplicaSet)
	}
	if config.Direct {
		opts.SetDirect(true)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(checkCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if err := checkTransactions(checkCtx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &Client{
		client:   client,
		database: client.Database(config.Database),
		config:   config,
	}, nil
}

type helloResult struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func checkTransactions(ctx context.Context, client *mongo.Client) error {
	var hello helloResult
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return fmt.Errorf("failed to inspect MongoDB topology: %w", err)
	}
	if !supportsTransactions(hello) {
		return ErrNoTransactions
	}
	return nil
}

// supportsTransactions reports whether hello came from a replica set member or a mongos
func supportsTransactions(hello helloResult) bool {
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// Database returns the service database
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Client returns the driver client
func (c *Client) Client() *mongo.Client {
	return c.client
}

// Close disconnects
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck pings the primary
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
