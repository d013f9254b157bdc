// Package repository stores triggers in MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidMongoConfig is returned by MongoDBConfig.Validate.
var ErrInvalidMongoConfig = errors.New("invalid mongodb config")

// MongoDB is a connection scoped to one database and its trigger collection.
type MongoDB struct {
	client   *mongo.Client
	triggers *mongo.Collection
	logger   *slog.Logger
}

// MongoDBConfig contains configuration for MongoDB connection.
type MongoDBConfig struct {
	URI               string
	Database          string
	TriggerCollection string
	ConnectTimeout    time.Duration
	PingTimeout       time.Duration
}

// DefaultMongoDBConfig returns default configuration.
func DefaultMongoDBConfig() *MongoDBConfig {
	return &MongoDBConfig{
		URI:               "mongodb://localhost:27017",
		Database:          "rpgbase",
		TriggerCollection: "trigger",
		ConnectTimeout:    10 * time.Second,
		PingTimeout:       5 * time.Second,
	}
}

// withDefaults returns a copy of in with zero fields taken from the defaults.
func withDefaults(in *MongoDBConfig) *MongoDBConfig {
	cfg := *in
	def := DefaultMongoDBConfig()
	if cfg.URI == "" {
		cfg.URI = def.URI
	}
	if cfg.Database == "" {
		cfg.Database = def.Database
	}
	if cfg.TriggerCollection == "" {
		cfg.TriggerCollection = def.TriggerCollection
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	return &cfg
}

// Validate rejects negative timeouts.
func (cfg *MongoDBConfig) Validate() error {
	if cfg.ConnectTimeout < 0 || cfg.PingTimeout < 0 {
		return fmt.Errorf("%w: timeouts cannot be negative", ErrInvalidMongoConfig)
	}
	return nil
}

// NewMongoDB connects, pings and returns a handle on the trigger collection.
func NewMongoDB(ctx context.Context, cfg *MongoDBConfig, logger *slog.Logger) (*MongoDB, error) {
	if cfg == nil {
		cfg = DefaultMongoDBConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)
	if logger == nil {
		logger = slog.Default()
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB",
		"uri", cfg.URI,
		"database", cfg.Database,
		"collection", cfg.TriggerCollection)

	return &MongoDB{
		client:   client,
		triggers: client.Database(cfg.Database).Collection(cfg.TriggerCollection),
		logger:   logger,
	}, nil
}

// Close disconnects from MongoDB.
func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// Triggers returns the trigger collection.
func (m *MongoDB) Triggers() *mongo.Collection {
	return m.triggers
}

// EnsureUniqueIndex creates a unique ascending index on field.
func (m *MongoDB) EnsureUniqueIndex(ctx context.Context, coll *mongo.Collection, field string) error {
	name, err := coll.Indexes().CreateOne(ctx, uniqueIndex(field))
	if err != nil {
		return fmt.Errorf("failed to create %s index on %s: %w", field, coll.Name(), err)
	}
	m.logger.Debug("Index ready", "collection", coll.Name(), "index", name)
	return nil
}

func uniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + "_unique"),
	}
}
