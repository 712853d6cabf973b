package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shutterdesk/internal/config"
	"shutterdesk/internal/middleware"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo collection names, matching the SQL table names.
const (
	ContentCollection      = "content_items"
	NotificationCollection = "notifications"
)

// ConnectMongo opens a client for cfg.MongoURI, pings it and ensures indexes.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(25).
		SetMinPoolSize(5))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := EnsureMongoIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	middleware.Logger.Info("Mongo connected successfully", slog.String("database", cfg.MongoDatabase))
	return client, db, nil
}

// EnsureMongoIndexes creates the secondary indexes used by list and inbox queries.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	contentIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "submitter_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "visible_on_home", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(ContentCollection).Indexes().CreateMany(ctx, contentIdx); err != nil {
		return fmt.Errorf("failed to create content indexes: %w", err)
	}

	notificationIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(NotificationCollection).Indexes().CreateMany(ctx, notificationIdx); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
