// Package bootstrap connects the configured store and Redis and assembles the
// moderation services on top of them.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"shutterdesk/internal/cache"
	"shutterdesk/internal/config"
	"shutterdesk/internal/database"
	"shutterdesk/internal/media"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"
	"shutterdesk/internal/notifications"
	"shutterdesk/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// Runtime holds the connected backends and the services built on them.
type Runtime struct {
	Config *config.Config

	DB    *gorm.DB
	Mongo *mongo.Client
	Redis *redis.Client

	Content       repository.ContentRepository
	Notifications repository.NotificationRepository

	Counts *cache.Cache
	// Notifier is nil without Redis; live streaming is then unavailable.
	Notifier *notifications.Notifier
	Emitter  *notifications.Emitter
	Engine   *moderation.Engine
	Media    *media.Service
}

// InitRuntime connects to the store selected by STORE_DRIVER and to Redis.
// Redis is optional: without it counts are not cached and publishes are skipped.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rdb := cache.InitRedis(cfg.RedisURL)

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo index setup failed: %w", err)
		}
		rt := assemble(cfg, rdb,
			repository.NewMongoContentRepository(db),
			repository.NewMongoNotificationRepository(db))
		rt.Mongo = client
		return rt, nil
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return NewRuntimeWithDeps(cfg, db, rdb), nil
	}
}

// NewRuntimeWithDeps builds a Runtime over an already-open gorm database.
// Tests use it with in-memory sqlite.
func NewRuntimeWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Runtime {
	rt := assemble(cfg, rdb,
		repository.NewContentRepository(db),
		repository.NewNotificationRepository(db))
	rt.DB = db
	return rt
}

func assemble(cfg *config.Config, rdb *redis.Client, content repository.ContentRepository, notes repository.NotificationRepository) *Runtime {
	var (
		notifier *notifications.Notifier
		pub      notifications.Publisher
	)
	if rdb != nil {
		notifier = notifications.NewNotifier(rdb)
		pub = notifier
	}
	counts := cache.New(rdb)
	emitter := notifications.NewEmitter(notes, pub)
	engine := moderation.NewEngine(content, emitter, counts, moderation.Options{
		AdminInboxID: models.AdminInbox(cfg.AdminInboxID),
		CountsTTL:    time.Duration(cfg.CountsCacheTTLSeconds) * time.Second,
	})

	return &Runtime{
		Config:        cfg,
		Redis:         rdb,
		Content:       content,
		Notifications: notes,
		Counts:        counts,
		Notifier:      notifier,
		Emitter:       emitter,
		Engine:        engine,
		Media:         media.NewService(cfg),
	}
}

// PingStore checks that the primary store answers.
func (r *Runtime) PingStore(ctx context.Context) error {
	switch {
	case r.Mongo != nil:
		return r.Mongo.Ping(ctx, readpref.Primary())
	case r.DB != nil:
		sqlDB, err := r.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	default:
		return fmt.Errorf("no store configured")
	}
}

// Close releases the store and Redis connections.
func (r *Runtime) Close(ctx context.Context) {
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}
	if r.Mongo != nil {
		if err := r.Mongo.Disconnect(ctx); err != nil {
			log.Printf("error disconnecting mongo: %v", err)
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}
}
