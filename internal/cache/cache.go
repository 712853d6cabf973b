package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache over Redis. A nil client turns every call into a miss.
type Cache struct {
	client *redis.Client
}

// New wraps client, which may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client returns the underlying Redis client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.Client() == nil {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Cache failures never fail the call.
//
// The write-back is skipped when key was invalidated while fetch ran, so a
// read that raced a write never repopulates the cache with the older value.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}
	gen, genErr := c.generation(ctx, key)
	if err := fetch(); err != nil {
		return err
	}
	if genErr != nil {
		return nil
	}
	switch err := c.setIfGeneration(ctx, key, gen, dest, ttl); {
	case errors.Is(err, errStaleGeneration):
		middleware.Logger.DebugContext(ctx, "cache write skipped after invalidation", slog.String("key", key))
	case err != nil:
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

var errStaleGeneration = errors.New("cache generation changed")

func generationKey(key string) string {
	return key + ":gen"
}

// generation returns the invalidation counter of key; a missing counter is "".
func (c *Cache) generation(ctx context.Context, key string) (string, error) {
	if c.Client() == nil {
		return "", nil
	}
	gen, err := c.client.Get(ctx, generationKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return gen, err
}

// setIfGeneration stores v under key only while the invalidation counter still
// equals gen. WATCH aborts the transaction if an Invalidate lands in between.
func (c *Cache) setIfGeneration(ctx context.Context, key, gen string, v any, ttl time.Duration) error {
	if c.Client() == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	genKey := generationKey(key)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if errors.Is(err, redis.Nil) {
			cur, err = "", nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleGeneration
	}
	return err
}

// Invalidate deletes keys and bumps their invalidation counters, logging
// rather than returning failures.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.Client() == nil || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, k := range keys {
			pipe.Incr(ctx, generationKey(k))
		}
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// CountsKey is the cache key for per-status counts of kind ("" for all kinds).
func CountsKey(kind models.Kind) string {
	if kind == "" {
		return "counts:content:all"
	}
	return "counts:content:" + string(kind)
}

// CountsKeys returns every counts key, for invalidation after a write.
func CountsKeys() []string {
	keys := []string{CountsKey("")}
	for _, k := range models.Kinds() {
		keys = append(keys, CountsKey(k))
	}
	return keys
}
