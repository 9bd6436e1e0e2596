// Package redis provides the Redis-backed cache used for sessions.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// NewClient creates a Redis client from configuration and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", repository.ErrCacheUnavailable, err)
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Msg("connected to Redis")

	return client, nil
}

// Cache implements repository.Cache on top of a Redis client.
type Cache struct {
	client redis.UniversalClient
}

// NewCache creates a new Redis cache.
func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// unavailable wraps a transport or server error so callers can tell it from a miss.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", repository.ErrCacheUnavailable, op, err)
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, unavailable("get", err)
	}
	return value, nil
}

// Set stores a value. A non-positive ttl stores it without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Delete removes a key, reporting ErrCacheMiss when nothing was removed.
// DEL is atomic so concurrent deletes of the same key succeed exactly once.
func (c *Cache) Delete(ctx context.Context, key string) error {
	n, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return unavailable("del", err)
	}
	if n == 0 {
		return repository.ErrCacheMiss
	}
	return nil
}

// TTL returns the remaining lifetime of a key, or -1 if it never expires.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, unavailable("ttl", err)
	}

	// go-redis reports -2 (missing) and -1 (persistent) as raw durations.
	switch ttl {
	case -2:
		return 0, repository.ErrCacheMiss
	case -1:
		return -1, nil
	}
	return ttl, nil
}

// Ping checks that Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Ensure Cache implements repository.Cache.
var _ repository.Cache = (*Cache)(nil)
