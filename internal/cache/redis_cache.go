// Package cache is the Redis-backed raw-evidence cache (spec.md §4.3, §2
// DOMAIN STACK). A cache hit bypasses a connector fetch; writes only happen
// when the caller's consensus quality passed and persistence isn't
// hard-blocked by the kill-switch.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent, distinct from a
// connection-level error so callers can fall through to a fresh fetch.
var ErrMiss = errors.New("cache: miss")

// RawCache is the raw-payload cache keyed by evidence.CacheKey output.
type RawCache struct {
	client *redis.Client
	prefix string
}

// Config configures the underlying Redis client. The caller supplies every
// field; internal/config.Env carries no Redis settings. Prefix namespaces
// every key this cache writes so a shared Redis instance can host other callers.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New dials Redis and pings it once so construction fails fast on a bad
// address rather than on the first cache lookup.
func New(ctx context.Context, cfg Config) (*RawCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "matchdecide:"
	}
	return &RawCache{client: client, prefix: prefix}, nil
}

// BuildKey namespaces a raw evidence.CacheKey under this cache's prefix.
func (c *RawCache) BuildKey(evidenceCacheKey string) string {
	return c.prefix + evidenceCacheKey
}

// Get returns the raw bytes stored under key, or ErrMiss if absent.
func (c *RawCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.BuildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores value under key with the given TTL.
func (c *RawCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.BuildKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key, used when an integrity check invalidates a cached payload.
func (c *RawCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.BuildKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RawCache) Close() error {
	return c.client.Close()
}
