package cache

import (
	"context"
	"errors"
	"time"
)

// Fetcher retrieves a domain's raw source payloads, bypassing cache. The
// caller supplies one per domain.
type Fetcher func(ctx context.Context) ([]byte, error)

// QualityCheck reports whether the merged consensus built from raw passed
// quality, gating whether FetchWithCache writes it back.
type QualityCheck func(raw []byte) bool

// PersistenceBlocked reports whether writes are hard-blocked (kill-switch),
// checked immediately before a cache write.
type PersistenceBlocked func() bool

// FetchWithCache implements spec.md §4.3's cache semantics: a hit bypasses
// fetch; forceRefresh skips the cache read; a write only happens when
// qualityPassed is true and persistence isn't hard-blocked. The raw bytes
// returned are whatever the fetcher produced (fresh) or whatever was cached
// (hit); the caller still runs its own consensus/quality pass over them on a
// cache hit, since quality is a property of the evidence, not the cache.
func FetchWithCache(ctx context.Context, c *RawCache, key string, ttl time.Duration, forceRefresh bool, fetch Fetcher, qualityPassed QualityCheck, persistenceBlocked PersistenceBlocked) ([]byte, bool, error) {
	if !forceRefresh {
		cached, err := c.Get(ctx, key)
		if err == nil {
			return cached, true, nil
		}
		if !errors.Is(err, ErrMiss) {
			return nil, false, err
		}
	}

	raw, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if qualityPassed(raw) && (persistenceBlocked == nil || !persistenceBlocked()) {
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			return raw, false, err
		}
	}

	return raw, false, nil
}
