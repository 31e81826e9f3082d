// Package configstore caches lookups against the system configuration table.
package configstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"isdnews/internal/observability/metrics"
)

// DefaultTTL is how long a found value is served without re-reading the store.
const DefaultTTL = 300 * time.Second

// storeTimeout bounds a shared store read, which outlives the caller that
// started it.
const storeTimeout = 10 * time.Second

// Store is the backing lookup, normally repository.ConfigRepository.
type Store interface {
	Lookup(ctx context.Context, key, teamCode string) (string, bool, error)
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache serves configuration values for a TTL. Only found values are kept,
// so a key written after a miss is visible on the next lookup. Store errors
// go back to the caller and are never cached.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// New returns a cache over store. ttl <= 0 selects DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func cacheKey(key, teamCode string) string {
	return key + "\x00" + teamCode
}

type result struct {
	value string
	found bool
}

// Lookup returns the value for key scoped to teamCode ("" for global keys).
func (c *Cache) Lookup(ctx context.Context, key, teamCode string) (string, bool, error) {
	k := cacheKey(key, teamCode)

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		metrics.RecordConfigLookup("hit")
		return e.value, true, nil
	}

	// 共有の読み込みは最初の呼び出し元のキャンセルに巻き込まない
	ch := c.group.DoChan(k, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer cancel()
		value, found, err := c.store.Lookup(sctx, key, teamCode)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if found {
			c.entries[k] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
		} else {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return result{value: value, found: found}, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.RecordConfigLookup("error")
		return "", false, ctx.Err()
	}
	if err := res.Err; err != nil {
		metrics.RecordConfigLookup("error")
		slog.Warn("config lookup failed",
			slog.String("key", key),
			slog.String("team", teamCode),
			slog.Any("error", err))
		return "", false, err
	}

	metrics.RecordConfigLookup("miss")
	r := res.Val.(result)
	return r.value, r.found, nil
}

// Invalidate drops one cached key.
func (c *Cache) Invalidate(key, teamCode string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(key, teamCode))
	c.mu.Unlock()
	c.group.Forget(cacheKey(key, teamCode))
}

// Purge drops every cached key.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of cached keys, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
