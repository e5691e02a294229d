// Package cache provides a small in-memory TTL cache whose loads are
// deduplicated per key.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"hohl-rocks/relay/pkg/telemetry/metrics"
)

// Config configures a TTL cache.
type Config struct {
	// Name labels the cache in metrics.
	Name string

	// TTL is how long a stored value is served.
	TTL time.Duration

	// MaxSize caps the number of entries. When full the entry closest to
	// expiry is evicted. 0 means unbounded.
	MaxSize int
}

// Loader produces the value for a key on a miss.
type Loader[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a concurrency-safe cache of values that expire after a fixed
// duration. Concurrent misses for the same key share one load; the value
// stored last wins.
type TTL[V any] struct {
	config  Config
	entries map[string]entry[V]
	mu      sync.RWMutex
	group   singleflight.Group
	metrics *metrics.Collector
	now     func() time.Time
}

// New creates a TTL cache. m may be nil.
func New[V any](config Config, m *metrics.Collector) *TTL[V] {
	return &TTL[V]{
		config:  config,
		entries: make(map[string]entry[V]),
		metrics: m,
		now:     time.Now,
	}
}

// Get returns the value for key if it is present and not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.config.MaxSize > 0 && len(c.entries) >= c.config.MaxSize {
		c.evictLocked()
	}
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.config.TTL)}
	c.metrics.UpdateCacheSize(c.config.Name, len(c.entries))
}

// evictLocked drops expired entries, or the one closest to expiry when none
// has expired.
func (c *TTL[V]) evictLocked() {
	now := c.now()
	removed := 0
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if removed == 0 && oldestKey != "" {
		delete(c.entries, oldestKey)
		removed = 1
	}
	c.metrics.RecordCacheEviction(c.config.Name, removed)
}

// GetOrLoad returns the cached value for key or calls load. Errors are
// returned to every waiting caller and nothing is stored. A caller whose ctx
// ends stops waiting; the load itself continues for the others.
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		c.metrics.RecordCacheHit(c.config.Name)
		return v, nil
	}
	c.metrics.RecordCacheMiss(c.config.Name)

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.metrics.UpdateCacheSize(c.config.Name, len(c.entries))
}

// Clear removes all entries.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.metrics.UpdateCacheSize(c.config.Name, 0)
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
