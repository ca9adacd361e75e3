package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hrygo/chronorec/internal/observability"
)

// Config configures a Cache.
type Config struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	TTL             time.Duration // Entry lifetime, zero keeps entries until evicted
	CleanupInterval time.Duration // Interval of the expired-entry sweep, zero disables it
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity}
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// Cache is a results cache that never shares stored values with callers:
// values are cloned on the way in and on the way out.
type Cache[V any] struct {
	lru     *LRUCache[V]
	clone   func(V) V
	group   singleflight.Group
	metrics observability.Metrics

	hits   atomic.Int64
	misses atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes a Cache.
type Option[V any] func(*Cache[V])

// WithMetrics reports hits and misses to m.
func WithMetrics[V any](m observability.Metrics) Option[V] {
	return func(c *Cache[V]) { c.metrics = m }
}

// New creates a cache. clone must return a deep copy of its argument.
func New[V any](cfg Config, clone func(V) V, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		lru:     NewLRUCache[V](cfg.Capacity, cfg.TTL),
		clone:   clone,
		metrics: observability.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.TTL > 0 && cfg.CleanupInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.wg.Add(1)
		go c.cleanupLoop(ctx, cfg.CleanupInterval)
	}
	return c
}

// GetOrCreate returns a copy of the cached value, running factory on a
// miss. Concurrent misses on the same key share one factory call. Errors
// are not cached.
func (c *Cache[V]) GetOrCreate(key string, factory func() (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		c.record(true)
		return c.clone(v), nil
	}
	c.record(false)

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		v, err := factory()
		if err != nil {
			return v, err
		}
		stored := c.clone(v)
		c.lru.Set(key, stored)
		return stored, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return c.clone(res.(V)), nil
}

// Invalidate removes entries matching the pattern; see LRUCache.Invalidate.
func (c *Cache[V]) Invalidate(pattern string) int {
	return c.lru.Invalidate(pattern)
}

// CleanupExpired removes all expired entries.
func (c *Cache[V]) CleanupExpired() int {
	return c.lru.CleanupExpired()
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.lru.Clear()
}

// Stats returns the lookup counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.lru.Size()}
}

// Close stops the cleanup loop, if any.
func (c *Cache[V]) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Cache[V]) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	c.metrics.RecordCacheAccess(hit)
}

// cleanupLoop periodically removes expired entries.
func (c *Cache[V]) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.lru.CleanupExpired()
		}
	}
}
