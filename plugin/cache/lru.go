// Package cache provides the recognizer results cache: a bounded LRU with
// optional TTL that stores and hands out deep copies of its values.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is used when a non-positive capacity is given.
const DefaultCapacity = 1000

// LRUCache implements an LRU cache with optional TTL. A zero TTL keeps
// entries until they are evicted.
type LRUCache[V any] struct {
	capacity int
	ttl      time.Duration
	mu       sync.Mutex

	cache map[string]*entry[V]
	order *list.List // Doubly linked list for LRU ordering

	now func() time.Time
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	element   *list.Element
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache[V any](capacity int, ttl time.Duration) *LRUCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl < 0 {
		ttl = 0
	}
	return &LRUCache[V]{
		capacity: capacity,
		ttl:      ttl,
		cache:    make(map[string]*entry[V]),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.cache[key]
	if !ok {
		return zero, false
	}

	if c.expired(e, c.now()) {
		c.removeEntry(e)
		return zero, false
	}

	// Move to front (most recently used)
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value in the cache.
func (c *LRUCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if e, ok := c.cache[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &entry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// Invalidate removes entries matching the pattern.
// Supports * wildcard at the end (e.g., "en-us|*").
func (c *LRUCache[V]) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasSuffix(pattern, "*") {
		if e, ok := c.cache[pattern]; ok {
			c.removeEntry(e)
			return 1
		}
		return 0
	}

	prefix := strings.TrimSuffix(pattern, "*")
	count := 0
	for key, e := range c.cache {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(e)
			count++
		}
	}
	return count
}

// Size returns the number of entries in the cache.
func (c *LRUCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*entry[V])
	c.order.Init()
}

// CleanupExpired removes all expired entries.
// Returns the number of entries removed.
func (c *LRUCache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toDelete []*entry[V]
	now := c.now()
	for _, e := range c.cache {
		if c.expired(e, now) {
			toDelete = append(toDelete, e)
		}
	}
	for _, e := range toDelete {
		c.removeEntry(e)
	}
	return len(toDelete)
}

func (c *LRUCache[V]) expired(e *entry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *LRUCache[V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry[V]))
}

// removeEntry removes an entry from the cache.
// Must be called with lock held.
func (c *LRUCache[V]) removeEntry(e *entry[V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}
