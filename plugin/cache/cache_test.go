package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronorec/internal/observability"
)

func cloneSlice(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string](100, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		cache.Set("key1", "value1")

		val, ok := cache.Get("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := cache.Get("nonexistent")
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		cache.Set("key2", "original")
		cache.Set("key2", "updated")

		val, ok := cache.Get("key2")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)
	})
}

func TestLRUCache_Expiration(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cache := NewLRUCache[string](100, time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("expiring", "value")
	_, ok := cache.Get("expiring")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("expiring")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Size())
}

func TestLRUCache_NoTTL(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cache := NewLRUCache[string](100, 0)
	cache.now = func() time.Time { return now }

	cache.Set("key", "value")
	now = now.Add(24 * time.Hour)
	_, ok := cache.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 0, cache.CleanupExpired())
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache[string](3, 0)

	cache.Set("key1", "1")
	cache.Set("key2", "2")
	cache.Set("key3", "3")
	assert.Equal(t, 3, cache.Size())

	// Access key1 to make it recently used
	cache.Get("key1")

	// Add new entry, should evict key2 (LRU)
	cache.Set("key4", "4")
	assert.Equal(t, 3, cache.Size())

	_, ok := cache.Get("key2")
	assert.False(t, ok)

	_, ok = cache.Get("key1")
	assert.True(t, ok)
}

func TestLRUCache_Invalidate(t *testing.T) {
	cache := NewLRUCache[string](100, 0)

	t.Run("ExactMatch", func(t *testing.T) {
		cache.Set("en-us|a", "1")
		cache.Set("en-us|b", "2")

		assert.Equal(t, 1, cache.Invalidate("en-us|a"))

		_, ok := cache.Get("en-us|a")
		assert.False(t, ok)
		_, ok = cache.Get("en-us|b")
		assert.True(t, ok)
	})

	t.Run("WildcardPattern", func(t *testing.T) {
		cache.Clear()
		cache.Set("en-us|a", "1")
		cache.Set("en-us|b", "2")
		cache.Set("fr-fr|a", "3")

		assert.Equal(t, 2, cache.Invalidate("en-us|*"))

		_, ok := cache.Get("en-us|a")
		assert.False(t, ok)
		_, ok = cache.Get("fr-fr|a")
		assert.True(t, ok)
	})
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	cache := NewLRUCache[string](100, time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("old", "1")
	now = now.Add(30 * time.Second)
	cache.Set("new", "2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, cache.CleanupExpired())
	assert.Equal(t, 1, cache.Size())
}

func TestCache_ClonesValues(t *testing.T) {
	c := New(DefaultConfig(), cloneSlice)
	defer c.Close()

	src := []string{"a", "b"}
	got, err := c.GetOrCreate("k", func() ([]string, error) { return src, nil })
	require.NoError(t, err)

	// Mutating either the factory result or a returned value must not leak
	// into the cache.
	src[0] = "x"
	got[1] = "y"

	again, err := c.GetOrCreate("k", func() ([]string, error) {
		t.Fatal("value should be cached")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again)
}

func TestCache_GetOrCreate(t *testing.T) {
	m := observability.NewInMemoryMetrics()
	c := New(DefaultConfig(), cloneSlice, WithMetrics[[]string](m))
	defer c.Close()

	calls := 0
	factory := func() ([]string, error) {
		calls++
		return []string{"v"}, nil
	}

	first, err := c.GetOrCreate("k", factory)
	require.NoError(t, err)
	second, err := c.GetOrCreate("k", factory)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1}, c.Stats())
	assert.InDelta(t, 50.0, m.Snapshot().CacheHitRate(), 0.001)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := New(DefaultConfig(), cloneSlice)
	defer c.Close()

	boom := errors.New("boom")
	_, err := c.GetOrCreate("k", func() ([]string, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	got, err := c.GetOrCreate("k", func() ([]string, error) { return []string{"ok"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
}

func TestCache_ConcurrentMissesShareFactory(t *testing.T) {
	c := New(DefaultConfig(), cloneSlice)
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	factory := func() ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"v"}, nil
	}

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCreate("k", factory)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
	for _, r := range results {
		assert.Equal(t, []string{"v"}, r)
	}
}

func TestCache_CleanupLoop(t *testing.T) {
	c := New(Config{Capacity: 10, TTL: 20 * time.Millisecond, CleanupInterval: 10 * time.Millisecond}, cloneSlice)
	defer c.Close()

	_, err := c.GetOrCreate("k", func() ([]string, error) { return []string{"v"}, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Stats().Size)

	assert.Eventually(t, func() bool { return c.Stats().Size == 0 }, time.Second, 10*time.Millisecond)
}
