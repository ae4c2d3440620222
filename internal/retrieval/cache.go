package retrieval

import (
	"context"
	"sync"
	"time"
)

// cacheEntry is one cached embedding.
type cacheEntry struct {
	vector       []float32
	expiresAt    time.Time
	lastAccessed time.Time
}

// CacheStats is a point-in-time view of cache effectiveness, exposed on
// the debug surface.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// CachedEmbedder decorates an Embedder with an exact-text cache.
//
// Entries live for a TTL and the cache is bounded; inserting past the
// bound evicts the least recently used entry. Thread-safe.
type CachedEmbedder struct {
	inner Embedder

	mu         sync.Mutex
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	now        func() time.Time
}

// NewCachedEmbedder wraps inner with a TTL+LRU cache.
func NewCachedEmbedder(inner Embedder, ttl time.Duration, maxEntries int) *CachedEmbedder {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedEmbedder{
		inner:      inner,
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Embed returns the cached vector for text, or delegates to the wrapped
// embedder and caches the result.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if e, ok := c.entries[text]; ok {
		if c.now().Before(e.expiresAt) {
			e.lastAccessed = c.now()
			c.hits++
			vector := e.vector
			c.mu.Unlock()
			return vector, nil
		}
		delete(c.entries, text)
	}
	c.misses++
	c.mu.Unlock()

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[text]; !exists {
			c.evictLRU()
		}
	}
	now := c.now()
	c.entries[text] = &cacheEntry{
		vector:       vector,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
	return vector, nil
}

// Stats returns a snapshot of cache counters.
func (c *CachedEmbedder) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}

// evictLRU removes the least recently used entry.
// Caller must hold the lock.
func (c *CachedEmbedder) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, e := range c.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessed
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
