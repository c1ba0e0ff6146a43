package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/storefront/backend/internal/domain"
)

// DefaultSize bounds the cache when no size is configured
const DefaultSize = 1024

// MemoryCache is a thread-safe, bounded LRU cache of search results with TTL support
type MemoryCache struct {
	lru    *expirable.LRU[string, *domain.SearchResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache usage (for debugging/monitoring)
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewMemoryCache creates a cache holding at most size results, each for ttl.
// size <= 0 uses DefaultSize; ttl <= 0 keeps entries until evicted or purged.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultSize
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.SearchResult](size, nil, ttl),
	}
}

// Get retrieves a result from the cache
func (c *MemoryCache) Get(key string) (*domain.SearchResult, error) {
	result, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, domain.ErrCacheMiss
	}
	c.hits.Add(1)
	return result, nil
}

// Set stores a result, evicting the least recently used entry when full
func (c *MemoryCache) Set(key string, result *domain.SearchResult) {
	if result == nil {
		return
	}
	c.lru.Add(key, result)
}

// Purge removes all items from the cache
func (c *MemoryCache) Purge() {
	c.lru.Purge()
}

// Size returns the current number of items in the cache
func (c *MemoryCache) Size() int {
	return c.lru.Len()
}

// Stats returns a usage snapshot
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Size:   c.lru.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}
