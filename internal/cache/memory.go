package cache

import (
	"container/list"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process tier: go-cache for TTL expiry plus an LRU
// list bounding the entry count. When the bound is exceeded the least
// recently used key is evicted.
type MemoryCache struct {
	cache      *gocache.Cache
	maxEntries int

	mu    sync.Mutex
	order *list.List               // front is most recently used
	elems map[string]*list.Element // key to list position
}

// NewMemoryCache creates a bounded memory cache
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		maxEntries: maxEntries,
		order:      list.New(),
		elems:      make(map[string]*list.Element),
	}
}

// Get retrieves a value and marks the key as recently used
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	elem, tracked := c.elems[key]
	if !found {
		// TTL expiry happens inside go-cache; drop the stale LRU entry
		if tracked {
			c.order.Remove(elem)
			delete(c.elems, key)
		}
		return nil, false
	}
	if tracked {
		c.order.MoveToFront(elem)
	}
	return val.([]byte), true
}

// Set stores a value with the given TTL, evicting the least recently used
// entry when the cache is full
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.elems[key]; ok {
		c.order.MoveToFront(elem)
		return nil
	}
	c.elems[key] = c.order.PushFront(key)
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		oldestKey := oldest.Value.(string)
		c.order.Remove(oldest)
		delete(c.elems, oldestKey)
		c.cache.Delete(oldestKey)
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.elems[key]; ok {
		c.order.Remove(elem)
		delete(c.elems, key)
	}
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.elems = make(map[string]*list.Element)
	return nil
}

// Len returns the number of tracked entries
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
