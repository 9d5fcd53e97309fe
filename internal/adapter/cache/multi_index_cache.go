package cache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cacheable values are reachable through several keys, i.e. an item by its
// id and by its edition.
type Cacheable interface {
	CacheKeys() []string
}

type MultiIndexCache[V Cacheable] struct {
	cache *expirable.LRU[string, V]
	mu    sync.RWMutex
}

func NewMultiIndexCache[V Cacheable](size int, ttl time.Duration) *MultiIndexCache[V] {
	cache := expirable.NewLRU[string, V](size, nil, ttl)
	return &MultiIndexCache[V]{
		cache: cache,
	}
}

func (c *MultiIndexCache[V]) Add(value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range value.CacheKeys() {
		c.cache.Add(key, value)
	}
}

func (c *MultiIndexCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cache.Get(key)
}

// Remove evicts the keys and all the other keys of the values stored under
// them.
func (c *MultiIndexCache[V]) Remove(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		value, ok := c.cache.Peek(key)
		if ok {
			for _, k := range value.CacheKeys() {
				c.cache.Remove(k)
			}
		}

		c.cache.Remove(key)
	}
}

func (c *MultiIndexCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
}

func (c *MultiIndexCache[V]) Len() int {
	return c.cache.Len()
}
