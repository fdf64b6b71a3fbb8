// Package ttlcache is a small in-process key/value cache whose entries
// expire a fixed duration after they are set.
package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	expiry time.Time
}

type Cache[V any] struct {
	mu    sync.Mutex
	items map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
}

// New returns a cache with the given entry lifetime. A nil clock means time.Now.
func New[V any](ttl time.Duration, now func() time.Time) *Cache[V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{items: make(map[string]entry[V]), ttl: ttl, now: now}
}

func (c *Cache[V]) TTL() time.Duration { return c.ttl }

func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: v, expiry: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Get returns the live value for key. An expired entry is removed on the way.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if ok && c.now().Before(it.expiry) {
		return it.value, true
	}
	delete(c.items, key)
	var zero V
	return zero, false
}

// ClearExpired sweeps every expired entry and reports how many went.
func (c *Cache[V]) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, it := range c.items {
		if !now.Before(it.expiry) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

// Len counts stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
