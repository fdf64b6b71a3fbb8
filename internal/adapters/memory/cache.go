// Package memory is the in-process domain.Cache used when no Redis is configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/ttlcache"
)

// Cache keeps JSON bytes so callers get a private copy on every Get, the
// same as with Redis. The TTL is fixed at construction; the per-call ttl
// argument is ignored.
type Cache struct {
	c *ttlcache.Cache[[]byte]
}

func New(ttl time.Duration) *Cache {
	return &Cache{c: ttlcache.New[[]byte](ttl, nil)}
}

func (m *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := m.c.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(b, dst)
}

func (m *Cache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	observability.ObserveCache("memory", "set")
	m.c.Set(key, b)
	return nil
}

func (m *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	m.c.Delete(key)
	return nil
}

// Sweep drops expired entries; the API runs it on a ticker.
func (m *Cache) Sweep() int { return m.c.ClearExpired() }
