package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/robotomize/ratechain/cache"
)

const DefaultCleanupInterval = 10 * time.Minute

var _ cache.Backend = (*Cache)(nil)

// New returns an in-process backend. Expired entries are invisible to Get immediately and are
// evicted every cleanupInterval
func New(cleanupInterval time.Duration) *Cache {
	return &Cache{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

type Cache struct {
	c *gocache.Cache
}

func (m *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}

	b, ok := v.([]byte)
	if !ok {
		return nil, cache.ErrNotFound
	}

	return append([]byte(nil), b...), nil
}

func (m *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	m.c.Set(key, append([]byte(nil), value...), ttl)

	return nil
}

func (m *Cache) Close() error {
	m.c.Flush()
	return nil
}
