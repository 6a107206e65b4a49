package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/robotomize/ratechain/cache"
)

var _ cache.Backend = (*Cache)(nil)

// New wraps an existing client, the Cache owns it from now on
func New(client goredis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Dial connects to a single redis node and checks it answers
func Dial(ctx context.Context, opts *goredis.Options) (*Cache, error) {
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return New(client), nil
}

type Cache struct {
	client goredis.UniversalClient
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrNotFound
		}

		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	return b, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
