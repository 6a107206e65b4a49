package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robotomize/ratechain/cache"
	"github.com/robotomize/ratechain/cache/bolt"
	"github.com/robotomize/ratechain/cache/memory"
	"github.com/robotomize/ratechain/cache/redis"
	"github.com/robotomize/ratechain/internal/config"
)

const sweepInterval = 10 * time.Minute

// openBackend opens the configured cache backend. The bolt backend gets an expiry sweeper that
// lives until ctx is done
func openBackend(ctx context.Context, cfg config.Cache, logger hclog.Logger) (cache.Backend, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return memory.New(memory.DefaultCleanupInterval), nil
	case config.CacheBolt:
		b, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt cache: %w", err)
		}

		go sweep(ctx, b, sweepInterval, logger)

		return b, nil
	case config.CacheRedis:
		r, err := redis.Dial(ctx, &goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("dial redis cache: %w", err)
		}

		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCacheBackend, cfg.Backend)
	}
}

type expirer interface {
	DeleteExpired() (int, error)
}

func sweep(ctx context.Context, e expirer, interval time.Duration, logger hclog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := e.DeleteExpired()
			if err != nil {
				logger.Warn("delete expired cache entries", "err", err)
				continue
			}

			logger.Debug("deleted expired cache entries", "count", n)
		}
	}
}
