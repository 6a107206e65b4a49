package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/robotomize/ratechain/internal/logging"
	"github.com/robotomize/ratechain/internal/telemetry"
	"github.com/robotomize/ratechain/label"
	"github.com/robotomize/ratechain/rate"
)

// ErrNotFound is returned by a Backend for missing or expired keys
var ErrNotFound = errors.New("cache entry not found")

const keyPrefix = "exchange"

const (
	MajorPairTTL = 4 * time.Hour
	MinorPairTTL = 2 * time.Hour
)

// Backend is a key/value store with per-key expiry. Implementations must be safe for concurrent use
//
//go:generate mockgen -source cache.go -destination mock_backend.go -package cache
type Backend interface {
	// Get returns ErrNotFound when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key addresses the entry of a pair, e.g. exchange:USD:EUR. Both codes are upper-cased
// regardless of how they were passed in
func Key(base, target label.Symbol) string {
	return keyPrefix + ":" + strings.ToUpper(base.String()) + ":" + strings.ToUpper(target.String())
}

// TTL returns MajorPairTTL when both codes are major currencies and MinorPairTTL otherwise
func TTL(base, target label.Symbol) time.Duration {
	b := label.Symbol(strings.ToUpper(base.String()))
	t := label.Symbol(strings.ToUpper(target.String()))
	if b.IsMajor() && t.IsMajor() {
		return MajorPairTTL
	}

	return MinorPairTTL
}

type TTLFunc func(base, target label.Symbol) time.Duration

type Option func(*Store)

// WithTTLFunc replaces the default TTL policy
func WithTTLFunc(f TTLFunc) Option {
	return func(s *Store) {
		s.ttlFunc = f
	}
}

// NewStore wraps a backend into a best-effort rate cache
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ttlFunc: TTL,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Store keeps resolved rates as JSON snapshots. Backend faults are logged and never surface:
// a failed read is a miss and a failed write is a no-op
type Store struct {
	backend Backend
	ttlFunc TTLFunc
}

// Put writes e under the key of its pair with a whole-second TTL
func (s *Store) Put(ctx context.Context, e rate.ExchangeRate) {
	logger := logging.FromContext(ctx)
	key := Key(e.Base, e.Target)

	b, err := json.Marshal(e)
	if err != nil {
		telemetry.UpdateCacheErrorCounter("encode")
		logger.Warn("unable encode exchange rate, skipping cache write", "key", key, "err", err)
		return
	}

	ttl := s.ttlFunc(e.Base, e.Target).Truncate(time.Second)
	if err := s.backend.Set(ctx, key, b, ttl); err != nil {
		telemetry.UpdateCacheErrorCounter("set")
		logger.Warn("failed to write exchange rate to cache, continuing without cache",
			"key", key, "ttl", ttl, "err", err)
		return
	}

	logger.Debug("exchange rate cached", "key", key, "ttl", ttl)
}

// Get returns the entry of the pair and whether it was found
func (s *Store) Get(ctx context.Context, base, target label.Symbol) (rate.ExchangeRate, bool) {
	logger := logging.FromContext(ctx)
	key := Key(base, target)

	b, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			telemetry.UpdateCacheMissCounter()
			logger.Debug("cache miss", "key", key)
			return rate.ExchangeRate{}, false
		}

		telemetry.UpdateCacheErrorCounter("get")
		logger.Warn("cache read failed, treating as miss", "key", key, "err", err)
		return rate.ExchangeRate{}, false
	}

	var e rate.ExchangeRate
	if err := json.Unmarshal(b, &e); err != nil {
		telemetry.UpdateCacheErrorCounter("decode")
		logger.Warn("cached exchange rate is corrupted, treating as miss", "key", key, "err", err)
		return rate.ExchangeRate{}, false
	}

	telemetry.UpdateCacheHitCounter()
	logger.Debug("cache hit", "key", key)

	return e, true
}

func (s *Store) Close() error {
	return s.backend.Close()
}
