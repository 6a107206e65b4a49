package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robotomize/ratechain/cache"
	"go.etcd.io/bbolt"
)

var ExchangeRatesBucket = []byte("ExchangeRates")

var _ cache.Backend = (*Cache)(nil)

type record struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

func (r record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Open opens or creates the database file. Expired records are removed lazily on read and by
// DeleteExpired
func Open(filePath string) (*Cache, error) {
	db, err := bbolt.Open(filePath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(ExchangeRatesBucket); err != nil {
			return fmt.Errorf("could not bucket: %s, err: %w", string(ExchangeRatesBucket), err)
		}

		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, now: time.Now}, nil
}

type Cache struct {
	db  *bbolt.DB
	now func() time.Time
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	var rec record
	found := false

	if err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(ExchangeRatesBucket).Get([]byte(key))
		if v == nil {
			return nil
		}

		found = true

		return json.Unmarshal(v, &rec)
	}); err != nil {
		return nil, fmt.Errorf("bolt get %s: %w", key, err)
	}

	if !found {
		return nil, cache.ErrNotFound
	}

	if rec.expired(c.now()) {
		if err := c.deleteExpired(key); err != nil {
			return nil, err
		}

		return nil, cache.ErrNotFound
	}

	return rec.Value, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	rec := record{Value: value}
	if ttl > 0 {
		rec.ExpiresAt = c.now().Add(ttl)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("bolt encode %s: %w", key, err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(ExchangeRatesBucket).Put([]byte(key), b)
	})
}

// DeleteExpired removes every expired record and returns how many were removed
func (c *Cache) DeleteExpired() (int, error) {
	now := c.now()
	n := 0

	err := c.db.Update(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(ExchangeRatesBucket).Cursor()

		for k, v := cursor.First(); k != nil; {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || rec.expired(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}

				n++
				k, v = cursor.Seek(k)
				continue
			}

			k, v = cursor.Next()
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bolt delete expired: %w", err)
	}

	return n, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// deleteExpired removes key only if the stored record is still expired, a record written after the
// read that saw it expired is kept
func (c *Cache) deleteExpired(key string) error {
	if err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(ExchangeRatesBucket)

		v := bucket.Get([]byte(key))
		if v == nil {
			return nil
		}

		var rec record
		if err := json.Unmarshal(v, &rec); err == nil && !rec.expired(c.now()) {
			return nil
		}

		return bucket.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("bolt delete %s: %w", key, err)
	}

	return nil
}
