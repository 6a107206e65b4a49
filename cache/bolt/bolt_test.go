package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/ratechain/cache"
)

type testClock struct {
	mtx sync.Mutex
	t   time.Time
}

func (c *testClock) now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t = c.t.Add(d)
}

func openTestCache(t *testing.T) (*Cache, *testClock) {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "rates.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	clock := &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now

	return c, clock
}

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := openTestCache(t)

	if _, err := c.Get(ctx, "exchange:USD:EUR"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := c.Set(ctx, "exchange:USD:EUR", []byte(`{"rate":0.92}`), 4*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	b, err := c.Get(ctx, "exchange:USD:EUR")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if diff := cmp.Diff([]byte(`{"rate":0.92}`), b); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, clock := openTestCache(t)

	if err := c.Set(ctx, "exchange:USD:TRY", []byte(`{}`), 2*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.advance(2*time.Hour - time.Second)
	if _, err := c.Get(ctx, "exchange:USD:TRY"); err != nil {
		t.Fatalf("expected entry before expiry, got %v", err)
	}

	clock.advance(time.Second)
	if _, err := c.Get(ctx, "exchange:USD:TRY"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestCache_DeleteExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, clock := openTestCache(t)

	for key, ttl := range map[string]time.Duration{
		"exchange:USD:EUR": 4 * time.Hour,
		"exchange:USD:TRY": 2 * time.Hour,
		"exchange:TRY:NGN": 2 * time.Hour,
		"exchange:NGN:TRY": time.Hour,
	} {
		if err := c.Set(ctx, key, []byte(`{}`), ttl); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	clock.advance(3 * time.Hour)

	n, err := c.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}

	if diff := cmp.Diff(3, n); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	if _, err := c.Get(ctx, "exchange:USD:EUR"); err != nil {
		t.Errorf("expected major pair to survive, got %v", err)
	}
}

func TestCache_GetKeepsRecordWrittenAfterExpiredRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, clock := openTestCache(t)

	if err := c.Set(ctx, "exchange:USD:EUR", []byte(`{"rate":0.90}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	clock.advance(2 * time.Minute)

	// a concurrent write-through lands between the read transaction and the delete
	armed := true
	c.now = func() time.Time {
		if armed {
			armed = false
			if err := c.Set(ctx, "exchange:USD:EUR", []byte(`{"rate":0.92}`), time.Hour); err != nil {
				t.Errorf("concurrent set: %v", err)
			}
		}
		return clock.now()
	}

	if _, err := c.Get(ctx, "exchange:USD:EUR"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for the expired read, got %v", err)
	}

	got, err := c.Get(ctx, "exchange:USD:EUR")
	if err != nil {
		t.Fatalf("fresh record was deleted: %v", err)
	}

	if diff := cmp.Diff(`{"rate":0.92}`, string(got)); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
