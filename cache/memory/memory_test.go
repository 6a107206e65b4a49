package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/ratechain/cache"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.Get(ctx, "exchange:USD:EUR"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`{"rate":0.92}`)
	if err := c.Set(ctx, "exchange:USD:EUR", value, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	value[0] = 'x'

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
	c := New(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Set(ctx, "exchange:USD:TRY", []byte(`{}`), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if _, err := c.Get(ctx, "exchange:USD:TRY"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}
