package telemetry

import (
	"testing"
	"time"

	"github.com/armon/go-metrics"
	"github.com/google/go-cmp/cmp"
)

func TestCounters(t *testing.T) {
	inm := metrics.NewInmemSink(time.Minute, time.Minute)
	conf := metrics.DefaultConfig("test")
	conf.EnableHostname = false
	conf.EnableRuntimeMetrics = false

	if _, err := metrics.NewGlobal(conf, inm); err != nil {
		t.Fatalf("metrics global: %v", err)
	}

	UpdateResolvedCounter("primary")
	UpdateResolvedCounter("primary")
	UpdateSourceFailureCounter("cdn.jsdelivr.net", FailureTransport)
	UpdateCacheHitCounter()
	UpdateCacheMissCounter()
	UpdateCacheErrorCounter("get")

	data := inm.Data()
	if len(data) == 0 {
		t.Fatalf("no intervals collected")
	}

	counters := data[len(data)-1].Counters

	testCases := []struct {
		name  string
		key   string
		count int
	}{
		{name: "test_resolved", key: "test.resolve.tier.primary", count: 2},
		{name: "test_source_failure", key: "test.source.failure.cdn.jsdelivr.net.transport", count: 1},
		{name: "test_cache_hit", key: "test.cache.hit", count: 1},
		{name: "test_cache_miss", key: "test.cache.miss", count: 1},
		{name: "test_cache_error", key: "test.cache.error.get", count: 1},
	}

	for _, tc := range testCases {
		c, ok := counters[tc.key]
		if !ok {
			t.Errorf("%s: counter %s not found", tc.name, tc.key)
			continue
		}

		if diff := cmp.Diff(tc.count, c.Count); diff != "" {
			t.Errorf("%s: mismatch (-want, +got):\n%s", tc.name, diff)
		}
	}
}
