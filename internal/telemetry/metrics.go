package telemetry

import (
	"github.com/armon/go-metrics"
)

const (
	resolveMetricsPrefix = "resolve"
	sourceMetricsPrefix  = "source"
	cacheMetricsPrefix   = "cache"
)

const (
	FailureTransport  = "transport"
	FailureValidation = "validation"
)

// UpdateResolvedCounter counts results by the tier that produced them
func UpdateResolvedCounter(tier string) {
	metrics.IncrCounter([]string{resolveMetricsPrefix, "tier", tier}, 1)
}

func UpdateSourceFailureCounter(source, kind string) {
	metrics.IncrCounter([]string{sourceMetricsPrefix, "failure", source, kind}, 1)
}

func UpdateCacheHitCounter() {
	metrics.IncrCounter([]string{cacheMetricsPrefix, "hit"}, 1)
}

func UpdateCacheMissCounter() {
	metrics.IncrCounter([]string{cacheMetricsPrefix, "miss"}, 1)
}

func UpdateCacheErrorCounter(op string) {
	metrics.IncrCounter([]string{cacheMetricsPrefix, "error", op}, 1)
}
