package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/armon/go-metrics"
	prometheusMetrics "github.com/armon/go-metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "ratechain"

// Setup installs the global metrics sink: an in-memory sink dumped on SIGUSR1 fanned out with a
// prometheus sink. The returned handler exposes the prometheus registry
func Setup() (http.Handler, error) {
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(inm)

	promSink, err := prometheusMetrics.NewPrometheusSinkFrom(prometheusMetrics.PrometheusOpts{
		Name:       "ratechain_prometheus_sink",
		Expiration: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("prometheus sink: %w", err)
	}

	metricsConf := metrics.DefaultConfig(serviceName)
	metricsConf.EnableHostname = false

	if _, err := metrics.NewGlobal(metricsConf, metrics.FanoutSink{inm, promSink}); err != nil {
		return nil, fmt.Errorf("metrics global: %w", err)
	}

	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		),
	), nil
}
