package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var (
	// Store latency buckets in milliseconds
	latencyBuckets = []float64{
		0.5, 1, 2.5, // In-process stores
		5, 10, 25, // Redis on the same network
		50, 100, 250, // Degraded, up to the store timeout
		500, 1000,
	}

	AdmissionDecisionsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissiongate_decisions_total",
			Help: "Total number of admission decisions by category and outcome",
		},
		[]string{"category", "outcome"}, // outcome: allowed, denied, fail_open, fail_closed
	)

	AdmissionStoreLatency = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admissiongate_store_latency_ms",
			Help:    "Counter store latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"backend"},
	)

	AdmissionStoreErrors = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissiongate_store_errors_total",
			Help: "Total number of failed counter store calls",
		},
		[]string{"backend"},
	)
)

type MetricsConfig struct {
	Enabled bool
}

var Config MetricsConfig

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Registry() *prometheus.Registry {
	return registry
}
