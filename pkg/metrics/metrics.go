package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config represents metrics configuration.
type Config struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	Path      string `json:"path" yaml:"path" mapstructure:"path"`
}

// Collector holds the engine's metrics behind a private registry.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	OperationsTotal     *prometheus.CounterVec
	ReportDuration      prometheus.Histogram
	ReportSizeBytes     prometheus.Histogram
	RegisterTransitions *prometheus.CounterVec
	CacheOperations     *prometheus.CounterVec
}

// NewCollector creates a metrics collector with its own registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
	}

	c.OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total engine operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	c.ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_generation_seconds",
			Help:      "Report generation duration",
			Buckets:   prometheus.DefBuckets,
		},
	)

	c.ReportSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_size_bytes",
			Help:      "Generated report document size",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	c.RegisterTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "register_transitions_total",
			Help:      "Risk register auto transitions by kind",
		},
		[]string{"kind"},
	)

	c.CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Statistics cache operations by result",
		},
		[]string{"operation", "result"},
	)

	c.registry.MustRegister(
		c.OperationsTotal,
		c.ReportDuration,
		c.ReportSizeBytes,
		c.RegisterTransitions,
		c.CacheOperations,
	)

	return c
}

// Handler returns the HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation counts one engine operation.
func (c *Collector) RecordOperation(operation, outcome string) {
	c.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}
