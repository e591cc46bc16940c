package react

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for the reactive
// core.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reflex").
	Namespace string

	// Subsystem is the metrics subsystem (default: "graph").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for nodes drained per flush.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the flush-size histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reflex",
		Subsystem: "graph",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus instruments for one or more graphs.
// Attach with WithMetrics; a single Metrics instance may be shared by
// every graph in a process.
type Metrics struct {
	flushesTotal       prometheus.Counter
	flushDrained       prometheus.Histogram
	recomputesTotal    *prometheus.CounterVec
	invalidationsTotal prometheus.Counter
	queueDepth         prometheus.Gauge
	timersPending      prometheus.Gauge
	sessionFailures    prometheus.Counter
}

// NewMetrics registers the reactive core's instruments and returns
// them. Registering twice on the same registry panics (a Prometheus
// property), so create one Metrics per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of completed flush cycles",
			ConstLabels: config.ConstLabels,
		}),

		flushDrained: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_nodes_drained",
			Help:        "Eager nodes re-run per flush cycle",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		recomputesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Node executions by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		invalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total dependency invalidations propagated",
			ConstLabels: config.ConstLabels,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Eager nodes currently waiting in the work queue",
			ConstLabels: config.ConstLabels,
		}),

		timersPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "timers_pending",
			Help:        "Delayed invalidations currently queued",
			ConstLabels: config.ConstLabels,
		}),

		sessionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "session_failures_total",
			Help:        "Graph sessions terminated by an observer error",
			ConstLabels: config.ConstLabels,
		}),
	}
}
