// Package prometheus exports hypervec engine metrics in Prometheus format.
//
//	c := prometheus.NewCollector(prometheus.DefaultConfig())
//	engine, _ := hypervec.New(hypervec.WithMetricsCollector(c))
//	http.Handle("/metrics", c.Handler())
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/hypervec"
)

const namespace = "hypervec"

// Config configures the collector.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// Collector implements hypervec.MetricsCollector with Prometheus
// counters and histograms.
type Collector struct {
	registry *prometheus.Registry

	profileUpdates *prometheus.CounterVec
	profileLatency *prometheus.HistogramVec

	learned      *prometheus.CounterVec
	learnLatency prometheus.Histogram

	flushes     *prometheus.CounterVec
	flushEvents prometheus.Histogram
	published   prometheus.Counter

	queries      *prometheus.CounterVec
	queryLatency prometheus.Histogram

	persists       *prometheus.CounterVec
	persistLatency *prometheus.HistogramVec
}

var _ hypervec.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics.
func NewCollector(cfg Config) *Collector {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: registry}

	c.profileUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "updates_total",
			Help:      "Total number of profile updates",
		},
		[]string{"kind", "status"},
	)
	c.profileLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "profile",
			Name:      "update_latency_seconds",
			Help:      "Profile update latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"kind"},
	)

	c.learned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anchor",
			Name:      "vectors_total",
			Help:      "Total number of learned sparse vectors by outcome",
		},
		[]string{"action"},
	)
	c.learnLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "anchor",
			Name:      "pass_latency_seconds",
			Help:      "Clustering pass latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	c.flushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "flushes_total",
			Help:      "Total number of batch flushes",
		},
		[]string{"status"},
	)
	c.flushEvents = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "flush_events",
			Help:      "Number of events per flushed batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	c.published = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "snapshots_published_total",
			Help:      "Total number of published anchor snapshots",
		},
	)

	c.queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ann",
			Name:      "queries_total",
			Help:      "Total number of nearest neighbor queries",
		},
		[]string{"status"},
	)
	c.queryLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ann",
			Name:      "query_latency_seconds",
			Help:      "Nearest neighbor query latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	c.persists = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of persist and restore operations",
		},
		[]string{"op", "status"},
	)
	c.persistLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_latency_seconds",
			Help:      "Persist and restore latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"op"},
	)

	registry.MustRegister(
		c.profileUpdates, c.profileLatency,
		c.learned, c.learnLatency,
		c.flushes, c.flushEvents, c.published,
		c.queries, c.queryLatency,
		c.persists, c.persistLatency,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordInteraction implements hypervec.MetricsCollector.
func (c *Collector) RecordInteraction(kind string, duration time.Duration, err error) {
	c.profileUpdates.WithLabelValues(kind, status(err)).Inc()
	c.profileLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordLearn implements hypervec.MetricsCollector.
func (c *Collector) RecordLearn(created, reinforced, rejected int, duration time.Duration) {
	c.learned.WithLabelValues("created").Add(float64(created))
	c.learned.WithLabelValues("reinforced").Add(float64(reinforced))
	c.learned.WithLabelValues("rejected").Add(float64(rejected))
	c.learnLatency.Observe(duration.Seconds())
}

// RecordFlush implements hypervec.MetricsCollector.
func (c *Collector) RecordFlush(events int, published bool, err error) {
	c.flushes.WithLabelValues(status(err)).Inc()
	c.flushEvents.Observe(float64(events))
	if published {
		c.published.Inc()
	}
}

// RecordQuery implements hypervec.MetricsCollector.
func (c *Collector) RecordQuery(_ int, duration time.Duration, err error) {
	c.queries.WithLabelValues(status(err)).Inc()
	c.queryLatency.Observe(duration.Seconds())
}

// RecordPersist implements hypervec.MetricsCollector.
func (c *Collector) RecordPersist(op string, duration time.Duration, err error) {
	c.persists.WithLabelValues(op, status(err)).Inc()
	c.persistLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler returns an HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
