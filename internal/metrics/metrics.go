// Package metrics exposes Prometheus metrics for documentation sync runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the sync pipeline metrics
type Metrics struct {
	DocumentsTotal *prometheus.CounterVec
	SyncDuration   *prometheus.HistogramVec
	RetriesTotal   *prometheus.CounterVec
	SchemaErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the metrics and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apidocs",
				Subsystem: "sync",
				Name:      "documents_total",
				Help:      "Documents handled by the synchronizer, by result",
			},
			[]string{"collection", "result"},
		),

		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apidocs",
				Subsystem: "sync",
				Name:      "duration_seconds",
				Help:      "Duration of sync batches in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apidocs",
				Subsystem: "store",
				Name:      "retries_total",
				Help:      "Store operations retried after a transient failure",
			},
			[]string{"operation"},
		),

		SchemaErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apidocs",
				Subsystem: "schema",
				Name:      "errors_total",
				Help:      "Schema files that could not be loaded",
			},
			[]string{"schema"},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DocumentsTotal,
		m.SyncDuration,
		m.RetriesTotal,
		m.SchemaErrors,
	)
	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordDocument counts one synchronized document. Nil receivers are no-ops.
func (m *Metrics) RecordDocument(collection, result string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(collection, result).Inc()
}

// RecordSync observes the duration of a batch
func (m *Metrics) RecordSync(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRetry counts a retried store operation
func (m *Metrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(operation).Inc()
}

// RecordSchemaError counts a schema file that failed to load
func (m *Metrics) RecordSchemaError(schema string) {
	if m == nil {
		return
	}
	m.SchemaErrors.WithLabelValues(schema).Inc()
}
