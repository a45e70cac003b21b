package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guardian"

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	threats         *prometheus.CounterVec
	dispatches      *prometheus.CounterVec
	archiveAttempts *prometheus.CounterVec
	processDuration prometheus.Histogram
}

// NewMetrics creates the collectors on a private registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		threats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_processed_total",
			Help:      "Content items processed, by threat level.",
		}, []string{"level"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_dispatch_total",
			Help:      "Alert channel results, by channel and status.",
		}, []string{"channel", "status"}),
		archiveAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_attempts_total",
			Help:      "Source URL archival attempts, by outcome.",
		}, []string{"outcome"}),
		processDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "End-to-end duration of threat processing.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.threats,
		m.dispatches,
		m.archiveAttempts,
		m.processDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ThreatProcessed records one completed ProcessThreat call.
func (m *Metrics) ThreatProcessed(level string, took time.Duration) {
	if m == nil {
		return
	}
	m.threats.WithLabelValues(level).Inc()
	m.processDuration.Observe(took.Seconds())
}

// AlertDispatched records one channel result.
func (m *Metrics) AlertDispatched(channel, status string) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(channel, status).Inc()
}

// ArchiveAttempted records an archival outcome ("archived" or "failed").
func (m *Metrics) ArchiveAttempted(outcome string) {
	if m == nil {
		return
	}
	m.archiveAttempts.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry as a Gatherer for tests and exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
