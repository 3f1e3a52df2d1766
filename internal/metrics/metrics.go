// Package metrics exposes Prometheus instruments for the chat relay.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	completions        *prometheus.CounterVec
	completionDuration prometheus.Histogram
	evictions          prometheus.Counter
	rejections         prometheus.Counter
}

// New creates and registers the instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arrifai_completions_total",
			Help: "Completion calls by outcome (ok or failure kind).",
		}, []string{"outcome"}),
		completionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arrifai_completion_duration_seconds",
			Help:    "Latency of completion provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arrifai_session_evictions_total",
			Help: "Sessions removed by capacity or TTL.",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arrifai_admission_rejections_total",
			Help: "Chat requests rejected by the admission policy.",
		}),
	}
	reg.MustRegister(
		m.completions,
		m.completionDuration,
		m.evictions,
		m.rejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCompletion records one provider call. outcome is "ok" or a failure kind.
func (m *Metrics) ObserveCompletion(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(outcome).Inc()
	m.completionDuration.Observe(latency.Seconds())
}

// TrackSessions registers a gauge reading the live session count at scrape time.
func (m *Metrics) TrackSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "arrifai_sessions",
		Help: "Live sessions in the session store.",
	}, func() float64 { return float64(count()) }))
}

// IncEvictions counts one evicted session.
func (m *Metrics) IncEvictions() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

// IncRejections counts one rejected request.
func (m *Metrics) IncRejections() {
	if m == nil {
		return
	}
	m.rejections.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
