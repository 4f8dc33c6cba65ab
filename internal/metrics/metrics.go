// Package metrics exposes Prometheus instrumentation for indexing, search, rumination and embedding calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "insights"

// Metrics bundles the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	IndexBuildsTotal       *prometheus.CounterVec
	IndexBuildDuration     prometheus.Histogram
	IndexDocuments         prometheus.Gauge
	SearchesTotal          *prometheus.CounterVec
	SearchDuration         prometheus.Histogram
	DenseFallbacksTotal    *prometheus.CounterVec
	RuminationRunsTotal    *prometheus.CounterVec
	RuminationSuggestions  prometheus.Gauge
	EmbeddingRequestsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_builds_total",
				Help:      "Total number of index builds by outcome",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_build_duration_seconds",
				Help:      "Index build duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_documents",
				Help:      "Number of documents in the published index",
			},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of searches by scoring path",
			},
			[]string{"path"}, // "dense" / "lexical" / "empty"
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DenseFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dense_fallbacks_total",
				Help:      "Dense embedding failures that fell back to TF-IDF",
			},
			[]string{"stage"}, // "index" / "search"
		),
		RuminationRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rumination_runs_total",
				Help:      "Rumination ticks by result",
			},
			[]string{"result"},
		),
		RuminationSuggestions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rumination_suggestions",
				Help:      "Suggestions produced by the last completed scan",
			},
		),
		EmbeddingRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_requests_total",
				Help:      "Total number of embedding requests",
			},
			[]string{"provider", "status"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.IndexBuildsTotal,
			m.IndexBuildDuration,
			m.IndexDocuments,
			m.SearchesTotal,
			m.SearchDuration,
			m.DenseFallbacksTotal,
			m.RuminationRunsTotal,
			m.RuminationSuggestions,
			m.EmbeddingRequestsTotal,
		)
	}
	return m
}

// ObserveBuild records one index build. documents is only published on success.
func (m *Metrics) ObserveBuild(status string, took time.Duration, documents int) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.WithLabelValues(status).Inc()
	m.IndexBuildDuration.Observe(took.Seconds())
	if status == "success" {
		m.IndexDocuments.Set(float64(documents))
	}
}

// ObserveSearch records one search and the path that produced its results.
func (m *Metrics) ObserveSearch(path string, took time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(path).Inc()
	m.SearchDuration.Observe(took.Seconds())
}

// DenseFallback counts a dense failure at the given stage.
func (m *Metrics) DenseFallback(stage string) {
	if m == nil {
		return
	}
	m.DenseFallbacksTotal.WithLabelValues(stage).Inc()
}

// ObserveRumination records a tick outcome. suggestions is only published for completed scans.
func (m *Metrics) ObserveRumination(result string, suggestions int) {
	if m == nil {
		return
	}
	m.RuminationRunsTotal.WithLabelValues(result).Inc()
	if result == "completed" {
		m.RuminationSuggestions.Set(float64(suggestions))
	}
}

// EmbeddingRequest counts one embedding call.
func (m *Metrics) EmbeddingRequest(provider, status string) {
	if m == nil {
		return
	}
	m.EmbeddingRequestsTotal.WithLabelValues(provider, status).Inc()
}
