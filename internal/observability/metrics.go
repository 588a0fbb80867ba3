package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// collection pipeline.
type Metrics struct {
	SpeciesCollected *prometheus.CounterVec // labels: source, category
	FamiliesSkipped  *prometheus.CounterVec // labels: source
	EnrichFailures   *prometheus.CounterVec // labels: source
	RecordsWritten   *prometheus.CounterVec // labels: sink
	PipelineRunning  prometheus.Gauge

	// Source API call metrics.
	APIRequests        *prometheus.CounterVec   // labels: source, outcome={success,http_error,error}
	APIRequestDuration *prometheus.HistogramVec // labels: source
	TaxaCache          *prometheus.CounterVec   // labels: result={hit,miss}

	RunDuration *prometheus.HistogramVec // labels: source
}

// NewMetrics creates and registers all collector metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SpeciesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "species_collected_total",
			Help:      "Species records accumulated, by source and normalized category.",
		}, []string{"source", "category"}),
		FamiliesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "families_skipped_total",
			Help:      "Family queries abandoned after a resolve or list failure.",
		}, []string{"source"}),
		EnrichFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "enrich_failures_total",
			Help:      "Per-record enrichment failures absorbed during a run.",
		}, []string{"source"}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "records_written_total",
			Help:      "Species records handed to each sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bee_etl",
			Name:      "pipeline_running",
			Help:      "1 while a collection run is active, 0 otherwise.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "api_requests_total",
			Help:      "Source API requests by outcome.",
		}, []string{"source", "outcome"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bee_etl",
			Name:      "api_request_duration_seconds",
			Help:      "Source API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		TaxaCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bee_etl",
			Name:      "taxa_cache_total",
			Help:      "Taxon resolution cache lookups by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bee_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete per-source collection run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}, []string{"source"}),
	}

	prometheus.MustRegister(
		m.SpeciesCollected,
		m.FamiliesSkipped,
		m.EnrichFailures,
		m.RecordsWritten,
		m.PipelineRunning,
		m.APIRequests,
		m.APIRequestDuration,
		m.TaxaCache,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SpeciesCollected: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "species_collected_total"}, []string{"source", "category"}),
		FamiliesSkipped:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "families_skipped_total"}, []string{"source"}),
		EnrichFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "enrich_failures_total"}, []string{"source"}),
		RecordsWritten:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "records_written_total"}, []string{"sink"}),
		PipelineRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "bee_etl", Name: "pipeline_running"}),
		APIRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "api_requests_total"}, []string{"source", "outcome"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bee_etl", Name: "api_request_duration_seconds",
		}, []string{"source"}),
		TaxaCache: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "bee_etl", Name: "taxa_cache_total"}, []string{"result"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bee_etl", Name: "run_duration_seconds",
		}, []string{"source"}),
	}
}
