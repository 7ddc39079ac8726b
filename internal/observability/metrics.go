package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion,
// queries, and sinks.
type Metrics struct {
	CyclesTotal    prometheus.Counter
	CycleDuration  prometheus.Histogram
	FallbackCycles prometheus.Counter
	StaleCommits   prometheus.Counter
	EventsCurrent  prometheus.Gauge
	RefresherUp    prometheus.Gauge

	// Per-source ingestion metrics.
	SourceEvents *prometheus.CounterVec   // labels: source
	SourceErrors *prometheus.CounterVec   // labels: source
	SourceFetch  *prometheus.HistogramVec // labels: source

	// Downstream metrics.
	SinkErrors   *prometheus.CounterVec // labels: sink
	ExportsTotal *prometheus.CounterVec // labels: outcome={written,empty}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method=reverse, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: method=reverse, result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "ingest_cycles_total",
			Help:      "Total completed ingestion cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Duration of a complete ingestion cycle across all sources.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FallbackCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "ingest_fallback_cycles_total",
			Help:      "Cycles in which every source failed and the fallback table was used.",
		}),
		StaleCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "ingest_stale_commits_total",
			Help:      "Cycle results dropped because a newer cycle had already committed.",
		}),
		EventsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazardwatch",
			Name:      "events_current",
			Help:      "Number of events in the current snapshot.",
		}),
		RefresherUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazardwatch",
			Name:      "refresher_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		SourceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "source_events_total",
			Help:      "Events contributed by each source.",
		}, []string{"source"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "source_errors_total",
			Help:      "Failed fetches by source.",
		}, []string{"source"}),
		SourceFetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hazardwatch",
			Name:      "source_fetch_duration_seconds",
			Help:      "Fetch duration per source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"source"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "sink_errors_total",
			Help:      "Failed sink writes by sink.",
		}, []string{"sink"}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "exports_total",
			Help:      "CSV export requests by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazardwatch",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CyclesTotal,
		m.CycleDuration,
		m.FallbackCycles,
		m.StaleCommits,
		m.EventsCurrent,
		m.RefresherUp,
		m.SourceEvents,
		m.SourceErrors,
		m.SourceFetch,
		m.SinkErrors,
		m.ExportsTotal,
		m.GeocodeRequests,
		m.GeocodeCache,
	}
}
