package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockSense/internal/model"
)

// Metrics holds all Prometheus metrics for the analysis service.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: source
	AnalysisDuration prometheus.Histogram
	PatternsTotal    *prometheus.CounterVec // labels: pattern, sentiment
	NarrativeTotal   *prometheus.CounterVec // labels: status
	FetchErrors      prometheus.Counter
	RecordErrors     prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers and returns all metrics. A nil registry uses a fresh one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksense_analyses_total",
			Help: "Total analyses completed, by request source",
		}, []string{"source"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stocksense_analysis_duration_seconds",
			Help:    "Time spent producing one analysis, including fetch and narrative",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PatternsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksense_patterns_detected_total",
			Help: "Reported candlestick patterns",
		}, []string{"pattern", "sentiment"}),
		NarrativeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocksense_narrative_total",
			Help: "Narrative outcomes by insight status",
		}, []string{"status"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksense_fetch_errors_total",
			Help: "Failed bar fetches from the data source",
		}),
		RecordErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksense_record_errors_total",
			Help: "Failed writes to the analysis history",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksense_cache_hits_total",
			Help: "Analysis cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stocksense_cache_misses_total",
			Help: "Analysis cache misses",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.PatternsTotal,
		m.NarrativeTotal,
		m.FetchErrors,
		m.RecordErrors,
		m.CacheHits,
		m.CacheMisses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis records one completed analysis.
func (m *Metrics) ObserveAnalysis(source string, r *model.AnalysisResult, elapsed time.Duration) {
	m.AnalysesTotal.WithLabelValues(source).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
	m.NarrativeTotal.WithLabelValues(string(r.InsightStatus)).Inc()
	for _, p := range r.Patterns {
		m.PatternsTotal.WithLabelValues(p.Name, string(p.Sentiment)).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
