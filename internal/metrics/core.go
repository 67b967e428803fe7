package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation-core Prometheus metrics.
var (
	IndexedTitles = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cinedex",
			Name:      "indexed_titles",
			Help:      "Number of titles in the loaded similarity index",
		},
		[]string{"media_type"},
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cinedex",
			Name:      "recommend_duration_seconds",
			Help:      "Similarity scoring and catalog assembly duration in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"media_type"},
	)

	RecommendationsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinedex",
			Name:      "recommendations_served_total",
			Help:      "Total recommendation pages served",
		},
		[]string{"media_type"},
	)

	HistoryAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinedex",
			Name:      "history_appends_total",
			Help:      "Total watch-history append operations",
		},
		[]string{"media_type"},
	)

	SyncCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinedex",
			Name:      "sync_cycles_total",
			Help:      "Total external history sync cycles",
		},
		[]string{"result"}, // "ok" / "error"
	)

	SyncEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cinedex",
			Name:      "sync_entries_total",
			Help:      "Total watch entries imported by the sync worker",
		},
	)
)

var coreMetricsRegistered bool

// RegisterCoreMetrics registers core Prometheus metrics. Must be called once from main.
func RegisterCoreMetrics() {
	if coreMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexedTitles)
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(RecommendationsServed)
	prometheus.MustRegister(HistoryAppendsTotal)
	prometheus.MustRegister(SyncCyclesTotal)
	prometheus.MustRegister(SyncEntriesTotal)
	coreMetricsRegistered = true
}
