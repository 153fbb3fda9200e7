package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Index Prometheus metrics.
var (
	DocumentsIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "documents_indexed_total",
			Help:      "Total number of documents written to the index",
		},
		[]string{"result"}, // "ok" / "error"
	)

	DocumentBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propdex",
			Name:      "document_build_duration_seconds",
			Help:      "Time spent mapping a property set into an index document",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		},
	)

	QueryCompileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "query_compile_total",
			Help:      "Total number of compiled query trees",
		},
		[]string{"result"}, // "ok" / "error"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propdex",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, including result mapping",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"engine"},
	)

	DefinitionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "definition_cache_total",
			Help:      "Field name to property definition cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	MapperInvalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "propdex",
			Name:      "mapper_invalidations_total",
			Help:      "Total number of mapper cache invalidations after type configuration changes",
		},
	)
)

var registerIndex sync.Once

// RegisterIndexMetrics registers the index metrics with the default registry.
func RegisterIndexMetrics() {
	registerIndex.Do(func() {
		prometheus.MustRegister(
			DocumentsIndexedTotal,
			DocumentBuildDuration,
			QueryCompileTotal,
			SearchDuration,
			DefinitionCacheTotal,
			MapperInvalidationsTotal,
		)
	})
}
