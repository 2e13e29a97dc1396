// Package metrics exposes Prometheus instrumentation for queries and bound
// builds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protweight_queries_total",
		Help: "Weight queries by algorithm and outcome",
	}, []string{"algorithm", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protweight_query_duration_seconds",
		Help:    "Weight query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
	}, []string{"algorithm"})

	queryPaths = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "protweight_query_paths",
		Help:    "Verified paths returned per query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	edgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protweight_search_edges_total",
		Help: "Edges considered by searches, by prune outcome",
	}, []string{"result"})

	boundBuilds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "protweight_bound_build_duration_seconds",
		Help:    "Reachability bound build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})

	boundLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protweight_bound_lookups_total",
		Help: "Bound cache lookups by source",
	}, []string{"source"})
)

// Outcomes of a query.
const (
	OutcomeOK       = "ok"
	OutcomeTimedOut = "timed_out"
	OutcomeError    = "error"
)

// ObserveQuery records one finished query.
func ObserveQuery(algorithm, outcome string, took time.Duration, paths int) {
	queriesTotal.WithLabelValues(algorithm, outcome).Inc()
	queryDuration.WithLabelValues(algorithm).Observe(took.Seconds())
	if outcome != OutcomeError {
		queryPaths.Observe(float64(paths))
	}
}

// ObserveSearch records the edge counters of one search.
func ObserveSearch(expanded, pruned, rejected int64) {
	edgesTotal.WithLabelValues("admitted").Add(float64(expanded - pruned))
	edgesTotal.WithLabelValues("pruned").Add(float64(pruned))
	edgesTotal.WithLabelValues("rejected_path").Add(float64(rejected))
}

// ObserveBoundBuild records one bound build.
func ObserveBoundBuild(took time.Duration) {
	boundBuilds.Observe(took.Seconds())
}

// ObserveBoundLookup records where a bound table came from.
func ObserveBoundLookup(source string) {
	boundLookups.WithLabelValues(source).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
