// Package metrics exposes Prometheus instrumentation for partition searches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "balancer"

// Search outcomes.
const (
	OutcomeSolved     = "solved"
	OutcomeNoSolution = "no_solution"
	OutcomeRejected   = "rejected"
	OutcomeTimeout    = "timeout"
)

// Recorder collects search metrics on its own registry so several instances
// can coexist (one per application, one per test).
type Recorder struct {
	registry *prometheus.Registry

	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	itemsPerSearch prometheus.Histogram
}

// NewRecorder creates a Recorder with Go runtime and process collectors attached.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		searchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Partition searches by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Wall time spent searching for the best partition",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"mode"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		itemsPerSearch: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "items_per_search",
				Help:      "Number of items submitted per search",
				Buckets:   prometheus.LinearBuckets(8, 8, 8),
			},
		),
	}
}

// ObserveSearch records one finished search.
func (r *Recorder) ObserveSearch(mode, outcome string, items int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.searchesTotal.WithLabelValues(mode, outcome).Inc()
	r.searchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	r.itemsPerSearch.Observe(float64(items))
}

// ObserveCacheLookup records a cache hit or miss.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
