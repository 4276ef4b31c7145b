// Package metrics exposes resolution counters in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "songresolve"

// Metrics holds the collectors for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	queriesFinished *prometheus.CounterVec
	resultsAdded    *prometheus.CounterVec
	backendErrors   *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	indexTracks     prometheus.Gauge
	liveQueries     prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queriesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_finished_total",
			Help:      "Resolution rounds completed, by whether the query ended up solved.",
		}, []string{"solved"}),
		resultsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Results returned by each backend.",
		}, []string{"backend"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Failed backend calls.",
		}, []string{"backend"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_duration_seconds",
			Help:      "Time spent in a single backend call.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"backend"}),
		indexTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_tracks",
			Help:      "Tracks in the local collection index.",
		}),
		liveQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_queries",
			Help:      "Queries held by the web server.",
		}),
	}

	m.registry.MustRegister(
		m.queriesFinished,
		m.resultsAdded,
		m.backendErrors,
		m.backendDuration,
		m.indexTracks,
		m.liveQueries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// QueryFinished counts a completed resolution round.
func (m *Metrics) QueryFinished(solved bool) {
	if m == nil {
		return
	}
	m.queriesFinished.WithLabelValues(strconv.FormatBool(solved)).Inc()
}

// BackendDone records one backend call.
func (m *Metrics) BackendDone(backend string, results int, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(backend).Observe(took.Seconds())
	if err != nil {
		m.backendErrors.WithLabelValues(backend).Inc()
		return
	}
	m.resultsAdded.WithLabelValues(backend).Add(float64(results))
}

// SetIndexTracks reports the size of the local index.
func (m *Metrics) SetIndexTracks(n int) {
	if m == nil {
		return
	}
	m.indexTracks.Set(float64(n))
}

// SetLiveQueries reports how many queries the web server holds.
func (m *Metrics) SetLiveQueries(n int) {
	if m == nil {
		return
	}
	m.liveQueries.Set(float64(n))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
