package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// feed, the alert scheduler and housekeeping.
type Metrics struct {
	// Feed metrics.
	FeedCache        *prometheus.CounterVec   // labels: result={hit,miss,shared}
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={feed,neo}, outcome={success,error,not_found,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint={feed,neo}

	// Alert scheduler metrics.
	AlertRuns        *prometheus.CounterVec // labels: outcome={completed,aborted,skipped}
	AlertRunDuration prometheus.Histogram
	AlertsCreated    prometheus.Counter
	AlertErrors      prometheus.Counter
	PublishErrors    prometheus.Counter

	// Housekeeping.
	AlertsPurged prometheus.Counter
	CacheEntries prometheus.Gauge

	// HTTP API.
	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg. Commands
// that never expose /metrics pass a private registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "feed_cache_total",
			Help:      "Feed cache lookups by result.",
		}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "upstream_requests_total",
			Help:      "NeoWs requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cosmic_watch",
			Name:      "upstream_duration_seconds",
			Help:      "NeoWs request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"endpoint"}),
		AlertRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "alert_runs_total",
			Help:      "Alert check runs by outcome.",
		}, []string{"outcome"}),
		AlertRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cosmic_watch",
			Name:      "alert_run_duration_seconds",
			Help:      "Duration of a complete alert check run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "alerts_created_total",
			Help:      "Alert records newly inserted.",
		}),
		AlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "alert_errors_total",
			Help:      "Per-user or per-object failures during alert runs.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "alert_publish_errors_total",
			Help:      "Alert events that could not be published to Kafka.",
		}),
		AlertsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "alerts_purged_total",
			Help:      "Read alerts removed by retention.",
		}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cosmic_watch",
			Name:      "feed_cache_entries",
			Help:      "Live feed snapshots held in memory.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmic_watch",
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cosmic_watch",
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.FeedCache,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.AlertRuns,
		m.AlertRunDuration,
		m.AlertsCreated,
		m.AlertErrors,
		m.PublishErrors,
		m.AlertsPurged,
		m.CacheEntries,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
