package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RecordsCreated      *prometheus.CounterVec
	TransitionsApplied  *prometheus.CounterVec
	GeocodeFailures     prometheus.Counter
	GeocodeFallbacks    prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	SnapshotFanoutMs    prometheus.Histogram
	RequestDurationMs   *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics with reg. Passing a fresh
// registry keeps tests isolated; main passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanghana_records_created_total",
			Help: "Reports and pickup requests created, by record type",
		}, []string{"type"}),
		TransitionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cleanghana_transitions_applied_total",
			Help: "Lifecycle transitions applied, by record type and new status",
		}, []string{"type", "status"}),
		GeocodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cleanghana_geocode_failures_total",
			Help: "Reverse geocoding calls that failed",
		}),
		GeocodeFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "cleanghana_geocode_fallbacks_total",
			Help: "Location resolutions that used a fallback address",
		}),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cleanghana_active_subscriptions",
			Help: "Live snapshot subscriptions currently open",
		}),
		SnapshotFanoutMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cleanghana_snapshot_fanout_duration_ms",
			Help:    "Time to push one snapshot to all subscribers in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
		RequestDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cleanghana_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route", "method"}),
	}
}
