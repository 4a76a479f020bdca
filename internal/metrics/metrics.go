package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application metrics. Registered once at init via promauto.
var (
	// Lookup metrics
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinyldex_lookups_total",
			Help: "Total number of metadata lookups by provider and cache outcome",
		},
		[]string{"provider", "cache"},
	)
	LookupDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vinyldex_lookup_duration_seconds",
			Help: "Duration of provider lookups in seconds",
		},
		[]string{"provider"},
	)

	// Job metrics
	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vinyldex_job_duration_seconds",
			Help: "Duration of background jobs in seconds",
		},
		[]string{"queue", "type", "status"},
	)

	// Collection metrics
	RecordsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinyldex_records_created_total",
			Help: "Total number of records added to collections",
		},
	)

	// Health metrics
	HealthStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vinyldex_health_status",
			Help: "Health status of dependencies (1=ok, 0=down)",
		},
		[]string{"dependency"},
	)
)

// RecordLookup records one metadata lookup against a provider
func RecordLookup(provider string, cacheHit bool, durationSeconds float64) {
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	LookupsTotal.WithLabelValues(provider, outcome).Inc()
	if !cacheHit {
		LookupDurationSeconds.WithLabelValues(provider).Observe(durationSeconds)
	}
}
