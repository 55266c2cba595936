// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Duration of timed service and adapter operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "result"},
	)

	// outcome: written, no_payload, lookup_failed, write_failed, dead_letter, panic
	EnrichmentJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_jobs_total",
			Help: "Popular-times enrichment jobs by outcome",
		},
		[]string{"outcome"},
	)

	EnrichmentQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "enrichment_queue_depth",
			Help: "Jobs waiting in the enrichment queue",
		},
	)

	PlacesRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_requests_total",
			Help: "Outbound places provider requests by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	PlacesCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_cache_lookups_total",
			Help: "Places cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	QRRedirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_redirects_total",
			Help: "QR redirect requests by result",
		},
		[]string{"result"},
	)

	VideoViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_views_recorded_total",
			Help: "Video view events recorded",
		},
	)
)

func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordOperation(op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OperationDuration.WithLabelValues(op, result).Observe(d.Seconds())
}
