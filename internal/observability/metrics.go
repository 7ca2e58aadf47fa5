// Package observability exposes Prometheus metrics for the pollen service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pollen_http_requests_total",
			Help: "Total requests by endpoint, method, and status.",
		},
		[]string{"endpoint", "method", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pollen_http_request_duration_seconds",
			Help:    "Request latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	refreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pollen_snapshot_refresh_total",
			Help: "Snapshot refresh attempts by result.",
		},
		[]string{"result"},
	)
	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pollen_snapshot_fetch_duration_seconds",
			Help:    "Time spent downloading and decoding a forecast.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
	snapshotFetchedAt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pollen_snapshot_fetched_timestamp_seconds",
			Help: "Unix time at which the current snapshot was fetched.",
		},
	)
	snapshotTimeSteps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pollen_snapshot_time_steps",
			Help: "Length of the time axis of the current snapshot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		requestCounter,
		requestDuration,
		refreshCounter,
		refreshDuration,
		snapshotFetchedAt,
		snapshotTimeSteps,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveRequest records one served HTTP request.
func ObserveRequest(endpoint, method string, status int, elapsed time.Duration) {
	requestCounter.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveRefresh records the outcome of one fetch attempt.
func ObserveRefresh(result string, elapsed time.Duration) {
	refreshCounter.WithLabelValues(result).Inc()
	refreshDuration.Observe(elapsed.Seconds())
}

// SetSnapshot publishes the properties of the snapshot now being served.
func SetSnapshot(fetchedAt time.Time, timeSteps int) {
	snapshotFetchedAt.Set(float64(fetchedAt.Unix()))
	snapshotTimeSteps.Set(float64(timeSteps))
}
