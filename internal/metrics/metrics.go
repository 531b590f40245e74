// Placemark - User Places API with Geocoding and Transactional Ownership
// Copyright 2026 Placemark Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placemark-app/placemark

// Package metrics provides Prometheus metrics for the Placemark server.
// Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Geocoder upstream metrics
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoding provider calls",
		},
		[]string{"outcome"}, // success, no_match, unavailable, rejected
	)

	GeocodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geocode_request_duration_seconds",
			Help:    "Geocoding provider call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	GeocodeBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geocode_breaker_state",
			Help: "Geocoder circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
	)

	// Store transaction metrics
	StoreTxnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_transactions_total",
			Help: "Total number of store transactions",
		},
		[]string{"operation", "outcome"}, // operation: create_user, create_place, update_place, delete_place
	)

	// Media cleanup metrics
	MediaCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_cleanup_failures_total",
			Help: "Total number of failed best-effort media removals",
		},
	)
)

// RecordHTTPRequest records counters and latency for a completed request.
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}
