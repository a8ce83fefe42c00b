// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Upstream report API
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Requests sent to the report and weather APIs",
		},
		[]string{"report", "outcome"}, // outcome: ok, http_error, no_data, not_file, transport
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of report and weather API calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"report"},
	)

	UpstreamBytesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_bytes_saved_total",
			Help: "Bytes written to the data directory per report file",
		},
		[]string{"file"},
	)

	UpstreamRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_rate_limit_hits_total",
			Help: "HTTP 429 responses received from upstream",
		},
		[]string{"report"},
	)

	// Page refreshes
	PageRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_refresh_total",
			Help: "Page refreshes by result",
		},
		[]string{"page", "result"},
	)

	PageRefreshLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "page_refresh_last_success_timestamp",
			Help: "Unix time of the last successful refresh per page",
		},
		[]string{"page"},
	)

	// Analytics
	AnalyticsComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_compute_duration_seconds",
			Help:    "Time spent loading files and building page results",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"page"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Analytics cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Analytics cache misses",
		},
		[]string{"cache"},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Messages broadcast to WebSocket clients",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests passing through the circuit breaker by result",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current consecutive failure count",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Application
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "footfall_info",
			Help: "Build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamCall records one report or weather call.
func RecordUpstreamCall(report, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(report, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// RecordPageRefresh records the result of a page refresh.
func RecordPageRefresh(page string, err error) {
	if err != nil {
		PageRefreshTotal.WithLabelValues(page, "error").Inc()
		return
	}
	PageRefreshTotal.WithLabelValues(page, "success").Inc()
	PageRefreshLastSuccess.WithLabelValues(page).SetToCurrentTime()
}
