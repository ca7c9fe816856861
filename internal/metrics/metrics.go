// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live feed metrics
	FeedConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_connection_state",
			Help: "Live channel state (0=connecting, 1=connected, 2=degraded, 3=disconnected, 4=auth_required)",
		},
	)

	FeedStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_state_transitions_total",
			Help: "Total number of live channel state transitions",
		},
		[]string{"from", "to"},
	)

	FeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_messages_total",
			Help: "Total number of raw feed messages received",
		},
		[]string{"transport", "type"}, // transport: stream, poll; type: snapshot, positions, poll
	)

	FeedReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_reconnect_attempts_total",
			Help: "Total number of stream reconnect attempts",
		},
	)

	FeedBackoffSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_backoff_seconds",
			Help: "Current reconnect backoff delay in seconds",
		},
	)

	// Normalization metrics
	NormalizeRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalize_records_total",
			Help: "Total number of raw records normalized",
		},
		[]string{"entity", "result"}, // result: accepted, rejected
	)

	NormalizeRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalize_rejections_total",
			Help: "Total number of rejected records by reason",
		},
		[]string{"entity", "reason"},
	)

	// Entity store metrics
	StoreEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_entities",
			Help: "Current number of entities in the store",
		},
		[]string{"entity"},
	)

	StoreStaleEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_stale_entities",
			Help: "Current number of entities flagged stale",
		},
		[]string{"entity"},
	)

	StoreStaleWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_stale_writes_total",
			Help: "Total number of updates rejected because they were not newer than the stored record",
		},
		[]string{"entity"},
	)

	StoreVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_version",
			Help: "Monotonic store version",
		},
	)

	// Spatial metrics
	SpatialRecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spatial_recompute_duration_seconds",
			Help:    "Duration of aggregation stages in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"stage"},
	)

	SpatialRecomputeTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spatial_recompute_triggers_total",
			Help: "Total number of recompute triggers by outcome",
		},
		[]string{"outcome"}, // immediate, trailing, coalesced
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "filter", "aggregates"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
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
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Registry metrics
	RegistryRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_refreshes_total",
			Help: "Total number of port/refinery registry refreshes",
		},
		[]string{"kind", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Tracking session metrics
	TrackerSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_sessions",
			Help: "Current number of open tracking sessions",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
)

// RecordStateTransition updates the connection state gauge and transition counter.
func RecordStateTransition(from, to string, ordinal float64) {
	FeedConnectionState.Set(ordinal)
	FeedStateTransitions.WithLabelValues(from, to).Inc()
}

// RecordBackoff records a scheduled reconnect.
func RecordBackoff(delay time.Duration) {
	FeedReconnectAttempts.Inc()
	FeedBackoffSeconds.Set(delay.Seconds())
}

// RecordNormalization records the outcome of normalizing one batch.
func RecordNormalization(entity string, accepted int, rejectedByReason map[string]int) {
	NormalizeRecords.WithLabelValues(entity, "accepted").Add(float64(accepted))
	for reason, n := range rejectedByReason {
		NormalizeRecords.WithLabelValues(entity, "rejected").Add(float64(n))
		NormalizeRejections.WithLabelValues(entity, reason).Add(float64(n))
	}
}

// UpdateStoreGauges publishes entity and stale counts for one entity kind.
func UpdateStoreGauges(entity string, total, stale int, version uint64) {
	StoreEntities.WithLabelValues(entity).Set(float64(total))
	StoreStaleEntities.WithLabelValues(entity).Set(float64(stale))
	StoreVersion.Set(float64(version))
}

// ObserveStage records the duration of one aggregation stage.
func ObserveStage(stage string, start time.Time) {
	SpatialRecomputeDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordAPIRequest records an API request with its duration and status
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
