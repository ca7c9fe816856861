// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package metrics provides Prometheus metrics for the Harborwatch tracking pipeline.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the API router:

	curl http://localhost:8780/metrics

# Available Metrics

Live feed:
  - feed_connection_state: current state (0=connecting, 1=connected, 2=degraded, 3=disconnected, 4=auth_required)
  - feed_state_transitions_total: labels from, to
  - feed_messages_total: raw messages by transport and message type
  - feed_reconnect_attempts_total, feed_backoff_seconds

Normalization and store:
  - normalize_records_total: labels entity, result (accepted, rejected)
  - normalize_rejections_total: labels entity, reason
  - store_entities, store_stale_entities: label entity
  - store_stale_writes_total: label entity
  - store_version

Spatial:
  - spatial_recompute_duration_seconds: label stage (filter, heatmap, clusters, routes)
  - spatial_recompute_triggers_total: label outcome (immediate, trailing, coalesced)
  - cache_hits_total, cache_misses_total: label cache_type

Infrastructure:
  - circuit_breaker_state, circuit_breaker_requests_total, circuit_breaker_state_transitions_total
  - registry_refreshes_total: labels kind, result
  - websocket_connections, websocket_messages_sent_total, websocket_messages_received_total, websocket_errors_total
  - tracker_sessions
  - http_requests_total, http_request_duration_seconds, http_requests_in_flight

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
