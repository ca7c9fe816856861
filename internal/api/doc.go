// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package api exposes the tracking session over HTTP using the Chi router.

Routes:

	GET  /api/v1/health            health summary (store counts, connection state)
	GET  /api/v1/health/live       liveness probe
	GET  /api/v1/health/ready      readiness probe (session opened and live)
	POST /api/v1/session/open      verify the session token and open the feed
	POST /api/v1/session/reauth    present a fresh token after auth_required
	GET  /api/v1/snapshot          current RenderSnapshot (ETag / If-None-Match)
	GET  /api/v1/geojson           current snapshot as a GeoJSON FeatureCollection
	GET  /api/v1/connection        connection state
	GET  /api/v1/view              criteria, zoom and toggles
	PUT  /api/v1/criteria          replace filter criteria
	PUT  /api/v1/viewport          viewport bounds and zoom
	PUT  /api/v1/toggles           layer toggles
	POST /api/v1/select            entity detail for a map selection
	GET  /api/v1/ws                WebSocket render feed
	GET  /metrics                  Prometheus metrics

The view routes (snapshot, geojson, view, criteria, viewport, toggles,
select) act on the caller's own tracker view, one per session token.
Websocket clients get a view of their own from the hub.

Every JSON response uses the APIResponse envelope. Requests without a valid
session token are answered with 401 and the REAUTH_REQUIRED code.
*/
package api
