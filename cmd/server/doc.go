// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package main is the entry point for the Harborwatch server.

Harborwatch follows live vessel positions from an upstream feed, joins them
with the port and refinery registries and serves a filtered and spatially
aggregated picture of the map to viewers over HTTP and WebSocket.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("harborwatch")
	├── PipelineSupervisor ("pipeline-layer")
	│   └── Tracker session (stale sweep; owns feed and registry refresh)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket hub (render snapshot broadcast)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog with JSON or console output
 3. Session gate: JWT or open mode
 4. Feed manager: stream transport with poll fallback
 5. Tracker session and WebSocket hub
 6. Chi router and HTTP server
 7. Supervisor tree

The live feed stays closed until a viewer opens the session with an
accepted token (POST /api/v1/session/open).

# Configuration

	FEED_STREAM_URL=wss://feed.example/positions
	FEED_POLL_URL=https://feed.example/vessels
	FEED_TOKEN=<upstream credential>
	REGISTRY_PORTS_URL=https://registry.example/ports
	REGISTRY_REFINERIES_URL=https://registry.example/refineries
	AUTH_MODE=jwt
	JWT_SECRET=<32+ chars>
	HTTP_PORT=8780
	LOG_LEVEL=info
	LOG_FORMAT=json

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
its shutdown timeout, the hub closes every client and the session closes
the feed.
*/
package main
