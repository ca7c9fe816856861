// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package supervisor runs Harborwatch's long-lived services under a suture
supervisor tree.

Tree layout:

	harborwatch (root)
	├── pipeline-layer   tracker session (stale sweep, registry refresh)
	├── messaging-layer  WebSocket hub
	└── api-layer        HTTP server

A crashing service is restarted by its layer supervisor with suture's
failure backoff. Layers are isolated, so a hub restart leaves the HTTP
server and the session untouched. Supervisor events are logged through
sutureslog into the zerolog-backed slog handler.
*/
package supervisor
