// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package feed owns the live channel to the vessel position feed.

A Manager drives one primary streaming transport (websocket) and falls back
to interval polling over HTTP while the stream is unavailable. Callers never
see which transport is active except through the ConnectionState signal:

	connecting -> connected        stream (or poll-only feed) is live
	connected  -> degraded         stream dropped, fallback polling delivers
	*          -> disconnected     nothing delivers; recovery continues
	*          -> auth_required    credentials rejected; retries stop

Reconnection uses exponential backoff (1s, 2s, 4s ... capped at 30s) that
resets on every message received over the stream.

The package emits raw batches only. Decoding into entities belongs to
internal/normalize and mutation to internal/store.
*/
package feed
