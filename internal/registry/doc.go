// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package registry keeps the port and refinery registries fresh.
//
// Both registries are fetched once when a session starts and revalidated on
// a long interval (default 10 minutes), independent of the live feed
// cadence. Fetched payloads are handed to a Sink as full-refresh batches;
// the registry never mutates the entity store itself.
package registry
