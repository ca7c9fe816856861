// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package store is the authoritative in-memory map of vessels, ports and
// refineries for one tracking session.
//
// Update rules:
//   - an entity is inserted on first sighting
//   - a later sighting replaces the stored record wholesale, never field by field
//   - an update whose LastUpdate is not newer than the stored value is rejected
//     (stale-write rejection), so per-entity freshness is monotonic regardless
//     of network reordering
//   - entities are never deleted; an entity absent from StaleAfterCycles
//     consecutive full refreshes, or not sighted since a cutoff, is flagged
//     stale and a later sighting clears the flag
//
// Readers obtain an immutable *Snapshot. Snapshots are rebuilt lazily, once
// per store version, so every reader observes either a fully applied batch
// or the previous one.
package store
