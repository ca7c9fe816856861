// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package spatial derives map-ready aggregates from a filtered view.
//
//   - Heatmap: fixed-size lat/lng buckets with intensity = count / max count
//   - Clusters: greedy grouping of vessels closer than a pixel radius at a
//     Web Mercator zoom level, backed by a spatial hash grid
//   - Routes: departure port -> vessel -> destination port, only when both
//     ports resolve
//
// Aggregates are only ever computed from a filter.View, never from the
// whole store, and every stage skips entities without a valid position.
// Aggregator caches results per (view, zoom); Throttle bounds how often a
// recompute is triggered under bursty feeds.
package spatial
