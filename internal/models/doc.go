// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package models defines the data structures shared by the Harborwatch tracking
pipeline.

Key Components:

  - Vessel, Port, Refinery: tracked maritime entities keyed by a stable int64 id
  - Position, Bounds: WGS84 coordinates and viewport bounding boxes
  - ConnectionState: live channel state published by the feed manager
  - FilterCriteria, LayerToggles: user-driven filter inputs
  - SpatialBucket, Cluster, Route: map-ready aggregates
  - RenderSnapshot: the immutable value handed to the map boundary

Unknown Metrics:

Metrics without a real data source (speed, heading, capacity, ETA) are pointers
and stay nil when the feed does not supply them. They are never filled with
plausible-looking placeholder values.

Thread Safety:

All types are plain values. Snapshots handed out by the store and the tracker
are copies and may be read concurrently.
*/
package models
