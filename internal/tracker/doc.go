// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package tracker ties the pipeline together into a tracking session.

A Session owns the entity store and the live feed and wires the stages in
order. Each consumer (a websocket client, an API token) looks at the
session through its own View, which carries the filter criteria,
viewport, zoom, toggles, selection and render cache:

	feed.Manager --RawBatch--> normalize.Batch --> store.Store
	                                                   |
	       View: criteria, viewport, toggles ---> filter.Engine
	                                                   |
	                                            spatial.Aggregator
	                                                   |
	                                          models.RenderSnapshot --> subscribers

Batches are applied in arrival order under the session mutex, so a render
always observes a fully applied batch or the previous one. Spatial work is
throttled: bursts of batches trigger at most one recompute per interval,
while every batch still reaches the store.

A view's snapshot is recomputed only when one of its inputs changed:
store version, criteria, viewport, zoom, layer toggles or connection
state. A throttled recompute pushes to every subscribed view whose
snapshot differs from the one it last delivered, whoever rendered it.

The live feed is never opened without a session token accepted by the
auth gate.
*/
package tracker
