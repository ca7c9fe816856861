// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

/*
Package websocket pushes render snapshots to map clients and accepts their
interaction events.

Architecture:

	tracker.Session ──NewView──► Hub ──► Client1 ◄──► View1
	                                 └──► Client2 ◄──► View2 ...

Every client gets its own View when it connects. The view's
subscription pushes that client's snapshots; its interaction events
(select_entity, viewport_changed, criteria_changed, toggles_changed)
change only that view. The view is closed when the client leaves.

Each client has two goroutines:
  - readPump: decodes inbound events, validates them and applies them to
    the client's View
  - writePump: writes queued messages and keepalive pings

Outbound message types:

  - snapshot: the current RenderSnapshot, sent on connect and on every change
  - entity_detail: reply to select_entity
  - error: rejected inbound message, with an APIError payload
  - pong: reply to ping

A client whose send buffer fills is dropped; it reconnects and receives a
fresh snapshot, so no incremental state is lost.
*/
package websocket
