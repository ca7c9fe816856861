// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

// ConnectionState is the state of the live channel as seen by consumers.
//
// Transitions:
//
//	connecting   -> connected     stream established
//	connected    -> degraded      stream lost, interval polling active
//	*            -> disconnected  no transport delivering data, recovery continues
//	*            -> auth_required feed rejected the credentials, retries stop
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDegraded     ConnectionState = "degraded"
	StateDisconnected ConnectionState = "disconnected"
	StateAuthRequired ConnectionState = "auth_required"
)

// Live reports whether some transport is currently delivering data.
func (s ConnectionState) Live() bool {
	return s == StateConnected || s == StateDegraded
}

// Ordinal maps the state to a stable number for metrics.
func (s ConnectionState) Ordinal() float64 {
	switch s {
	case StateConnecting:
		return 0
	case StateConnected:
		return 1
	case StateDegraded:
		return 2
	case StateDisconnected:
		return 3
	case StateAuthRequired:
		return 4
	default:
		return -1
	}
}
