// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

import "time"

// RenderSnapshot is the immutable value handed to the map boundary on every
// change of the render feed.
type RenderSnapshot struct {
	Version         uint64          `json:"version"`
	GeneratedAt     time.Time       `json:"generated_at"`
	ConnectionState ConnectionState `json:"connection_state"`
	// Stale is set when the live channel is down and the entities shown are
	// the last known ones.
	Stale       bool            `json:"stale"`
	Vessels     []Vessel        `json:"vessels"`
	Ports       []Port          `json:"ports"`
	Refineries  []Refinery      `json:"refineries"`
	Routes      []Route         `json:"routes"`
	HeatBuckets []SpatialBucket `json:"heat_buckets"`
	Clusters    []Cluster       `json:"clusters"`
	Toggles     LayerToggles    `json:"toggles"`
}

// EntityDetail is returned for a map selection.
type EntityDetail struct {
	Ref             EntityRef `json:"ref"`
	Vessel          *Vessel   `json:"vessel,omitempty"`
	Port            *Port     `json:"port,omitempty"`
	Refinery        *Refinery `json:"refinery,omitempty"`
	DeparturePort   *Port     `json:"departure_port,omitempty"`
	DestinationPort *Port     `json:"destination_port,omitempty"`
	Route           *Route    `json:"route,omitempty"`
}
