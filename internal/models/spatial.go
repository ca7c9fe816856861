// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

// BucketKey addresses a heatmap grid cell: (floor(lat/grid), floor(lng/grid)).
type BucketKey struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// SpatialBucket is one heatmap cell.
type SpatialBucket struct {
	Key       BucketKey `json:"key"`
	Bounds    Bounds    `json:"bounds"`
	Count     int       `json:"count"`
	Intensity float64   `json:"intensity"` // count / max count in view, in [0,1]
}

// Cluster is a rendering-only group of nearby vessels at one zoom level.
type Cluster struct {
	Centroid  Position `json:"centroid"`
	Count     int      `json:"count"`
	MemberIDs []int64  `json:"member_ids"`
}

// Route is the departure -> current -> destination path of a vessel.
type Route struct {
	VesselID          int64      `json:"vessel_id"`
	DeparturePortID   int64      `json:"departure_port_id"`
	DestinationPortID int64      `json:"destination_port_id"`
	Waypoints         []Position `json:"waypoints"`
}

// Aggregates bundles the spatial outputs derived from one filtered view.
type Aggregates struct {
	HeatBuckets []SpatialBucket `json:"heat_buckets"`
	Clusters    []Cluster       `json:"clusters"`
	Routes      []Route         `json:"routes"`
	GridSize    float64         `json:"grid_size"`
	Zoom        int             `json:"zoom"`
}
