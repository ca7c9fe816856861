// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

import "math"

// Position is a WGS84 coordinate pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the position lies inside lat [-90,90] and lng [-180,180].
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Bounds is a viewport bounding box. West may be greater than East when the
// box crosses the antimeridian.
type Bounds struct {
	South float64 `json:"south" validate:"latitude"`
	West  float64 `json:"west" validate:"longitude"`
	North float64 `json:"north" validate:"latitude,gtefield=South"`
	East  float64 `json:"east" validate:"longitude"`
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bounds) Contains(p Position) bool {
	if p.Lat < b.South || p.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return p.Lng >= b.West && p.Lng <= b.East
	}
	// Crosses the antimeridian
	return p.Lng >= b.West || p.Lng <= b.East
}

// CrossesAntimeridian reports whether the box wraps past 180°.
func (b Bounds) CrossesAntimeridian() bool {
	return b.West > b.East
}
