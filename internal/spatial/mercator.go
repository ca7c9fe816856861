// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import "math"

// TileSize is the Web Mercator tile edge in pixels.
const TileSize = 256

// maxMercatorLat is the latitude where the Web Mercator square ends.
const maxMercatorLat = 85.05112878

// worldSize returns the world width in pixels at zoom.
func worldSize(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

// project converts lat/lng to Web Mercator pixel coordinates at zoom.
func project(lat, lng float64, zoom int) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	size := worldSize(zoom)
	x = (lng + 180) / 360 * size
	sin := math.Sin(lat * math.Pi / 180)
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return x, y
}

// unproject is the inverse of project. Longitudes are wrapped to [-180,180].
func unproject(x, y float64, zoom int) (lat, lng float64) {
	size := worldSize(zoom)
	lng = x/size*360 - 180
	n := math.Pi - 2*math.Pi*y/size
	lat = 180 / math.Pi * math.Atan(math.Sinh(n))
	return lat, wrapLng(lng)
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

// wrappedDX returns the horizontal pixel distance taking the shorter way
// around the antimeridian.
func wrappedDX(x1, x2, size float64) float64 {
	dx := math.Abs(x1 - x2)
	if dx > size/2 {
		dx = size - dx
	}
	return dx
}
