// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import (
	"sort"

	"github.com/tomtom215/harborwatch/internal/models"
)

// DefaultClusterRadiusPx is the default grouping radius in screen pixels.
const DefaultClusterRadiusPx = 40.0

// Max zoom accepted for clustering.
const MaxZoom = 22

// Clusters greedily groups vessels whose Web Mercator pixel distance at zoom
// is at most radiusPx. Vessels are visited in input order; each unassigned
// vessel seeds a cluster that absorbs every unassigned neighbour within the
// radius. The centroid is the pixel-space mean of the members. Singletons
// are returned as clusters of one.
func Clusters(vessels []models.Vessel, zoom int, radiusPx float64) []models.Cluster {
	if zoom < 0 {
		zoom = 0
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	if radiusPx <= 0 {
		radiusPx = DefaultClusterRadiusPx
	}

	size := worldSize(zoom)
	grid := newPixelGrid(radiusPx, size, len(vessels))
	ids := make([]int64, 0, len(vessels))
	for i := range vessels {
		p := vessels[i].Position
		if !p.Valid() {
			continue
		}
		x, y := project(p.Lat, p.Lng, zoom)
		grid.insert(x, y)
		ids = append(ids, vessels[i].ID)
	}

	assigned := make([]bool, len(ids))
	var clusters []models.Cluster
	for seed := range ids {
		if assigned[seed] {
			continue
		}
		sx := grid.xs[seed]
		var sumX, sumY float64
		var members []int64
		for _, j := range grid.nearby(seed) {
			if assigned[j] {
				continue
			}
			assigned[j] = true
			// unwrap x relative to the seed so the mean stays on the near side
			x := grid.xs[j]
			if x-sx > size/2 {
				x -= size
			} else if sx-x > size/2 {
				x += size
			}
			sumX += x
			sumY += grid.ys[j]
			members = append(members, ids[j])
		}
		n := float64(len(members))
		lat, lng := unproject(sumX/n, sumY/n, zoom)
		sort.Slice(members, func(a, b int) bool { return members[a] < members[b] })
		clusters = append(clusters, models.Cluster{
			Centroid:  models.Position{Lat: lat, Lng: lng},
			Count:     len(members),
			MemberIDs: members,
		})
	}
	return clusters
}
