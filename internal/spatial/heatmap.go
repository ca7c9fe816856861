// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import (
	"math"
	"sort"

	"github.com/tomtom215/harborwatch/internal/models"
)

// DefaultGridSize is the heatmap bucket edge in degrees.
const DefaultGridSize = 5.0

// BucketFor returns the heatmap key of a position.
func BucketFor(p models.Position, gridSize float64) models.BucketKey {
	return models.BucketKey{
		Row: int(math.Floor(p.Lat / gridSize)),
		Col: int(math.Floor(p.Lng / gridSize)),
	}
}

// Heatmap partitions vessels into gridSize x gridSize degree buckets.
// Intensity is count / max count, so the densest bucket is exactly 1.0
// whenever at least one vessel has a valid position. Buckets are ordered
// by row then column.
func Heatmap(vessels []models.Vessel, gridSize float64) []models.SpatialBucket {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}

	counts := make(map[models.BucketKey]int)
	for i := range vessels {
		if !vessels[i].Position.Valid() {
			continue
		}
		counts[BucketFor(vessels[i].Position, gridSize)]++
	}
	if len(counts) == 0 {
		return nil
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	buckets := make([]models.SpatialBucket, 0, len(counts))
	for k, c := range counts {
		buckets = append(buckets, models.SpatialBucket{
			Key: k,
			Bounds: models.Bounds{
				South: math.Max(-90, float64(k.Row)*gridSize),
				West:  math.Max(-180, float64(k.Col)*gridSize),
				North: math.Min(90, float64(k.Row+1)*gridSize),
				East:  math.Min(180, float64(k.Col+1)*gridSize),
			},
			Count:     c,
			Intensity: float64(c) / float64(maxCount),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Key.Row != buckets[j].Key.Row {
			return buckets[i].Key.Row < buckets[j].Key.Row
		}
		return buckets[i].Key.Col < buckets[j].Key.Col
	})
	return buckets
}
