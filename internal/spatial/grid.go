// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import "math"

// cellKey represents a grid cell coordinate.
type cellKey struct {
	X, Y int
}

// pixelGrid divides Web Mercator pixel space into square cells for fast
// proximity queries. Instead of comparing every pair of points, a query
// only checks the 3x3 cells around the query point. Columns wrap at the
// antimeridian.
//
// Time Complexity:
//   - insert: O(1)
//   - nearby: O(k) where k = entries in the neighbouring cells
type pixelGrid struct {
	cellSize float64
	cols     int
	size     float64
	cells    map[cellKey][]int
	xs, ys   []float64
}

// newPixelGrid creates a grid whose cell edge equals the query radius.
func newPixelGrid(radiusPx, worldPx float64, capacity int) *pixelGrid {
	if radiusPx <= 0 {
		radiusPx = 1
	}
	cols := int(math.Ceil(worldPx / radiusPx))
	if cols < 1 {
		cols = 1
	}
	return &pixelGrid{
		cellSize: radiusPx,
		cols:     cols,
		size:     worldPx,
		cells:    make(map[cellKey][]int),
		xs:       make([]float64, 0, capacity),
		ys:       make([]float64, 0, capacity),
	}
}

func (g *pixelGrid) key(x, y float64) cellKey {
	return cellKey{X: g.wrapCol(int(math.Floor(x / g.cellSize))), Y: int(math.Floor(y / g.cellSize))}
}

func (g *pixelGrid) wrapCol(c int) int {
	c %= g.cols
	if c < 0 {
		c += g.cols
	}
	return c
}

// insert adds a point and returns its index.
func (g *pixelGrid) insert(x, y float64) int {
	idx := len(g.xs)
	g.xs = append(g.xs, x)
	g.ys = append(g.ys, y)
	k := g.key(x, y)
	g.cells[k] = append(g.cells[k], idx)
	return idx
}

// nearby returns the indices of points within radius of point idx,
// including idx itself.
func (g *pixelGrid) nearby(idx int) []int {
	x, y := g.xs[idx], g.ys[idx]
	center := g.key(x, y)
	r2 := g.cellSize * g.cellSize

	var out []int
	seen := make(map[int]struct{}, 3)
	for dx := -1; dx <= 1; dx++ {
		col := g.wrapCol(center.X + dx)
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		for dy := -1; dy <= 1; dy++ {
			for _, j := range g.cells[cellKey{X: col, Y: center.Y + dy}] {
				ddx := wrappedDX(x, g.xs[j], g.size)
				ddy := y - g.ys[j]
				if ddx*ddx+ddy*ddy <= r2 {
					out = append(out, j)
				}
			}
		}
	}
	return out
}
