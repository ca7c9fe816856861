// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package filter

import (
	"strings"

	"github.com/tomtom215/harborwatch/internal/models"
)

// regionBoxes are named maritime areas used to match a region token
// against an entity position, for feeds that do not tag entities with a
// region.
var regionBoxes = map[string]models.Bounds{
	"persian-gulf":      {South: 23.5, West: 47.5, North: 30.5, East: 57},
	"strait-of-hormuz":  {South: 25.5, West: 55.5, North: 27.5, East: 57.5},
	"gulf-of-oman":      {South: 22, West: 56.5, North: 26, East: 61.5},
	"red-sea":           {South: 12.5, West: 32, North: 30, East: 43.5},
	"arabian-sea":       {South: 5, West: 51, North: 25, East: 74},
	"mediterranean":     {South: 30, West: -6, North: 46, East: 36.5},
	"black-sea":         {South: 40.5, West: 27, North: 47, East: 42},
	"north-sea":         {South: 51, West: -4, North: 61.5, East: 9.5},
	"baltic-sea":        {South: 53.5, West: 9.5, North: 66, East: 30.5},
	"gulf-of-mexico":    {South: 18, West: -98, North: 31, East: -80.5},
	"caribbean":         {South: 9, West: -89, North: 22.5, East: -59.5},
	"gulf-of-guinea":    {South: -5, West: -10, North: 7, East: 12},
	"strait-of-malacca": {South: -1, West: 95, North: 8, East: 104.5},
	"south-china-sea":   {South: 0, West: 99, North: 23, East: 121},
	"east-china-sea":    {South: 23, West: 117, North: 33.5, East: 131},
	"sea-of-japan":      {South: 33.5, West: 127, North: 52, East: 142},
	"bering-sea":        {South: 51, West: 162, North: 66, East: -157},
}

// RegionToken folds "Persian Gulf", "persian_gulf" and "PERSIAN-GULF" to
// the same token.
func RegionToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if r == ' ' || r == '_' || r == '-' {
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
			continue
		}
		b.WriteRune(r)
		dash = false
	}
	return strings.TrimSuffix(b.String(), "-")
}

// RegionBounds returns the named box for a token, if any.
func RegionBounds(token string) (models.Bounds, bool) {
	b, ok := regionBoxes[RegionToken(token)]
	return b, ok
}

// Regions lists the known region tokens.
func Regions() []string {
	out := make([]string, 0, len(regionBoxes))
	for k := range regionBoxes {
		out = append(out, k)
	}
	return out
}

// matchRegion matches the entity's Region field first, then the named box.
func matchRegion(token, entityRegion string, pos models.Position) bool {
	if RegionToken(entityRegion) == token {
		return true
	}
	box, ok := regionBoxes[token]
	return ok && box.Contains(pos)
}
