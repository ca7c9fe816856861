// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package normalize

import (
	"time"

	"github.com/tomtom215/harborwatch/internal/models"
)

// Result is the outcome of normalizing one batch. Exactly one of the entity
// slices is populated, according to the batch kind.
type Result struct {
	Kind       models.EntityKind
	Total      int
	Vessels    []models.Vessel
	Ports      []models.Port
	Refineries []models.Refinery
	Rejections []Rejection
}

// Accepted returns the number of entities produced.
func (r *Result) Accepted() int {
	return len(r.Vessels) + len(r.Ports) + len(r.Refineries)
}

// RejectedByReason counts rejections per reason.
func (r *Result) RejectedByReason() map[string]int {
	out := make(map[string]int, len(r.Rejections))
	for i := range r.Rejections {
		out[string(r.Rejections[i].Reason)]++
	}
	return out
}

// Batch normalizes raw records of one kind. Rejected records are reported
// individually with their batch index; the rest of the batch proceeds.
func Batch(kind models.EntityKind, raws [][]byte, receivedAt time.Time) Result {
	res := Result{Kind: kind, Total: len(raws)}

	for i, raw := range raws {
		var rej *Rejection
		switch kind {
		case models.KindVessel:
			var v models.Vessel
			if v, rej = NormalizeVessel(raw, receivedAt); rej == nil {
				res.Vessels = append(res.Vessels, v)
			}
		case models.KindPort:
			var p models.Port
			if p, rej = NormalizePort(raw, receivedAt); rej == nil {
				res.Ports = append(res.Ports, p)
			}
		case models.KindRefinery:
			var r models.Refinery
			if r, rej = NormalizeRefinery(raw, receivedAt); rej == nil {
				res.Refineries = append(res.Refineries, r)
			}
		default:
			rej = reject(kind, ReasonMalformedJSON, "", "unknown entity kind")
		}
		if rej != nil {
			rej.Index = i
			res.Rejections = append(res.Rejections, *rej)
		}
	}
	return res
}
