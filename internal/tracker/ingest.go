// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"time"

	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/normalize"
	"github.com/tomtom215/harborwatch/internal/store"
)

// IngestResult reports what one batch did to the store.
type IngestResult struct {
	Normalized  normalize.Result
	Applied     store.ApplyResult
	MarkedStale int
}

// HandleRaw ingests a live-feed batch of vessel records.
func (s *Session) HandleRaw(batch feed.RawBatch) {
	s.Ingest(models.KindVessel, batch)
}

// Ingest normalizes batch and applies it to the store. Full batches also
// advance the absent-entity stale rule. An empty batch leaves the store
// untouched.
func (s *Session) Ingest(kind models.EntityKind, batch feed.RawBatch) IngestResult {
	var out IngestResult
	if len(batch.Records) == 0 || s.isClosed() {
		return out
	}
	start := time.Now()

	res := normalize.Batch(kind, batch.Records, batch.ReceivedAt)
	out.Normalized = res
	metrics.RecordNormalization(string(kind), res.Accepted(), res.RejectedByReason())
	for i := range res.Rejections {
		s.log.RecordRejected(batch.Source, string(kind), res.Rejections[i].Error())
	}

	s.applyMu.Lock()
	var seen []int64
	switch kind {
	case models.KindVessel:
		out.Applied = s.store.ApplyVessels(res.Vessels, batch.Source)
		seen = vesselIDs(res.Vessels)
	case models.KindPort:
		out.Applied = s.store.ApplyPorts(res.Ports, batch.Source)
		seen = portIDs(res.Ports)
	case models.KindRefinery:
		out.Applied = s.store.ApplyRefineries(res.Refineries, batch.Source)
		seen = refineryIDs(res.Refineries)
	}
	if batch.Full {
		n, err := s.store.MarkStaleIfAbsent(kind, seen)
		if err == nil {
			out.MarkedStale = n
		}
	}
	version := s.store.Version()
	s.applyMu.Unlock()

	metrics.ObserveStage("ingest", start)
	s.log.BatchApplied(batch.Source, batch.Full, out.Applied.Inserted+out.Applied.Replaced,
		len(res.Rejections), out.Applied.StaleWrites, out.MarkedStale, time.Since(start))

	if s.triggered.Swap(version) != version {
		s.throttle.Trigger()
	}
	return out
}

func vesselIDs(vs []models.Vessel) []int64 {
	ids := make([]int64, len(vs))
	for i := range vs {
		ids[i] = vs[i].ID
	}
	return ids
}

func portIDs(ps []models.Port) []int64 {
	ids := make([]int64, len(ps))
	for i := range ps {
		ids[i] = ps[i].ID
	}
	return ids
}

func refineryIDs(rs []models.Refinery) []int64 {
	ids := make([]int64, len(rs))
	for i := range rs {
		ids[i] = rs[i].ID
	}
	return ids
}
