// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"time"

	"github.com/tomtom215/harborwatch/internal/filter"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// Snapshot returns the default view's render snapshot.
func (s *Session) Snapshot() *models.RenderSnapshot {
	return s.def.Snapshot()
}

// Subscribe registers fn on the default view. See View.Subscribe.
func (s *Session) Subscribe(fn func(*models.RenderSnapshot)) func() {
	return s.def.Subscribe(fn)
}

// Invalidate schedules a recompute through the throttle.
func (s *Session) Invalidate() {
	s.throttle.Trigger()
}

// publish is the throttled recompute. Every view with subscribers is
// rendered and pushed if its snapshot differs from the last one delivered.
func (s *Session) publish() {
	if s.isClosed() {
		return
	}
	for _, v := range s.openViews() {
		v.publish()
	}
}

// Snapshot returns the view's current render snapshot, recomputing it
// first if an input changed since the last one. The result is shared and
// must not be modified.
func (v *View) Snapshot() *models.RenderSnapshot {
	return v.render()
}

// Subscribe registers fn to receive every new render snapshot of the view.
// fn is called once with the current snapshot before Subscribe returns,
// then on the recompute goroutine. It must not block. The returned func
// removes the subscription.
func (v *View) Subscribe(fn func(*models.RenderSnapshot)) func() {
	v.pubMu.Lock()
	v.subMu.Lock()
	id := v.nextSubID
	v.nextSubID++
	v.subs[id] = fn
	v.subMu.Unlock()

	snap := v.render()
	if snap != v.published {
		v.published = snap
		v.notify(snap)
	} else {
		fn(snap)
	}
	v.pubMu.Unlock()

	return func() {
		v.subMu.Lock()
		delete(v.subs, id)
		v.subMu.Unlock()
	}
}

func (v *View) publish() {
	v.subMu.RLock()
	idle := len(v.subs) == 0
	v.subMu.RUnlock()
	if idle {
		return
	}

	v.pubMu.Lock()
	defer v.pubMu.Unlock()
	snap := v.render()
	if snap == v.published {
		return
	}
	v.published = snap
	v.notify(snap)
}

// notify runs with pubMu held.
func (v *View) notify(snap *models.RenderSnapshot) {
	v.subMu.RLock()
	subs := make([]func(*models.RenderSnapshot), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.subMu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (v *View) render() *models.RenderSnapshot {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()

	s := v.session
	src := s.store.Snapshot()
	state := s.ConnectionState()

	v.mu.RLock()
	criteria := v.criteria
	zoom := v.zoom
	toggles := v.toggles
	v.mu.RUnlock()

	key := renderKey{
		version:     src.Version,
		fingerprint: filter.Fingerprint(&criteria),
		zoom:        zoom,
		toggles:     toggles,
		state:       state,
	}
	if v.snapshot != nil && key == v.snapKey {
		metrics.RecordCacheLookup("render", true)
		return v.snapshot
	}
	metrics.RecordCacheLookup("render", false)

	start := time.Now()
	view := s.filters.Apply(criteria, src)
	agg := s.agg.Compute(view, zoom)

	snap := &models.RenderSnapshot{
		Version:         src.Version,
		GeneratedAt:     s.now(),
		ConnectionState: state,
		Stale:           !state.Live(),
		Vessels:         []models.Vessel{},
		Ports:           []models.Port{},
		Refineries:      []models.Refinery{},
		Routes:          []models.Route{},
		HeatBuckets:     []models.SpatialBucket{},
		Clusters:        []models.Cluster{},
		Toggles:         toggles,
	}
	if toggles.ShowVessels {
		snap.Vessels = view.Vessels
		if agg.Clusters != nil {
			snap.Clusters = agg.Clusters
		}
	}
	if toggles.ShowPorts && view.Ports != nil {
		snap.Ports = view.Ports
	}
	if toggles.ShowRefineries && view.Refineries != nil {
		snap.Refineries = view.Refineries
	}
	if toggles.ShowRoutes && agg.Routes != nil {
		snap.Routes = agg.Routes
	}
	if toggles.ShowHeatmap && agg.HeatBuckets != nil {
		snap.HeatBuckets = agg.HeatBuckets
	}
	metrics.ObserveStage("render", start)

	v.snapshot = snap
	v.snapKey = key
	return snap
}
