// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package filter

import (
	"sync"

	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/store"
)

// View is the filtered, read-only projection of one snapshot.
type View struct {
	Version     uint64 // snapshot version the view was computed from
	Fingerprint uint64 // criteria fingerprint
	Criteria    models.FilterCriteria
	Vessels     []models.Vessel
	Ports       []models.Port
	Refineries  []models.Refinery

	// Source is the unfiltered snapshot; route construction resolves port
	// references against the whole registry, not only the visible ports.
	Source *store.Snapshot
}

// Key identifies a view for downstream caches.
type Key struct {
	Version     uint64
	Fingerprint uint64
}

// Key returns the cache key of the view.
func (v *View) Key() Key {
	return Key{Version: v.Version, Fingerprint: v.Fingerprint}
}

// Apply filters snap by criteria without touching any cache.
func Apply(criteria models.FilterCriteria, snap *store.Snapshot) *View {
	c := compile(&criteria)
	view := &View{
		Version:     snap.Version,
		Fingerprint: Fingerprint(&criteria),
		Criteria:    criteria,
		Vessels:     make([]models.Vessel, 0, len(snap.Vessels)),
		Source:      snap,
	}
	for i := range snap.Vessels {
		if c.matchVessel(&snap.Vessels[i]) {
			view.Vessels = append(view.Vessels, snap.Vessels[i])
		}
	}
	for i := range snap.Ports {
		if c.matchPort(&snap.Ports[i]) {
			view.Ports = append(view.Ports, snap.Ports[i])
		}
	}
	for i := range snap.Refineries {
		if c.matchRefinery(&snap.Refineries[i]) {
			view.Refineries = append(view.Refineries, snap.Refineries[i])
		}
	}
	return view
}

// DefaultCacheSize is the number of views an Engine retains.
const DefaultCacheSize = 16

// Engine memoizes Apply. It is safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	size  int
	views map[Key]*View
	order []Key
}

// NewEngine creates an engine retaining up to size views (DefaultCacheSize when size < 1).
func NewEngine(size int) *Engine {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &Engine{size: size, views: make(map[Key]*View, size)}
}

// Apply returns the memoized view for (criteria, snap.Version), computing
// it on a miss.
func (e *Engine) Apply(criteria models.FilterCriteria, snap *store.Snapshot) *View {
	key := Key{Version: snap.Version, Fingerprint: Fingerprint(&criteria)}

	e.mu.Lock()
	if v, ok := e.views[key]; ok {
		e.mu.Unlock()
		metrics.RecordCacheLookup("filter", true)
		return v
	}
	e.mu.Unlock()
	metrics.RecordCacheLookup("filter", false)

	view := Apply(criteria, snap)

	e.mu.Lock()
	defer e.mu.Unlock()
	if v, ok := e.views[key]; ok {
		return v
	}
	if len(e.order) >= e.size {
		oldest := e.order[0]
		e.order = e.order[1:]
		delete(e.views, oldest)
	}
	e.views[key] = view
	e.order = append(e.order, key)
	return view
}

// Len returns the number of cached views.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.views)
}
