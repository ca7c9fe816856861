// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// DefaultStaleAfterCycles is the number of consecutive full refreshes an
// entity may miss before it is flagged stale.
const DefaultStaleAfterCycles = 2

// ApplyResult summarises one ApplyVessels/ApplyPorts/ApplyRefineries call.
type ApplyResult struct {
	Kind     models.EntityKind
	Source   string
	Inserted int
	Replaced int
	// Duplicates carried the same LastUpdate as the stored record.
	Duplicates int
	// StaleWrites were older than the stored record.
	StaleWrites int
	Version     uint64
}

// Changed reports whether the call modified the store.
func (r ApplyResult) Changed() bool {
	return r.Inserted+r.Replaced > 0
}

// Rejected returns the number of updates that did not alter the store.
func (r ApplyResult) Rejected() int {
	return r.Duplicates + r.StaleWrites
}

// Snapshot is an immutable, id-ordered view of the store at one version.
// Callers must treat every slice, and every pointer or slice field of the
// records in it, as read-only. Records applied to the store never alias
// the caller's memory.
type Snapshot struct {
	Version    uint64
	Vessels    []models.Vessel
	Ports      []models.Port
	Refineries []models.Refinery

	portIndex map[int64]int
}

// Port resolves a port id against the snapshot.
func (s *Snapshot) Port(id int64) (models.Port, bool) {
	i, ok := s.portIndex[id]
	if !ok {
		return models.Port{}, false
	}
	return s.Ports[i], true
}

// NewSnapshot builds a snapshot from already ordered slices.
func NewSnapshot(version uint64, vessels []models.Vessel, ports []models.Port, refineries []models.Refinery) *Snapshot {
	snap := &Snapshot{Version: version, Vessels: vessels, Ports: ports, Refineries: refineries}
	snap.portIndex = make(map[int64]int, len(ports))
	for i := range ports {
		snap.portIndex[ports[i].ID] = i
	}
	return snap
}

// Store is safe for concurrent use. All mutation goes through the Apply and
// Mark methods.
type Store struct {
	mu         sync.RWMutex
	vessels    *table[models.Vessel, *models.Vessel]
	ports      *table[models.Port, *models.Port]
	refineries *table[models.Refinery, *models.Refinery]

	staleAfterCycles int
	version          uint64
	snap             *Snapshot
}

// New creates an empty store. staleAfterCycles < 1 selects the default.
func New(staleAfterCycles int) *Store {
	if staleAfterCycles < 1 {
		staleAfterCycles = DefaultStaleAfterCycles
	}
	return &Store{
		vessels:          newTable[models.Vessel, *models.Vessel](),
		ports:            newTable[models.Port, *models.Port](),
		refineries:       newTable[models.Refinery, *models.Refinery](),
		staleAfterCycles: staleAfterCycles,
	}
}

func applyAll[V any, P entityPtr[V]](t *table[V, P], items []V, res *ApplyResult) {
	for i := range items {
		switch t.upsert(items[i]) {
		case outcomeInserted:
			res.Inserted++
		case outcomeReplaced:
			res.Replaced++
		case outcomeDuplicate:
			res.Duplicates++
		case outcomeStale:
			res.StaleWrites++
		}
	}
}

// ApplyVessels merges a batch of vessels from source.
func (s *Store) ApplyVessels(vessels []models.Vessel, source string) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := ApplyResult{Kind: models.KindVessel, Source: source}
	applyAll(s.vessels, vessels, &res)
	s.finishApply(&res)
	return res
}

// ApplyPorts merges a batch of ports from source.
func (s *Store) ApplyPorts(ports []models.Port, source string) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := ApplyResult{Kind: models.KindPort, Source: source}
	applyAll(s.ports, ports, &res)
	s.finishApply(&res)
	return res
}

// ApplyRefineries merges a batch of refineries from source.
func (s *Store) ApplyRefineries(refineries []models.Refinery, source string) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := ApplyResult{Kind: models.KindRefinery, Source: source}
	applyAll(s.refineries, refineries, &res)
	s.finishApply(&res)
	return res
}

// finishApply must be called with mu held.
func (s *Store) finishApply(res *ApplyResult) {
	if res.StaleWrites > 0 {
		metrics.StoreStaleWrites.WithLabelValues(string(res.Kind)).Add(float64(res.StaleWrites))
	}
	if res.Changed() {
		s.bump(res.Kind)
	}
	res.Version = s.version
}

// bump must be called with mu held.
func (s *Store) bump(kind models.EntityKind) {
	s.version++
	s.snap = nil
	total, stale := s.countsLocked(kind)
	metrics.UpdateStoreGauges(string(kind), total, stale, s.version)
}

// MarkStaleIfAbsent records one full refresh of kind in which only seenIDs
// were present. Ids missing from StaleAfterCycles consecutive refreshes are
// flagged stale; seen ids are un-flagged. Returns the number of newly
// flagged entities.
func (s *Store) MarkStaleIfAbsent(kind models.EntityKind, seenIDs []int64) (int, error) {
	seen := make(map[int64]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var flagged, cleared int
	switch kind {
	case models.KindVessel:
		flagged, cleared = s.vessels.markAbsent(seen, s.staleAfterCycles)
	case models.KindPort:
		flagged, cleared = s.ports.markAbsent(seen, s.staleAfterCycles)
	case models.KindRefinery:
		flagged, cleared = s.refineries.markAbsent(seen, s.staleAfterCycles)
	default:
		return 0, fmt.Errorf("mark stale: unknown entity kind %q", kind)
	}
	if flagged+cleared > 0 {
		s.bump(kind)
	}
	return flagged, nil
}

// MarkStaleOlderThan flags entities of kind whose LastUpdate is before cutoff.
// It covers delta-only feeds, which never deliver a full refresh.
func (s *Store) MarkStaleOlderThan(kind models.EntityKind, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flagged int
	switch kind {
	case models.KindVessel:
		flagged = s.vessels.markOlderThan(cutoff)
	case models.KindPort:
		flagged = s.ports.markOlderThan(cutoff)
	case models.KindRefinery:
		flagged = s.refineries.markOlderThan(cutoff)
	default:
		return 0, fmt.Errorf("mark stale: unknown entity kind %q", kind)
	}
	if flagged > 0 {
		s.bump(kind)
	}
	return flagged, nil
}

// Vessel returns a copy of the stored vessel.
func (s *Store) Vessel(id int64) (models.Vessel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vessels.get(id)
}

// Port returns a copy of the stored port.
func (s *Store) Port(id int64) (models.Port, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ports.get(id)
}

// Refinery returns a copy of the stored refinery.
func (s *Store) Refinery(id int64) (models.Refinery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refineries.get(id)
}

// Version increments on every change to the stored records or stale flags.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Counts returns the number of stored and stale entities of kind.
func (s *Store) Counts(kind models.EntityKind) (total, stale int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countsLocked(kind)
}

func (s *Store) countsLocked(kind models.EntityKind) (total, stale int) {
	switch kind {
	case models.KindVessel:
		return len(s.vessels.rows), s.vessels.staleCount()
	case models.KindPort:
		return len(s.ports.rows), s.ports.staleCount()
	case models.KindRefinery:
		return len(s.refineries.rows), s.refineries.staleCount()
	}
	return 0, 0
}

// Snapshot returns the immutable view for the current version. Consecutive
// calls without an intervening change return the same pointer.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	if snap := s.snap; snap != nil {
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		return s.snap
	}
	s.snap = NewSnapshot(s.version, s.vessels.sorted(), s.ports.sorted(), s.refineries.sorted())
	return s.snap
}
