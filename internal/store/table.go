// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package store

import (
	"sort"
	"time"

	"github.com/tomtom215/harborwatch/internal/models"
)

// entityPtr constrains P to be a pointer to V implementing models.Entity.
type entityPtr[V any] interface {
	*V
	models.Entity
}

type row[V any] struct {
	value  V
	missed int // consecutive full refreshes without a sighting
}

// table holds the records of one entity kind. Callers hold the Store lock.
type table[V any, P entityPtr[V]] struct {
	rows map[int64]*row[V]
}

func newTable[V any, P entityPtr[V]]() *table[V, P] {
	return &table[V, P]{rows: make(map[int64]*row[V])}
}

// outcome of a single upsert
type outcome int

const (
	outcomeInserted outcome = iota
	outcomeReplaced
	outcomeDuplicate // same LastUpdate as stored
	outcomeStale     // older than stored
)

func (t *table[V, P]) upsert(v V) outcome {
	incoming := P(&v)
	incoming.SetStale(false)
	incoming.Detach()
	id := incoming.EntityID()

	existing, ok := t.rows[id]
	if !ok {
		t.rows[id] = &row[V]{value: v}
		return outcomeInserted
	}

	stored := P(&existing.value)
	switch {
	case incoming.UpdatedAt().After(stored.UpdatedAt()):
		existing.value = v
		existing.missed = 0
		return outcomeReplaced
	case incoming.UpdatedAt().Equal(stored.UpdatedAt()):
		return outcomeDuplicate
	default:
		return outcomeStale
	}
}

func (t *table[V, P]) get(id int64) (V, bool) {
	r, ok := t.rows[id]
	if !ok {
		var zero V
		return zero, false
	}
	return r.value, true
}

// markAbsent advances the miss counter of every id not in seen and flags
// rows reaching threshold. Seen rows have their counter and flag cleared.
// Returns the number of rows whose stale flag changed.
func (t *table[V, P]) markAbsent(seen map[int64]struct{}, threshold int) (flagged, cleared int) {
	for id, r := range t.rows {
		p := P(&r.value)
		if _, ok := seen[id]; ok {
			r.missed = 0
			if p.IsStale() {
				p.SetStale(false)
				cleared++
			}
			continue
		}
		r.missed++
		if r.missed >= threshold && !p.IsStale() {
			p.SetStale(true)
			flagged++
		}
	}
	return flagged, cleared
}

func (t *table[V, P]) markOlderThan(cutoff time.Time) int {
	flagged := 0
	for _, r := range t.rows {
		p := P(&r.value)
		if !p.IsStale() && p.UpdatedAt().Before(cutoff) {
			p.SetStale(true)
			flagged++
		}
	}
	return flagged
}

func (t *table[V, P]) staleCount() int {
	n := 0
	for _, r := range t.rows {
		if P(&r.value).IsStale() {
			n++
		}
	}
	return n
}

// sorted returns a copy of all records ordered by id. Pointer fields are
// shared with the stored rows; rows own them since upsert and never write
// through them.
func (t *table[V, P]) sorted() []V {
	out := make([]V, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.value)
	}
	sort.Slice(out, func(i, j int) bool {
		return P(&out[i]).EntityID() < P(&out[j]).EntityID()
	})
	return out
}
