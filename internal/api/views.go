// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package api

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/harborwatch/internal/tracker"
)

// DefaultMaxViews is the number of per-token views the API retains.
const DefaultMaxViews = 256

// viewRegistry hands each session token its own tracker view. Tokens are
// kept only as hashes. The least recently used view is closed once more
// than max tokens are active.
type viewRegistry struct {
	mu      sync.Mutex
	newView func() *tracker.View
	max     int
	views   map[uint64]*tracker.View
	order   []uint64
}

func newViewRegistry(newView func() *tracker.View, max int) *viewRegistry {
	if max < 1 {
		max = DefaultMaxViews
	}
	return &viewRegistry{
		newView: newView,
		max:     max,
		views:   make(map[uint64]*tracker.View),
	}
}

// get returns the view of token, opening one on first use.
func (r *viewRegistry) get(token string) *tracker.View {
	key := xxhash.Sum64String(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[key]; ok {
		r.touch(key)
		return v
	}

	v := r.newView()
	r.views[key] = v
	r.order = append(r.order, key)
	for len(r.order) > r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		if old, ok := r.views[oldest]; ok {
			delete(r.views, oldest)
			old.Close()
		}
	}
	return v
}

// touch moves key to the back of the eviction order. Caller holds r.mu.
func (r *viewRegistry) touch(key uint64) {
	for i, k := range r.order {
		if k == key {
			copy(r.order[i:], r.order[i+1:])
			r.order[len(r.order)-1] = key
			return
		}
	}
}

func (r *viewRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// closeAll closes every retained view.
func (r *viewRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, v := range r.views {
		v.Close()
		delete(r.views, key)
	}
	r.order = nil
}
