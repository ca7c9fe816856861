// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"sync"

	"github.com/tomtom215/harborwatch/internal/models"
)

// View is one consumer's window onto a session: its own filter criteria,
// zoom, layer toggles, selection and render cache. The store, feed and
// aggregation caches are shared by every view of the session.
type View struct {
	id      int
	session *Session

	mu       sync.RWMutex
	criteria models.FilterCriteria
	zoom     int
	toggles  models.LayerToggles
	selected *models.EntityRef
	closed   bool

	renderMu sync.Mutex
	snapshot *models.RenderSnapshot
	snapKey  renderKey

	// pubMu orders deliveries; published is the last snapshot handed to
	// subscribers, independent of who rendered it.
	pubMu     sync.Mutex
	published *models.RenderSnapshot

	subMu     sync.RWMutex
	subs      map[int]func(*models.RenderSnapshot)
	nextSubID int
}

// NewView opens an independent view with the default zoom and toggles.
// Views receive pushes until Close.
func (s *Session) NewView() *View {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()

	v := &View{
		id:      s.nextViewID,
		session: s,
		zoom:    s.cfg.DefaultZoom,
		toggles: models.DefaultLayerToggles(),
		subs:    make(map[int]func(*models.RenderSnapshot)),
	}
	s.nextViewID++
	s.views[v.id] = v
	return v
}

// ViewCount returns the number of open views, the default view included.
func (s *Session) ViewCount() int {
	s.viewsMu.RLock()
	defer s.viewsMu.RUnlock()
	return len(s.views)
}

func (s *Session) openViews() []*View {
	s.viewsMu.RLock()
	defer s.viewsMu.RUnlock()
	views := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	return views
}

// ID returns the view id, unique within its session.
func (v *View) ID() int {
	return v.id
}

// Close detaches the view from the session and drops its subscribers.
// Closing twice is a no-op.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.session.viewsMu.Lock()
	delete(v.session.views, v.id)
	v.session.viewsMu.Unlock()

	v.subMu.Lock()
	clear(v.subs)
	v.subMu.Unlock()
}

// Closed reports whether Close was called.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}
