// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"strconv"

	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/spatial"
)

// Criteria returns the view's filter criteria.
func (v *View) Criteria() models.FilterCriteria {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.criteria
}

// SetCriteria replaces the filter criteria. The viewport is kept; it is
// owned by ViewportChanged.
func (v *View) SetCriteria(c models.FilterCriteria) {
	v.mu.Lock()
	c.Viewport = v.criteria.Viewport
	v.criteria = c
	v.mu.Unlock()
	v.session.throttle.Trigger()
}

// ViewportChanged records the visible map area and zoom. A nil bounds
// clears the viewport filter.
func (v *View) ViewportChanged(bounds *models.Bounds, zoom int) {
	if zoom < 0 {
		zoom = 0
	}
	if zoom > spatial.MaxZoom {
		zoom = spatial.MaxZoom
	}
	if bounds != nil {
		b := *bounds
		bounds = &b
	}
	v.mu.Lock()
	v.criteria.Viewport = bounds
	v.zoom = zoom
	v.mu.Unlock()
	v.session.throttle.Trigger()
}

// Zoom returns the view's zoom level.
func (v *View) Zoom() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// Toggles returns the view's layer toggles.
func (v *View) Toggles() models.LayerToggles {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.toggles
}

// SetToggles replaces the layer toggles.
func (v *View) SetToggles(t models.LayerToggles) {
	v.mu.Lock()
	v.toggles = t
	v.mu.Unlock()
	v.session.throttle.Trigger()
}

// Selected returns the view's last selected entity, if any.
func (v *View) Selected() (models.EntityRef, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.selected == nil {
		return models.EntityRef{}, false
	}
	return *v.selected, true
}

// SelectEntity records the selection and returns the entity detail.
func (v *View) SelectEntity(ref models.EntityRef) (models.EntityDetail, error) {
	detail, err := v.session.entityDetail(ref)
	if err != nil {
		return detail, err
	}
	v.mu.Lock()
	v.selected = &ref
	v.mu.Unlock()
	v.session.log.SessionEvent(v.session.id, "view "+strconv.Itoa(v.id)+" select "+ref.String())
	return detail, nil
}

// entityDetail builds the detail of ref from the store. For a vessel the
// detail includes its resolved ports and route.
func (s *Session) entityDetail(ref models.EntityRef) (models.EntityDetail, error) {
	detail := models.EntityDetail{Ref: ref}

	switch ref.Kind {
	case models.KindVessel:
		v, ok := s.store.Vessel(ref.ID)
		if !ok {
			return detail, ErrNotFound
		}
		detail.Vessel = &v
		if v.DeparturePortID != nil {
			if p, ok := s.store.Port(*v.DeparturePortID); ok {
				detail.DeparturePort = &p
			}
		}
		if v.DestinationPortID != nil {
			if p, ok := s.store.Port(*v.DestinationPortID); ok {
				detail.DestinationPort = &p
			}
		}
		if r, ok := spatial.RouteFor(&v, s.store.Port); ok {
			detail.Route = &r
		}
	case models.KindPort:
		p, ok := s.store.Port(ref.ID)
		if !ok {
			return detail, ErrNotFound
		}
		detail.Port = &p
	case models.KindRefinery:
		r, ok := s.store.Refinery(ref.ID)
		if !ok {
			return detail, ErrNotFound
		}
		detail.Refinery = &r
	default:
		return detail, ErrNotFound
	}
	return detail, nil
}

// ConnectionState returns the last state reported by the feed.
func (s *Session) ConnectionState() models.ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.connState
}

func (s *Session) setConnectionState(state models.ConnectionState) {
	s.stateMu.Lock()
	changed := s.connState != state
	s.connState = state
	s.stateMu.Unlock()
	if changed {
		s.throttle.Trigger()
	}
}

// The Session methods below act on the default view, for single-consumer
// callers such as the replay tool.

// DefaultView returns the view created with the session.
func (s *Session) DefaultView() *View {
	return s.def
}

// Criteria returns the default view's filter criteria.
func (s *Session) Criteria() models.FilterCriteria {
	return s.def.Criteria()
}

// SetCriteria replaces the default view's filter criteria.
func (s *Session) SetCriteria(c models.FilterCriteria) {
	s.def.SetCriteria(c)
}

// ViewportChanged updates the default view's viewport and zoom.
func (s *Session) ViewportChanged(bounds *models.Bounds, zoom int) {
	s.def.ViewportChanged(bounds, zoom)
}

// Zoom returns the default view's zoom level.
func (s *Session) Zoom() int {
	return s.def.Zoom()
}

// Toggles returns the default view's layer toggles.
func (s *Session) Toggles() models.LayerToggles {
	return s.def.Toggles()
}

// SetToggles replaces the default view's layer toggles.
func (s *Session) SetToggles(t models.LayerToggles) {
	s.def.SetToggles(t)
}

// Selected returns the default view's selection.
func (s *Session) Selected() (models.EntityRef, bool) {
	return s.def.Selected()
}

// SelectEntity selects ref in the default view.
func (s *Session) SelectEntity(ref models.EntityRef) (models.EntityDetail, error) {
	return s.def.SelectEntity(ref)
}
