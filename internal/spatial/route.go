// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import "github.com/tomtom215/harborwatch/internal/models"

// PortResolver resolves a port id to its record.
type PortResolver func(id int64) (models.Port, bool)

// Routes emits a 3-point route for each vessel whose departure and
// destination ports both resolve to ports with valid positions. Vessels
// with one or no resolvable port produce nothing.
func Routes(vessels []models.Vessel, resolve PortResolver) []models.Route {
	if resolve == nil {
		return nil
	}
	var routes []models.Route
	for i := range vessels {
		if r, ok := RouteFor(&vessels[i], resolve); ok {
			routes = append(routes, r)
		}
	}
	return routes
}

// RouteFor builds the route of a single vessel.
func RouteFor(v *models.Vessel, resolve PortResolver) (models.Route, bool) {
	if !v.Position.Valid() || v.DeparturePortID == nil || v.DestinationPortID == nil {
		return models.Route{}, false
	}
	dep, ok := resolve(*v.DeparturePortID)
	if !ok || !dep.Position.Valid() {
		return models.Route{}, false
	}
	dst, ok := resolve(*v.DestinationPortID)
	if !ok || !dst.Position.Valid() {
		return models.Route{}, false
	}
	return models.Route{
		VesselID:          v.ID,
		DeparturePortID:   dep.ID,
		DestinationPortID: dst.ID,
		Waypoints:         []models.Position{dep.Position, v.Position, dst.Position},
	}, true
}
