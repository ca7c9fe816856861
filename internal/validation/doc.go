// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package validation validates inbound map and filter events with
// go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata on first use. Field names in errors are the JSON names the
// client sent ("viewport.north", not "Viewport.North"), so the map UI can
// point at the offending control.
//
// Custom tags:
//   - entitykind: one of vessel, port, refinery
//   - zoom: an integer map zoom level in [0, 22]
//
// Usage:
//
//	var req ViewportRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
