// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package normalize converts heterogeneous raw feed records into canonical
// vessel, port and refinery entities.
//
// Upstream feeds disagree on field naming (camelCase, snake_case, AIS-style
// names such as sog/cog, nested position objects, GeoJSON coordinate pairs)
// and encode numbers as strings. Every function in this package is pure:
// it reads one record and returns either an entity or a *Rejection carrying
// the reason. A malformed record never aborts its batch; N raw records yield
// at most N entities.
//
// Defaults:
//   - vessel status: "At Sea"
//   - port and refinery status: "Operational"
//   - last update: the time the batch was received
//   - heading, speed, capacity, ETA: nil when unknown (never invented)
//
// Rejections:
//   - missing_id / invalid_id: no usable positive integer identity
//   - missing_coordinates: no parseable latitude or longitude
//   - invalid_latitude / invalid_longitude: outside [-90,90] or [-180,180]
//   - malformed_json: the record is not a JSON object
package normalize
