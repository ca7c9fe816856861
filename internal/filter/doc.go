// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package filter evaluates FilterCriteria over an entity store snapshot.
//
// Semantics: OR within a category, AND across categories, an empty
// category matches everything. Predicates run in the order type,
// company/product, region, bounding box, free text and stop at the first
// non-match; the order affects cost only, never the result.
//
// Apply is pure and deterministic. Engine memoizes results keyed on the
// criteria fingerprint and the snapshot version, so re-rendering with
// unchanged inputs returns the identical *View.
package filter
