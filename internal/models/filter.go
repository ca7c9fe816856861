// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

// FilterCriteria selects the entities shown on the map.
//
// Semantics: OR within a category, AND across categories. An empty set means
// "match all" for that category.
type FilterCriteria struct {
	VesselTypes  []string `json:"vessel_types,omitempty" validate:"max=64,dive,max=128"`
	Companies    []string `json:"companies,omitempty" validate:"max=64,dive,max=128"`
	ProductTypes []string `json:"product_types,omitempty" validate:"max=64,dive,max=128"`
	Region       string   `json:"region,omitempty" validate:"max=64"`
	Viewport     *Bounds  `json:"viewport,omitempty"`
	FreeText     string   `json:"free_text,omitempty" validate:"max=256"`
}

// IsZero reports whether the criteria match everything.
func (c *FilterCriteria) IsZero() bool {
	return len(c.VesselTypes) == 0 && len(c.Companies) == 0 && len(c.ProductTypes) == 0 &&
		c.Region == "" && c.Viewport == nil && c.FreeText == ""
}

// LayerToggles are the map layer switches of the filter UI.
type LayerToggles struct {
	ShowVessels    bool `json:"show_vessels"`
	ShowPorts      bool `json:"show_ports"`
	ShowRefineries bool `json:"show_refineries"`
	ShowRoutes     bool `json:"show_routes"`
	ShowHeatmap    bool `json:"show_heatmap"`
}

// DefaultLayerToggles shows every layer except the heatmap.
func DefaultLayerToggles() LayerToggles {
	return LayerToggles{
		ShowVessels:    true,
		ShowPorts:      true,
		ShowRefineries: true,
		ShowRoutes:     true,
		ShowHeatmap:    false,
	}
}
