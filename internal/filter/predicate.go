// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package filter

import (
	"math"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/harborwatch/internal/models"
)

// compiled is FilterCriteria lowered for evaluation: sets are lower-cased
// maps, the region is a token and free text is lower-cased.
type compiled struct {
	vesselTypes  map[string]struct{}
	companies    []string
	productTypes map[string]struct{}
	region       string
	viewport     *models.Bounds
	freeText     string
}

func compile(c *models.FilterCriteria) compiled {
	out := compiled{
		vesselTypes:  toSet(c.VesselTypes),
		productTypes: toSet(c.ProductTypes),
		region:       RegionToken(c.Region),
		viewport:     c.Viewport,
		freeText:     strings.ToLower(strings.TrimSpace(c.FreeText)),
	}
	for _, co := range c.Companies {
		if co = strings.ToLower(strings.TrimSpace(co)); co != "" {
			out.companies = append(out.companies, co)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func inSet(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Fingerprint returns a stable hash of criteria. Set order, case and
// surrounding whitespace do not affect it.
func Fingerprint(c *models.FilterCriteria) uint64 {
	h := xxhash.New()
	writeSet := func(tag string, values []string) {
		norm := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				norm = append(norm, v)
			}
		}
		slices.Sort(norm)
		norm = slices.Compact(norm)
		_, _ = h.WriteString(tag)
		for _, v := range norm {
			_, _ = h.WriteString(v)
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte{1})
	}
	writeSet("t", c.VesselTypes)
	writeSet("c", c.Companies)
	writeSet("p", c.ProductTypes)
	_, _ = h.WriteString("r" + RegionToken(c.Region) + "\x01")
	if c.Viewport != nil {
		var buf [32]byte
		for i, f := range []float64{c.Viewport.South, c.Viewport.West, c.Viewport.North, c.Viewport.East} {
			bits := math.Float64bits(f)
			for j := 0; j < 8; j++ {
				buf[i*8+j] = byte(bits >> (8 * j))
			}
		}
		_, _ = h.WriteString("v")
		_, _ = h.Write(buf[:])
	}
	_, _ = h.WriteString("f" + strings.ToLower(strings.TrimSpace(c.FreeText)))
	return h.Sum64()
}

// matchVessel evaluates type, company/product, region, bounding box and
// free text in that order, returning at the first non-match. Vessels
// without a valid position never match.
func (c *compiled) matchVessel(v *models.Vessel) bool {
	if !v.Position.Valid() {
		return false
	}
	if !inSet(c.vesselTypes, v.VesselType) {
		return false
	}
	if len(c.companies) > 0 && !matchCompany(c.companies, v.BuyerCompany, v.SellerCompany) {
		return false
	}
	if !inSet(c.productTypes, v.CargoType) {
		return false
	}
	if c.region != "" && !matchRegion(c.region, v.Region, v.Position) {
		return false
	}
	if c.viewport != nil && !c.viewport.Contains(v.Position) {
		return false
	}
	if c.freeText != "" && !containsAny(c.freeText, v.Name, v.IMO, v.MMSI, v.VesselType, v.CargoType,
		v.BuyerCompany, v.SellerCompany, v.Status, v.Region, v.Flag) {
		return false
	}
	return true
}

// matchPort applies the categories meaningful for ports: region, bounding
// box and free text.
func (c *compiled) matchPort(p *models.Port) bool {
	if !c.matchFacility(&p.Facility) {
		return false
	}
	return c.freeText == "" || containsAny(c.freeText, p.Name, p.Country, p.Region, p.Status)
}

// matchRefinery additionally applies the product set to the refinery's
// product slate.
func (c *compiled) matchRefinery(r *models.Refinery) bool {
	if c.productTypes != nil && !slices.ContainsFunc(r.Products, func(prod string) bool { return inSet(c.productTypes, prod) }) {
		return false
	}
	if !c.matchFacility(&r.Facility) {
		return false
	}
	if c.freeText == "" {
		return true
	}
	return containsAny(c.freeText, r.Name, r.Country, r.Region, r.Status) || containsAny(c.freeText, r.Products...)
}

func (c *compiled) matchFacility(f *models.Facility) bool {
	if !f.Position.Valid() {
		return false
	}
	if c.region != "" && !matchRegion(c.region, f.Region, f.Position) {
		return false
	}
	if c.viewport != nil && !c.viewport.Contains(f.Position) {
		return false
	}
	return true
}

// matchCompany is an OR over companies against either party of the deal.
func matchCompany(companies []string, buyer, seller string) bool {
	buyer, seller = strings.ToLower(buyer), strings.ToLower(seller)
	for _, co := range companies {
		if strings.Contains(buyer, co) || strings.Contains(seller, co) {
			return true
		}
	}
	return false
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
