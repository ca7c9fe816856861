// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package models

import (
	"strconv"
	"strings"
	"time"
)

// EntityKind identifies the registry an entity belongs to.
type EntityKind string

const (
	KindVessel   EntityKind = "vessel"
	KindPort     EntityKind = "port"
	KindRefinery EntityKind = "refinery"
)

// ParseEntityKind converts a client supplied kind string.
func ParseEntityKind(s string) (EntityKind, bool) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindVessel, KindPort, KindRefinery:
		return k, true
	}
	return "", false
}

// Default status values applied by the normalizer when the feed omits them.
const (
	DefaultVesselStatus   = "At Sea"
	DefaultFacilityStatus = "Operational"
)

// Entity is implemented by every tracked entity type.
type Entity interface {
	Kind() EntityKind
	EntityID() int64
	UpdatedAt() time.Time
	Location() Position
	SetStale(stale bool)
	IsStale() bool
	// Detach replaces pointer and slice fields with private copies so the
	// value no longer aliases the caller's memory.
	Detach()
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Vessel is a tracked ship. Records are replaced wholesale on every newer
// sighting; fields are never merged across ticks.
type Vessel struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	IMO               string     `json:"imo,omitempty"`
	MMSI              string     `json:"mmsi,omitempty"`
	Flag              string     `json:"flag,omitempty"`
	Position          Position   `json:"position"`
	Heading           *float64   `json:"heading,omitempty"` // degrees 0-359, nil when unknown
	Speed             *float64   `json:"speed,omitempty"`   // knots, nil when unknown
	VesselType        string     `json:"vessel_type"`
	CargoType         string     `json:"cargo_type,omitempty"`
	Status            string     `json:"status"`
	BuyerCompany      string     `json:"buyer_company,omitempty"`
	SellerCompany     string     `json:"seller_company,omitempty"`
	Region            string     `json:"region,omitempty"`
	DeparturePortID   *int64     `json:"departure_port_id,omitempty"`
	DestinationPortID *int64     `json:"destination_port_id,omitempty"`
	ETA               *time.Time `json:"eta,omitempty"`
	LastUpdate        time.Time  `json:"last_update"`
	Stale             bool       `json:"stale"`
}

func (v *Vessel) Kind() EntityKind       { return KindVessel }
func (v *Vessel) EntityID() int64        { return v.ID }
func (v *Vessel) UpdatedAt() time.Time   { return v.LastUpdate }
func (v *Vessel) Location() Position     { return v.Position }
func (v *Vessel) SetStale(stale bool)    { v.Stale = stale }
func (v *Vessel) IsStale() bool          { return v.Stale }
func (v *Vessel) HasValidPosition() bool { return v.Position.Valid() }

func (v *Vessel) Detach() {
	v.Heading = clonePtr(v.Heading)
	v.Speed = clonePtr(v.Speed)
	v.DeparturePortID = clonePtr(v.DeparturePortID)
	v.DestinationPortID = clonePtr(v.DestinationPortID)
	v.ETA = clonePtr(v.ETA)
}

// Facility holds the fields shared by ports and refineries. Both registries
// are comparatively static and refreshed on a long interval.
type Facility struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Country    string    `json:"country,omitempty"`
	Region     string    `json:"region,omitempty"`
	Position   Position  `json:"position"`
	Capacity   *float64  `json:"capacity,omitempty"`
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"last_update"`
	Stale      bool      `json:"stale"`
}

// Port is a registry port.
type Port struct {
	Facility
}

func (p *Port) Kind() EntityKind     { return KindPort }
func (p *Port) EntityID() int64      { return p.ID }
func (p *Port) UpdatedAt() time.Time { return p.LastUpdate }
func (p *Port) Location() Position   { return p.Position }
func (p *Port) SetStale(stale bool)  { p.Stale = stale }
func (p *Port) IsStale() bool        { return p.Stale }
func (p *Port) Detach()              { p.Capacity = clonePtr(p.Capacity) }

// Refinery is a registry refinery. Products lists the refined product types.
type Refinery struct {
	Facility
	Products []string `json:"products,omitempty"`
}

func (r *Refinery) Kind() EntityKind     { return KindRefinery }
func (r *Refinery) EntityID() int64      { return r.ID }
func (r *Refinery) UpdatedAt() time.Time { return r.LastUpdate }
func (r *Refinery) Location() Position   { return r.Position }
func (r *Refinery) SetStale(stale bool)  { r.Stale = stale }
func (r *Refinery) IsStale() bool        { return r.Stale }

func (r *Refinery) Detach() {
	r.Capacity = clonePtr(r.Capacity)
	if r.Products != nil {
		r.Products = append([]string(nil), r.Products...)
	}
}

// EntityRef is the (kind, id) pair used by selection events.
type EntityRef struct {
	Kind EntityKind `json:"kind" validate:"required,entitykind"`
	ID   int64      `json:"id" validate:"required"`
}

func (r EntityRef) String() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ID, 10)
}
