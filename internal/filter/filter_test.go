// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package filter

import (
	"testing"
	"time"

	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/normalize"
	"github.com/tomtom215/harborwatch/internal/store"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func ids(vs []models.Vessel) []int64 {
	out := make([]int64, len(vs))
	for i := range vs {
		out[i] = vs[i].ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fleet() *store.Snapshot {
	vessels := []models.Vessel{
		{ID: 1, Name: "Gulf Pioneer", VesselType: "Crude Oil Tanker", CargoType: "Crude Oil", BuyerCompany: "Aramco Trading", SellerCompany: "Shell", Position: models.Position{Lat: 26, Lng: 52}, LastUpdate: t0},
		{ID: 2, Name: "Nordic Star", VesselType: "LNG Carrier", CargoType: "LNG", BuyerCompany: "Equinor", Region: "North Sea", Position: models.Position{Lat: 58, Lng: 3}, LastUpdate: t0},
		{ID: 3, Name: "Pacific Dawn", VesselType: "Product Tanker", CargoType: "Diesel", SellerCompany: "Shell Eastern", Position: models.Position{Lat: 0, Lng: 179}, LastUpdate: t0},
		{ID: 4, Name: "Lost Signal", VesselType: "LNG Carrier", Position: models.Position{Lat: 95, Lng: 0}, LastUpdate: t0},
		{ID: 5, Name: "Sirius", VesselType: "Crude Oil Tanker", CargoType: "Crude Oil", BuyerCompany: "Vitol", Position: models.Position{Lat: 1, Lng: -179}, LastUpdate: t0},
	}
	ports := []models.Port{
		{Facility: models.Facility{ID: 10, Name: "Ras Tanura", Country: "Saudi Arabia", Position: models.Position{Lat: 26.6, Lng: 50.1}}},
		{Facility: models.Facility{ID: 11, Name: "Rotterdam", Country: "Netherlands", Region: "North Sea", Position: models.Position{Lat: 51.9, Lng: 4.1}}},
	}
	refineries := []models.Refinery{
		{Facility: models.Facility{ID: 20, Name: "Ruwais", Position: models.Position{Lat: 24.1, Lng: 52.7}}, Products: []string{"Diesel", "Jet Fuel"}},
		{Facility: models.Facility{ID: 21, Name: "Pernis", Position: models.Position{Lat: 51.9, Lng: 4.3}}, Products: []string{"Gasoline"}},
	}
	return store.NewSnapshot(7, vessels, ports, refineries)
}

// Scenario B: filtering the Scenario A store by vessel type.
func TestApply_ScenarioB(t *testing.T) {
	t.Parallel()

	res := normalize.Batch(models.KindVessel, [][]byte{
		[]byte(`{"id":1,"lat":10,"lng":20,"type":"Crude Oil Tanker"}`),
		[]byte(`{"id":2,"lat":91,"lng":0}`),
		[]byte(`{"id":3,"lat":5,"lng":5,"type":"LNG"}`),
	}, t0)
	s := store.New(2)
	s.ApplyVessels(res.Vessels, "poll")

	view := Apply(models.FilterCriteria{VesselTypes: []string{"LNG"}}, s.Snapshot())
	if got := ids(view.Vessels); !equalIDs(got, []int64{3}) {
		t.Errorf("vessels = %v, want [3]", got)
	}
}

func TestApply_Composition(t *testing.T) {
	t.Parallel()

	snap := fleet()
	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     []int64
	}{
		{"match all", models.FilterCriteria{}, []int64{1, 2, 3, 5}},
		{"types OR", models.FilterCriteria{VesselTypes: []string{"LNG Carrier", "Product Tanker"}}, []int64{2, 3}},
		{"types AND company", models.FilterCriteria{
			VesselTypes: []string{"Crude Oil Tanker", "Product Tanker"},
			Companies:   []string{"shell"},
		}, []int64{1, 3}},
		{"company matches seller substring", models.FilterCriteria{Companies: []string{"Eastern"}}, []int64{3}},
		{"companies OR", models.FilterCriteria{Companies: []string{"vitol", "equinor"}}, []int64{2, 5}},
		{"product", models.FilterCriteria{ProductTypes: []string{"crude oil"}}, []int64{1, 5}},
		{"region field", models.FilterCriteria{Region: "north_sea"}, []int64{2}},
		{"region box", models.FilterCriteria{Region: "Persian Gulf"}, []int64{1}},
		{"viewport", models.FilterCriteria{Viewport: &models.Bounds{South: 20, West: 0, North: 60, East: 60}}, []int64{1, 2}},
		{"viewport across antimeridian", models.FilterCriteria{Viewport: &models.Bounds{South: -5, West: 170, North: 5, East: -170}}, []int64{3, 5}},
		{"free text", models.FilterCriteria{FreeText: " STAR "}, []int64{2}},
		{"free text cargo", models.FilterCriteria{FreeText: "diesel"}, []int64{3}},
		{"no match", models.FilterCriteria{VesselTypes: []string{"LNG Carrier"}, Companies: []string{"vitol"}}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := Apply(tt.criteria, snap)
			if got := ids(view.Vessels); !equalIDs(got, tt.want) {
				t.Errorf("vessels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_InvalidPositionNeverVisible(t *testing.T) {
	t.Parallel()

	view := Apply(models.FilterCriteria{VesselTypes: []string{"LNG Carrier"}}, fleet())
	for _, v := range view.Vessels {
		if v.ID == 4 {
			t.Fatal("vessel with invalid position reached filtered output")
		}
	}
}

func TestApply_Facilities(t *testing.T) {
	t.Parallel()

	snap := fleet()

	view := Apply(models.FilterCriteria{ProductTypes: []string{"diesel"}}, snap)
	if len(view.Refineries) != 1 || view.Refineries[0].ID != 20 {
		t.Errorf("refineries = %+v, want [20]", view.Refineries)
	}
	if len(view.Ports) != 2 {
		t.Errorf("product filter should not hide ports, got %d", len(view.Ports))
	}

	view = Apply(models.FilterCriteria{Region: "north-sea"}, snap)
	if len(view.Ports) != 1 || view.Ports[0].ID != 11 {
		t.Errorf("ports = %+v, want [11]", view.Ports)
	}
	if len(view.Refineries) != 1 || view.Refineries[0].ID != 21 {
		t.Errorf("refineries = %+v, want [21] via the north-sea box", view.Refineries)
	}

	view = Apply(models.FilterCriteria{FreeText: "jet"}, snap)
	if len(view.Refineries) != 1 || view.Refineries[0].ID != 20 {
		t.Errorf("free text should search products, got %+v", view.Refineries)
	}
}

func TestApply_Deterministic(t *testing.T) {
	t.Parallel()

	snap := fleet()
	c := models.FilterCriteria{Companies: []string{"shell"}, FreeText: "a"}
	a, b := Apply(c, snap), Apply(c, snap)
	if !equalIDs(ids(a.Vessels), ids(b.Vessels)) || a.Key() != b.Key() {
		t.Error("identical inputs should produce equal views")
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := models.FilterCriteria{VesselTypes: []string{"LNG", "Crude Oil Tanker"}, Region: "Persian Gulf"}
	b := models.FilterCriteria{VesselTypes: []string{" crude oil tanker", "lng", "LNG"}, Region: "persian-gulf"}
	if Fingerprint(&a) != Fingerprint(&b) {
		t.Error("order, case and duplicates must not change the fingerprint")
	}

	c := a
	c.Viewport = &models.Bounds{South: 1, West: 2, North: 3, East: 4}
	if Fingerprint(&a) == Fingerprint(&c) {
		t.Error("viewport must change the fingerprint")
	}

	d := models.FilterCriteria{Companies: []string{"LNG", "Crude Oil Tanker"}}
	if Fingerprint(&a) == Fingerprint(&d) {
		t.Error("same values in different categories must differ")
	}
}

func TestEngine_Memoizes(t *testing.T) {
	t.Parallel()

	e := NewEngine(2)
	snap := fleet()
	c := models.FilterCriteria{VesselTypes: []string{"LNG Carrier"}}

	first := e.Apply(c, snap)
	if second := e.Apply(c, snap); second != first {
		t.Error("unchanged inputs should return the cached view")
	}

	newer := store.NewSnapshot(snap.Version+1, snap.Vessels, snap.Ports, snap.Refineries)
	if third := e.Apply(c, newer); third == first {
		t.Error("a new snapshot version must miss the cache")
	}

	e.Apply(models.FilterCriteria{FreeText: "x"}, snap)
	if e.Len() != 2 {
		t.Errorf("cache size = %d, want capped at 2", e.Len())
	}
}

func TestRegionToken(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Persian Gulf", "persian_gulf", " PERSIAN--GULF ", "persian-gulf"} {
		if got := RegionToken(in); got != "persian-gulf" {
			t.Errorf("RegionToken(%q) = %q", in, got)
		}
	}
	if _, ok := RegionBounds("Bering Sea"); !ok {
		t.Error("bering-sea should be a known region")
	}
	if len(Regions()) == 0 {
		t.Error("Regions() should not be empty")
	}
}
