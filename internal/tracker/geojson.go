// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/tomtom215/harborwatch/internal/models"
)

// Feature layer names carried in the "layer" property.
const (
	LayerVessel   = "vessel"
	LayerPort     = "port"
	LayerRefinery = "refinery"
	LayerRoute    = "route"
	LayerHeat     = "heat"
	LayerCluster  = "cluster"
)

// GeoJSON renders the default view's snapshot as a FeatureCollection.
func (s *Session) GeoJSON() *geojson.FeatureCollection {
	return SnapshotGeoJSON(s.Snapshot())
}

// GeoJSON renders the view's snapshot as a FeatureCollection.
func (v *View) GeoJSON() *geojson.FeatureCollection {
	return SnapshotGeoJSON(v.Snapshot())
}

// SnapshotGeoJSON converts a render snapshot into a FeatureCollection.
// Coordinates are [lng, lat]. Layers toggled off in the snapshot are absent.
func SnapshotGeoJSON(snap *models.RenderSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if snap == nil {
		return fc
	}

	for i := range snap.Vessels {
		v := &snap.Vessels[i]
		f := pointFeature(LayerVessel, v.ID, v.Position)
		f.SetProperty("name", v.Name)
		f.SetProperty("vessel_type", v.VesselType)
		f.SetProperty("status", v.Status)
		f.SetProperty("stale", v.Stale)
		f.SetProperty("last_update", v.LastUpdate)
		setOptional(f, "imo", v.IMO)
		setOptional(f, "flag", v.Flag)
		setOptional(f, "cargo_type", v.CargoType)
		if v.Heading != nil {
			f.SetProperty("heading", *v.Heading)
		}
		if v.Speed != nil {
			f.SetProperty("speed", *v.Speed)
		}
		fc.AddFeature(f)
	}
	for i := range snap.Ports {
		fc.AddFeature(facilityFeature(LayerPort, &snap.Ports[i].Facility))
	}
	for i := range snap.Refineries {
		r := &snap.Refineries[i]
		f := facilityFeature(LayerRefinery, &r.Facility)
		if len(r.Products) > 0 {
			f.SetProperty("products", r.Products)
		}
		fc.AddFeature(f)
	}
	for i := range snap.Routes {
		r := &snap.Routes[i]
		line := make([][]float64, len(r.Waypoints))
		for j, p := range r.Waypoints {
			line[j] = []float64{p.Lng, p.Lat}
		}
		f := geojson.NewLineStringFeature(line)
		f.ID = r.VesselID
		f.SetProperty("layer", LayerRoute)
		f.SetProperty("departure_port_id", r.DeparturePortID)
		f.SetProperty("destination_port_id", r.DestinationPortID)
		fc.AddFeature(f)
	}
	for i := range snap.HeatBuckets {
		b := &snap.HeatBuckets[i]
		ring := [][]float64{
			{b.Bounds.West, b.Bounds.South},
			{b.Bounds.East, b.Bounds.South},
			{b.Bounds.East, b.Bounds.North},
			{b.Bounds.West, b.Bounds.North},
			{b.Bounds.West, b.Bounds.South},
		}
		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.SetProperty("layer", LayerHeat)
		f.SetProperty("count", b.Count)
		f.SetProperty("intensity", b.Intensity)
		fc.AddFeature(f)
	}
	for i := range snap.Clusters {
		c := &snap.Clusters[i]
		f := geojson.NewPointFeature([]float64{c.Centroid.Lng, c.Centroid.Lat})
		f.SetProperty("layer", LayerCluster)
		f.SetProperty("count", c.Count)
		fc.AddFeature(f)
	}
	return fc
}

func pointFeature(layer string, id int64, p models.Position) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{p.Lng, p.Lat})
	f.ID = id
	f.SetProperty("layer", layer)
	return f
}

func facilityFeature(layer string, fac *models.Facility) *geojson.Feature {
	f := pointFeature(layer, fac.ID, fac.Position)
	f.SetProperty("name", fac.Name)
	f.SetProperty("status", fac.Status)
	f.SetProperty("stale", fac.Stale)
	setOptional(f, "country", fac.Country)
	setOptional(f, "region", fac.Region)
	if fac.Capacity != nil {
		f.SetProperty("capacity", *fac.Capacity)
	}
	return f
}

func setOptional(f *geojson.Feature, key, value string) {
	if value != "" {
		f.SetProperty(key, value)
	}
}
