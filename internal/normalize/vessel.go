// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package normalize

import (
	"math"
	"strconv"
	"time"

	"github.com/tomtom215/harborwatch/internal/models"
)

// AIS sentinel values meaning "not available".
const (
	aisHeadingUnavailable = 511
	aisSpeedUnavailable   = 102.3
)

var (
	vesselIDAliases = []string{"id", "vesselid", "vessel.id", "shipid", "mmsi"}
	headingAliases  = []string{"heading", "trueheading", "course", "cog", "courseoverground"}
	speedAliases    = []string{"speed", "sog", "speedknots", "speedoverground"}
	lastUpdateAlias = []string{"lastupdate", "lastupdated", "updatedat", "timestamp", "lastseen", "time", "ts"}
)

// NormalizeVessel converts one raw record into a Vessel. receivedAt is used
// as the last update time when the record carries none.
func NormalizeVessel(raw []byte, receivedAt time.Time) (models.Vessel, *Rejection) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return models.Vessel{}, reject(models.KindVessel, ReasonMalformedJSON, "", err.Error())
	}
	return vesselFromRecord(rec, receivedAt)
}

func vesselFromRecord(rec record, receivedAt time.Time) (models.Vessel, *Rejection) {
	id, rawID, rej := identity(rec, models.KindVessel, vesselIDAliases)
	if rej != nil {
		return models.Vessel{}, rej
	}
	pos, rej := position(rec, models.KindVessel, rawID)
	if rej != nil {
		return models.Vessel{}, rej
	}

	v := models.Vessel{
		ID:                id,
		Name:              rec.str("name", "vesselname", "shipname"),
		IMO:               rec.str("imo", "imonumber"),
		MMSI:              rec.str("mmsi"),
		Flag:              canonicalFlag(rec.str("flag", "flagstate", "flagcountry")),
		Position:          pos,
		Heading:           heading(rec),
		Speed:             speed(rec),
		VesselType:        rec.str("vesseltype", "type", "shiptype"),
		CargoType:         rec.str("cargotype", "cargo", "product", "producttype"),
		Status:            rec.str("status", "navstatus", "navigationstatus"),
		BuyerCompany:      rec.str("buyercompany", "buyer", "buyername"),
		SellerCompany:     rec.str("sellercompany", "seller", "sellername"),
		Region:            rec.str("region", "area", "currentregion"),
		DeparturePortID:   rec.optionalID("departureportid", "departureport.id", "fromportid", "originportid", "loadportid"),
		DestinationPortID: rec.optionalID("destinationportid", "destinationport.id", "toportid", "dischargeportid"),
		LastUpdate:        receivedAt.UTC(),
	}
	if v.Status == "" {
		v.Status = models.DefaultVesselStatus
	}
	if eta, ok := rec.timestamp("eta", "estimatedarrival"); ok {
		v.ETA = &eta
	}
	if ts, ok := rec.timestamp(lastUpdateAlias...); ok {
		v.LastUpdate = ts
	}
	return v, nil
}

// heading returns degrees in [0,360) or nil when unknown.
func heading(rec record) *float64 {
	h, ok := rec.float(headingAliases...)
	if !ok || h == aisHeadingUnavailable {
		return nil
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return &h
}

// speed returns knots or nil when unknown or negative.
func speed(rec record) *float64 {
	s, ok := rec.float(speedAliases...)
	if !ok || s < 0 || s >= aisSpeedUnavailable {
		return nil
	}
	return &s
}

// identity extracts a positive integer id.
func identity(rec record, kind models.EntityKind, aliases []string) (int64, string, *Rejection) {
	v, ok := rec.lookup(aliases...)
	if !ok {
		return 0, "", reject(kind, ReasonMissingID, "", "")
	}
	rawID := rawString(v)
	id, ok := toInt(v)
	if !ok || id <= 0 {
		return 0, rawID, reject(kind, ReasonInvalidID, rawID, "id must be a positive integer")
	}
	return id, rawID, nil
}

// position extracts and range-checks coordinates.
func position(rec record, kind models.EntityKind, rawID string) (models.Position, *Rejection) {
	lat, lng, latOK, lngOK := rec.coordinates()
	if !latOK || !lngOK {
		return models.Position{}, reject(kind, ReasonMissingCoordinates, rawID, "")
	}
	if lat < -90 || lat > 90 {
		return models.Position{}, reject(kind, ReasonInvalidLatitude, rawID, "latitude "+strconv.FormatFloat(lat, 'f', -1, 64)+" outside [-90,90]")
	}
	if lng < -180 || lng > 180 {
		return models.Position{}, reject(kind, ReasonInvalidLongitude, rawID, "longitude "+strconv.FormatFloat(lng, 'f', -1, 64)+" outside [-180,180]")
	}
	return models.Position{Lat: lat, Lng: lng}, nil
}

func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case interface{ String() string }:
		return t.String()
	default:
		return ""
	}
}
