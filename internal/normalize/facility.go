// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package normalize

import (
	"time"

	"github.com/tomtom215/harborwatch/internal/models"
)

var (
	portIDAliases     = []string{"id", "portid", "port.id"}
	refineryIDAliases = []string{"id", "refineryid", "refinery.id"}
)

// NormalizePort converts one raw registry record into a Port.
func NormalizePort(raw []byte, receivedAt time.Time) (models.Port, *Rejection) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return models.Port{}, reject(models.KindPort, ReasonMalformedJSON, "", err.Error())
	}
	f, rej := facilityFromRecord(rec, models.KindPort, portIDAliases, receivedAt)
	if rej != nil {
		return models.Port{}, rej
	}
	return models.Port{Facility: f}, nil
}

// NormalizeRefinery converts one raw registry record into a Refinery.
func NormalizeRefinery(raw []byte, receivedAt time.Time) (models.Refinery, *Rejection) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return models.Refinery{}, reject(models.KindRefinery, ReasonMalformedJSON, "", err.Error())
	}
	f, rej := facilityFromRecord(rec, models.KindRefinery, refineryIDAliases, receivedAt)
	if rej != nil {
		return models.Refinery{}, rej
	}
	return models.Refinery{
		Facility: f,
		Products: rec.list("products", "producttypes", "product"),
	}, nil
}

func facilityFromRecord(rec record, kind models.EntityKind, idAliases []string, receivedAt time.Time) (models.Facility, *Rejection) {
	id, rawID, rej := identity(rec, kind, idAliases)
	if rej != nil {
		return models.Facility{}, rej
	}
	pos, rej := position(rec, kind, rawID)
	if rej != nil {
		return models.Facility{}, rej
	}

	f := models.Facility{
		ID:         id,
		Name:       rec.str("name", "portname", "refineryname"),
		Country:    canonicalCountry(rec.str("country", "countryname", "countrycode")),
		Region:     rec.str("region", "area"),
		Position:   pos,
		Capacity:   rec.optionalQuantity("capacity", "capacitybpd", "throughput"),
		Status:     rec.str("status", "operationalstatus"),
		LastUpdate: receivedAt.UTC(),
	}
	if f.Status == "" {
		f.Status = models.DefaultFacilityStatus
	}
	if f.Capacity != nil && *f.Capacity < 0 {
		f.Capacity = nil
	}
	if ts, ok := rec.timestamp(lastUpdateAlias...); ok {
		f.LastUpdate = ts
	}
	return f, nil
}
