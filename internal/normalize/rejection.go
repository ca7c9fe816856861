// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package normalize

import (
	"errors"
	"fmt"

	"github.com/tomtom215/harborwatch/internal/models"
)

// ErrMalformedRecord is matched by every *Rejection via errors.Is.
var ErrMalformedRecord = errors.New("malformed record")

// Reason classifies why a record was rejected.
type Reason string

const (
	ReasonMalformedJSON      Reason = "malformed_json"
	ReasonMissingID          Reason = "missing_id"
	ReasonInvalidID          Reason = "invalid_id"
	ReasonMissingCoordinates Reason = "missing_coordinates"
	ReasonInvalidLatitude    Reason = "invalid_latitude"
	ReasonInvalidLongitude   Reason = "invalid_longitude"
)

// Rejection describes one record dropped during normalization.
type Rejection struct {
	Kind   models.EntityKind `json:"kind"`
	Index  int               `json:"index"`        // position within the batch
	ID     string            `json:"id,omitempty"` // raw id when one was present
	Reason Reason            `json:"reason"`
	Detail string            `json:"detail,omitempty"`
}

// MalformedRecordError is the error form of a Rejection.
type MalformedRecordError = Rejection

func (r *Rejection) Error() string {
	id := r.ID
	if id == "" {
		id = "?"
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s record %d (id %s) rejected: %s: %s", r.Kind, r.Index, id, r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s record %d (id %s) rejected: %s", r.Kind, r.Index, id, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return ErrMalformedRecord
}

func reject(kind models.EntityKind, reason Reason, id, detail string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason, ID: id, Detail: detail}
}
