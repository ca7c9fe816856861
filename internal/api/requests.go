// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/validation"
	ws "github.com/tomtom215/harborwatch/internal/websocket"
)

const maxRequestBody = 64 * 1024

// OpenSessionRequest carries the session token when it is not sent as a
// bearer header.
type OpenSessionRequest struct {
	Token string `json:"token" validate:"max=4096"`
}

// ViewportRequest is the body of PUT /viewport.
type ViewportRequest = ws.ViewportPayload

// SelectRequest is the body of POST /select.
type SelectRequest = models.EntityRef

// decodeJSON decodes a bounded request body into dst and validates it. It
// writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		rw.BadRequest("Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			rw.BadRequest("Request body is required")
		} else {
			rw.BadRequest("Invalid JSON body")
		}
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}
