// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package websocket

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/validation"
)

// Message types for WebSocket communication
const (
	MessageTypeSnapshot        = "snapshot"
	MessageTypeEntityDetail    = "entity_detail"
	MessageTypeError           = "error"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
	MessageTypeSelectEntity    = "select_entity"
	MessageTypeViewportChanged = "viewport_changed"
	MessageTypeCriteriaChanged = "criteria_changed"
	MessageTypeTogglesChanged  = "toggles_changed"
)

// Error codes carried in error messages.
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownType    = "UNKNOWN_MESSAGE_TYPE"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
)

// Message is an outbound WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundMessage is a client event; Data is decoded per Type.
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ViewportPayload is the data of a viewport_changed event. A nil Bounds
// clears the viewport restriction.
type ViewportPayload struct {
	Bounds *models.Bounds `json:"bounds"`
	Zoom   int            `json:"zoom" validate:"zoom"`
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func errorMessage(apiErr *validation.APIError) Message {
	return Message{Type: MessageTypeError, Data: apiErr}
}

func newError(code, message string) Message {
	return errorMessage(&validation.APIError{Code: code, Message: message})
}
