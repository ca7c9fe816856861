// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Message types carried by the feed envelope.
const (
	MessageSnapshot  = "snapshot"
	MessagePositions = "positions"
	MessageHeartbeat = "heartbeat"
)

// RawBatch is one feed delivery: the undecoded vessel records plus whether it
// is a full refresh (every live vessel present) or a delta.
type RawBatch struct {
	Source     string
	Records    [][]byte
	Full       bool
	ReceivedAt time.Time
}

// ErrInvalidEnvelope is returned for payloads that are neither a record
// array nor a recognised envelope object.
var ErrInvalidEnvelope = errors.New("invalid feed envelope")

type envelope struct {
	Type    string            `json:"type"`
	Vessels []json.RawMessage `json:"vessels"`
	Data    []json.RawMessage `json:"data"`
	Records []json.RawMessage `json:"records"`
	Items   []json.RawMessage `json:"items"`
}

func (e *envelope) records() []json.RawMessage {
	for _, list := range [][]json.RawMessage{e.Vessels, e.Data, e.Records, e.Items} {
		if list != nil {
			return list
		}
	}
	return nil
}

// Decoded is the result of decoding one feed payload.
type Decoded struct {
	Type    string
	Records [][]byte
}

// Full reports whether the payload is a full refresh.
func (d Decoded) Full() bool {
	return d.Type == MessageSnapshot
}

// Decode splits a feed payload into raw records. A bare JSON array is a
// snapshot. An object carries its records under vessels, data, records or
// items and its kind under type; an object without type is a snapshot.
// Individual records are not validated here.
func Decode(payload []byte) (Decoded, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Decoded{}, fmt.Errorf("%w: empty payload", ErrInvalidEnvelope)
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		return Decoded{Type: MessageSnapshot, Records: toBytes(list)}, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		kind := strings.ToLower(strings.TrimSpace(env.Type))
		switch kind {
		case "", "full", MessageSnapshot:
			kind = MessageSnapshot
		case "delta", "update", "position", MessagePositions:
			kind = MessagePositions
		case "ping", "keepalive", MessageHeartbeat:
			return Decoded{Type: MessageHeartbeat}, nil
		default:
			return Decoded{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, env.Type)
		}
		return Decoded{Type: kind, Records: toBytes(env.records())}, nil
	default:
		return Decoded{}, fmt.Errorf("%w: unexpected %q", ErrInvalidEnvelope, trimmed[0])
	}
}

func toBytes(list []json.RawMessage) [][]byte {
	out := make([][]byte, len(list))
	for i, r := range list {
		out[i] = r
	}
	return out
}
