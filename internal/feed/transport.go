// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import "context"

// Transport names.
const (
	TransportStream = "stream"
	TransportPoll   = "poll"
)

// Events are the callbacks a transport reports through. All fields are
// optional.
type Events struct {
	// Up is called when the transport starts delivering: after a stream
	// handshake, or after each successful poll.
	Up func()
	// Down is called for a transient failure the transport recovers from on
	// its own. Run keeps going.
	Down func(err error)
	// Alive is called for a message that carries no records.
	Alive func()
	// Batch delivers records.
	Batch func(RawBatch)
}

func (e Events) up() {
	if e.Up != nil {
		e.Up()
	}
}

func (e Events) down(err error) {
	if e.Down != nil {
		e.Down(err)
	}
}

func (e Events) alive() {
	if e.Alive != nil {
		e.Alive()
	}
}

func (e Events) batch(b RawBatch) {
	if e.Batch != nil {
		e.Batch(b)
	}
}

// Transport is one way of receiving the live feed.
//
// Run blocks until ctx is cancelled (returning nil), the channel fails
// (returning a *ConnectionError) or credentials are rejected (returning an
// error wrapping ErrAuthentication).
type Transport interface {
	Name() string
	Run(ctx context.Context, ev Events) error
}
