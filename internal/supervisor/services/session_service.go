// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/harborwatch/internal/tracker"
)

// TrackerSession is the lifecycle surface of a tracker session.
type TrackerSession interface {
	Serve(ctx context.Context) error
}

// SessionService runs the tracker session's background work (stale sweep
// and registry refresh) and closes the session when the tree stops.
type SessionService struct {
	session TrackerSession
	name    string
}

// NewSessionService wraps session.
func NewSessionService(session TrackerSession) *SessionService {
	return &SessionService{session: session, name: "tracker-session"}
}

// Serve implements suture.Service. A session closed outside the tree is
// not restarted.
func (s *SessionService) Serve(ctx context.Context) error {
	err := s.session.Serve(ctx)
	if errors.Is(err, tracker.ErrClosed) {
		return suture.ErrDoNotRestart
	}
	return err
}

// String implements fmt.Stringer.
func (s *SessionService) String() string {
	return s.name
}
