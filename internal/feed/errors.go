// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"errors"
	"fmt"
	"net/http"
)

// Close codes a feed server uses to reject credentials on an open stream.
const (
	CloseUnauthorized = 4001
	CloseForbidden    = 4003
)

var (
	// ErrAuthentication means the feed rejected the session credentials.
	// The manager stops retrying and reports auth_required.
	ErrAuthentication = errors.New("feed authentication rejected")

	// ErrNoTransport is returned by Connect when neither a stream nor a poll
	// endpoint is configured.
	ErrNoTransport = errors.New("no feed transport configured")
)

// ConnectionError is a transient channel failure. It is retried with backoff
// and only ever surfaces as connection state.
type ConnectionError struct {
	Transport  string
	Op         string
	StatusCode int
	Err        error
}

func (e *ConnectionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Transport, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Transport, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsAuthStatus reports whether an HTTP status rejects credentials.
func IsAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
