// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// PipelineLogger emits the structured events of the live tracking pipeline
// with consistent field names so they can be searched across components.
//
//	pl := logging.NewPipelineLogger("feed")
//	pl.StateChanged("connecting", "connected", "stream", nil)
type PipelineLogger struct {
	logger zerolog.Logger
}

// NewPipelineLogger creates a pipeline logger for the named component.
func NewPipelineLogger(component string) *PipelineLogger {
	return &PipelineLogger{logger: WithComponent(component)}
}

// NewPipelineLoggerWith wraps an existing zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPipelineLoggerWith(l zerolog.Logger) *PipelineLogger {
	return &PipelineLogger{logger: l}
}

// Logger exposes the underlying logger for ad-hoc events.
func (p *PipelineLogger) Logger() *zerolog.Logger {
	return &p.logger
}

// StateChanged records a connection state transition.
// Transitions into auth_required or disconnected are logged at warn level.
func (p *PipelineLogger) StateChanged(from, to, transport string, cause error) {
	event := p.logger.Info()
	if to == "auth_required" || to == "disconnected" {
		event = p.logger.Warn()
	}
	if cause != nil {
		event = event.Err(cause)
	}
	event.
		Str("event", "connection_state").
		Str("from", from).
		Str("to", to).
		Str("transport", transport).
		Msg("Connection state changed")
}

// ReconnectScheduled records the next stream attempt.
func (p *PipelineLogger) ReconnectScheduled(attempt int, delay time.Duration, cause error) {
	p.logger.Warn().
		Err(cause).
		Str("event", "reconnect_scheduled").
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("Stream unavailable, reconnect scheduled")
}

// RecordRejected records a single record dropped during normalization.
func (p *PipelineLogger) RecordRejected(source, kind, reason string) {
	p.logger.Debug().
		Str("event", "record_rejected").
		Str("source", source).
		Str("kind", kind).
		Str("reason", reason).
		Msg("Record rejected")
}

// BatchApplied summarises one batch merged into the entity store.
func (p *PipelineLogger) BatchApplied(source string, full bool, applied, rejected, staleWrites, markedStale int, elapsed time.Duration) {
	event := p.logger.Debug()
	if rejected > 0 || markedStale > 0 {
		event = p.logger.Info()
	}
	event.
		Str("event", "batch_applied").
		Str("source", source).
		Bool("full", full).
		Int("applied", applied).
		Int("rejected", rejected).
		Int("stale_writes", staleWrites).
		Int("marked_stale", markedStale).
		Dur("elapsed", elapsed).
		Msg("Batch applied")
}

// RegistryRefreshed records a port or refinery revalidation.
func (p *PipelineLogger) RegistryRefreshed(kind string, count int, cause error) {
	if cause != nil {
		p.logger.Error().
			Err(cause).
			Str("event", "registry_refresh").
			Str("kind", kind).
			Msg("Registry refresh failed")
		return
	}
	p.logger.Info().
		Str("event", "registry_refresh").
		Str("kind", kind).
		Int("count", count).
		Msg("Registry refreshed")
}

// SessionEvent records a tracking-session lifecycle event.
func (p *PipelineLogger) SessionEvent(sessionID, action string) {
	p.logger.Info().
		Str("event", "session").
		Str("session_id", sessionID).
		Str("action", action).
		Msg("Tracking session " + action)
}
