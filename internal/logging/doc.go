// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package logging provides centralized zerolog-based structured logging for Harborwatch.
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output for production, console output for development
//   - Context-aware logging with request and tracking-session id propagation
//   - A pipeline logger with domain methods for the live feed
//   - An slog adapter for the suture supervisor event hook
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("transport", "stream").Msg("Live channel connected")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Viewport rejected")
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Int("records", n).Msg("Batch applied")  // Correct
//	logging.Info().Int("records", n)                       // WRONG - log not emitted
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
package logging
