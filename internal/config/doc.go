// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Package config loads Harborwatch configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML file (CONFIG_PATH, ./config.yaml, /etc/harborwatch/config.yaml)
//  3. Environment variables: explicit mapping in envTransformFunc
//
// Environment variables take precedence over the file, which takes
// precedence over defaults. Unknown environment variables are ignored.
//
// # Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	mgr := feed.NewManager(cfg.Feed.ManagerConfig(), transports...)
//
// # Sections
//
//   - feed: live channel endpoints, poll interval, reconnect backoff, circuit breaker
//   - registry: port and refinery registry endpoints and revalidation window
//   - store: staleness thresholds
//   - spatial: heatmap grid, cluster radius, recompute throttle
//   - server: HTTP listener
//   - security: session token verification, CORS, rate limiting
//   - logging: level and format
package config
