// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/harborwatch/config.yaml",
	"/etc/harborwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			StreamURL:       "",
			PollURL:         "",
			PollInterval:    30 * time.Second,
			RequestTimeout:  15 * time.Second,
			DialTimeout:     10 * time.Second,
			BackoffInitial:  time.Second,
			BackoffMax:      30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  60 * time.Second,
		},
		Registry: RegistryConfig{
			RevalidateInterval: 10 * time.Minute,
			RequestTimeout:     30 * time.Second,
		},
		Store: StoreConfig{
			StaleAfterCycles: 2,
			StaleAfter:       10 * time.Minute,
			SweepInterval:    time.Minute,
		},
		Spatial: SpatialConfig{
			GridSize:         5,
			ClusterRadiusPx:  40,
			ThrottleInterval: 250 * time.Millisecond,
			DefaultZoom:      3,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8780,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, the optional YAML file and the
// environment, in that order of increasing precedence, then validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// FEED_POLL_INTERVAL -> feed.poll_interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Live feed
	"feed_stream_url":       "feed.stream_url",
	"feed_poll_url":         "feed.poll_url",
	"feed_token":            "feed.token",
	"feed_poll_interval":    "feed.poll_interval",
	"feed_request_timeout":  "feed.request_timeout",
	"feed_dial_timeout":     "feed.dial_timeout",
	"feed_backoff_initial":  "feed.backoff_initial",
	"feed_backoff_max":      "feed.backoff_max",
	"feed_breaker_failures": "feed.breaker_failures",
	"feed_breaker_timeout":  "feed.breaker_timeout",

	"feed_forward_session_token": "feed.forward_session_token",

	// Registries
	"registry_ports_url":           "registry.ports_url",
	"registry_refineries_url":      "registry.refineries_url",
	"registry_revalidate_interval": "registry.revalidate_interval",
	"registry_request_timeout":     "registry.request_timeout",

	// Store
	"store_stale_after_cycles": "store.stale_after_cycles",
	"store_stale_after":        "store.stale_after",
	"store_sweep_interval":     "store.sweep_interval",

	// Spatial
	"spatial_grid_size":         "spatial.grid_size",
	"spatial_cluster_radius_px": "spatial.cluster_radius_px",
	"spatial_throttle_interval": "spatial.throttle_interval",
	"spatial_default_zoom":      "spatial.default_zoom",

	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" so unrelated environment variables never reach the config.
//
// Examples:
//   - FEED_STREAM_URL -> feed.stream_url
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
