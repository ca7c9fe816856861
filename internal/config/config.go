// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all Harborwatch configuration.
type Config struct {
	Feed     FeedConfig     `koanf:"feed"`
	Registry RegistryConfig `koanf:"registry"`
	Store    StoreConfig    `koanf:"store"`
	Spatial  SpatialConfig  `koanf:"spatial"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// FeedConfig configures the live position channel.
type FeedConfig struct {
	// StreamURL is the websocket endpoint (ws:// or wss://). Empty disables streaming.
	StreamURL string `koanf:"stream_url"`
	// PollURL is the HTTP fallback endpoint returning the full vessel collection.
	PollURL string `koanf:"poll_url"`
	// Token is forwarded upstream as a bearer token when set.
	Token string `koanf:"token"`
	// ForwardSessionToken presents the viewer's session token upstream when
	// Token is empty.
	ForwardSessionToken bool `koanf:"forward_session_token"`

	PollInterval   time.Duration `koanf:"poll_interval" validate:"gte=1s"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	DialTimeout    time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	BackoffInitial time.Duration `koanf:"backoff_initial" validate:"gt=0"`
	BackoffMax     time.Duration `koanf:"backoff_max" validate:"gtefield=BackoffInitial"`

	// BreakerFailures consecutive poll failures open the circuit breaker.
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// RegistryConfig configures the port and refinery registry feeds.
type RegistryConfig struct {
	PortsURL           string        `koanf:"ports_url"`
	RefineriesURL      string        `koanf:"refineries_url"`
	RevalidateInterval time.Duration `koanf:"revalidate_interval" validate:"gte=1s"`
	RequestTimeout     time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

// StoreConfig configures entity staleness.
type StoreConfig struct {
	// StaleAfterCycles is the number of consecutive full refreshes an
	// entity may be absent from before it is flagged stale.
	StaleAfterCycles int `koanf:"stale_after_cycles" validate:"gte=1,lte=100"`
	// StaleAfter flags entities not sighted for this long. Zero disables the sweep.
	StaleAfter    time.Duration `koanf:"stale_after" validate:"gte=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

// SpatialConfig configures aggregation.
type SpatialConfig struct {
	GridSize         float64       `koanf:"grid_size" validate:"gt=0,lte=90"`
	ClusterRadiusPx  float64       `koanf:"cluster_radius_px" validate:"gt=0"`
	ThrottleInterval time.Duration `koanf:"throttle_interval" validate:"gt=0"`
	DefaultZoom      int           `koanf:"default_zoom" validate:"gte=0,lte=22"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds session verification and HTTP hardening settings.
type SecurityConfig struct {
	// AuthMode is "jwt" (session token required) or "none".
	AuthMode          string        `koanf:"auth_mode" validate:"oneof=jwt none"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout" validate:"gte=1m"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
