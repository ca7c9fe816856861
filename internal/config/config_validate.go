// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return translateValidationError(err)
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	return c.validateSecurity()
}

// translateValidationError renders the first failing field as a readable error.
func translateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	if fe.Param() != "" {
		return fmt.Errorf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s fails %s (got %v)", field, fe.Tag(), fe.Value())
}

func (c *Config) validateFeed() error {
	if c.Feed.StreamURL == "" && c.Feed.PollURL == "" {
		return fmt.Errorf("at least one of FEED_STREAM_URL or FEED_POLL_URL is required")
	}
	if c.Feed.StreamURL != "" {
		if err := validateURL(c.Feed.StreamURL, "FEED_STREAM_URL", "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Feed.PollURL != "" {
		if err := validateURL(c.Feed.PollURL, "FEED_POLL_URL", "http", "https"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRegistry() error {
	if c.Registry.PortsURL != "" {
		if err := validateURL(c.Registry.PortsURL, "REGISTRY_PORTS_URL", "http", "https"); err != nil {
			return err
		}
	}
	if c.Registry.RefineriesURL != "" {
		if err := validateURL(c.Registry.RefineriesURL, "REGISTRY_REFINERIES_URL", "http", "https"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AuthMode == "jwt" {
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE is jwt", minJWTSecretLength)
		}
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateURL checks the scheme and host of an endpoint URL.
func validateURL(rawURL, fieldName string, schemes ...string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	ok := false
	for _, s := range schemes {
		if parsed.Scheme == s {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%s scheme must be one of %s, got: %q", fieldName, strings.Join(schemes, ", "), parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// ShouldWarnAboutCORS reports a wildcard CORS origin combined with token auth.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Security.AuthMode == "none" {
		return false
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
