// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package auth

import (
	"fmt"

	"github.com/tomtom215/harborwatch/internal/config"
)

// Auth modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// Gate decides whether a session token admits its holder to the live feed.
type Gate interface {
	// Verify returns the token's claims or an error wrapping ErrNoToken or
	// ErrInvalidToken.
	Verify(token string) (*Claims, error)
	Mode() string
}

// NewGate builds the gate for cfg.AuthMode.
func NewGate(cfg *config.SecurityConfig) (Gate, error) {
	switch cfg.AuthMode {
	case ModeNone:
		return OpenGate{}, nil
	case ModeJWT, "":
		m, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return &JWTGate{manager: m}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// JWTGate admits holders of a valid session JWT.
type JWTGate struct {
	manager *JWTManager
}

// NewJWTGate wraps a manager.
func NewJWTGate(m *JWTManager) *JWTGate {
	return &JWTGate{manager: m}
}

func (g *JWTGate) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	return g.manager.ValidateToken(token)
}

func (g *JWTGate) Mode() string { return ModeJWT }

// Manager exposes the underlying token manager.
func (g *JWTGate) Manager() *JWTManager { return g.manager }

// OpenGate admits everyone as an anonymous viewer.
type OpenGate struct{}

func (OpenGate) Verify(string) (*Claims, error) {
	return &Claims{Username: "anonymous", Role: "viewer"}, nil
}

func (OpenGate) Mode() string { return ModeNone }
