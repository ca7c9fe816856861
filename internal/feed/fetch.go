// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
)

// maxBodySize caps a single poll or registry response.
const maxBodySize = 32 << 20

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Name            string
	RequestTimeout  time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	Client          *http.Client
}

// Fetcher performs authenticated GET requests behind a circuit breaker.
// Every request is bound to the caller's context so cancellation aborts it
// in flight.
type Fetcher struct {
	name    string
	timeout time.Duration
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

// NewFetcher creates a fetcher. The breaker opens after BreakerFailures
// consecutive failures and probes again after BreakerTimeout.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Name == "" {
		cfg.Name = "feed-poll"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	failures := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= failures
			if trip {
				logging.Warn().Str("breaker", cfg.Name).Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := breakerStateString(from), breakerStateString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
		// Rejected credentials and caller cancellation say nothing about
		// endpoint health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAuthentication) || errors.Is(err, context.Canceled)
		},
	})

	return &Fetcher{name: cfg.Name, timeout: cfg.RequestTimeout, client: cfg.Client, cb: cb}
}

// Fetch GETs url with an optional bearer token and returns the body.
// Authentication failures wrap ErrAuthentication; everything else is a
// *ConnectionError.
func (f *Fetcher) Fetch(ctx context.Context, url, token string) ([]byte, error) {
	body, err := f.cb.Execute(func() ([]byte, error) {
		return f.get(ctx, url, token)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(f.name, "rejected").Inc()
			return nil, &ConnectionError{Transport: "poll", Op: "breaker", Err: err}
		case errors.Is(err, ErrAuthentication):
			metrics.CircuitBreakerRequests.WithLabelValues(f.name, "unauthorized").Inc()
		default:
			metrics.CircuitBreakerRequests.WithLabelValues(f.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(f.name, "success").Inc()
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url, token string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &ConnectionError{Transport: "poll", Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{Transport: "poll", Op: "get", Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close response body")
		}
	}()

	if IsAuthStatus(resp.StatusCode) {
		return nil, fmt.Errorf("poll %s: status %d: %w", url, resp.StatusCode, ErrAuthentication)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ConnectionError{Transport: "poll", Op: "get", StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{Transport: "poll", Op: "read", Err: err}
	}
	return body, nil
}

// State returns the breaker state.
func (f *Fetcher) State() gobreaker.State {
	return f.cb.State()
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
