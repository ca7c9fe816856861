// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package spatial

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/harborwatch/internal/metrics"
)

// DefaultThrottleInterval bounds recompute frequency.
const DefaultThrottleInterval = 250 * time.Millisecond

// Throttle runs fn at most once per interval. The first trigger in a quiet
// period runs immediately; triggers arriving inside the interval are
// coalesced into a single trailing run at the end of it. fn never runs
// concurrently with itself.
type Throttle struct {
	mu      sync.Mutex
	runMu   sync.Mutex
	limiter *rate.Limiter
	fn      func()
	timer   *time.Timer
	pending bool
	closed  bool
}

// NewThrottle creates a throttle around fn. interval <= 0 selects the default.
func NewThrottle(interval time.Duration, fn func()) *Throttle {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		fn:      fn,
	}
}

// Trigger requests a run.
func (t *Throttle) Trigger() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.pending {
		t.mu.Unlock()
		metrics.SpatialRecomputeTriggers.WithLabelValues("coalesced").Inc()
		return
	}

	r := t.limiter.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		t.mu.Unlock()
		metrics.SpatialRecomputeTriggers.WithLabelValues("immediate").Inc()
		t.run()
		return
	}

	t.pending = true
	t.timer = time.AfterFunc(delay, t.fire)
	t.mu.Unlock()
}

func (t *Throttle) fire() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.mu.Unlock()

	metrics.SpatialRecomputeTriggers.WithLabelValues("trailing").Inc()
	t.run()
}

func (t *Throttle) run() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.fn()
}

// Pending reports whether a trailing run is scheduled.
func (t *Throttle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Close cancels any scheduled run. Later triggers are ignored.
func (t *Throttle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
}
