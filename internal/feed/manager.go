// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// Config configures a Manager.
type Config struct {
	StreamURL       string
	PollURL         string
	Token           string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	DialTimeout     time.Duration
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Manager owns the live channel. It runs the stream as the primary transport
// and the poller as fallback while the stream is down, reporting which one
// delivers only through ConnectionState.
type Manager struct {
	primary  Transport
	fallback Transport
	backoff  *Backoff
	log      *logging.PipelineLogger

	tokenMu sync.RWMutex
	token   string

	cbMu    sync.RWMutex
	onState []func(models.ConnectionState)
	onBatch []func(RawBatch)

	mu      sync.Mutex
	state   models.ConnectionState
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	// fallback poller lifecycle, guarded by mu
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewManager builds a manager with a stream transport when StreamURL is set
// and a poll transport when PollURL is set.
func NewManager(cfg Config) *Manager {
	m := &Manager{token: cfg.Token}
	var primary, fallback Transport
	if cfg.StreamURL != "" {
		primary = NewStreamTransport(cfg.StreamURL, cfg.DialTimeout, m.Token)
	}
	if cfg.PollURL != "" {
		fetcher := NewFetcher(FetcherConfig{
			Name:            "feed-poll",
			RequestTimeout:  cfg.RequestTimeout,
			BreakerFailures: cfg.BreakerFailures,
			BreakerTimeout:  cfg.BreakerTimeout,
		})
		fallback = NewPollTransport(cfg.PollURL, cfg.PollInterval, fetcher, m.Token)
	}
	m.init(primary, fallback, NewBackoff(cfg.BackoffInitial, cfg.BackoffMax))
	return m
}

// NewManagerWithTransports builds a manager over explicit transports. Either
// may be nil, but not both.
func NewManagerWithTransports(primary, fallback Transport, backoff *Backoff) *Manager {
	m := &Manager{}
	if backoff == nil {
		backoff = NewBackoff(0, 0)
	}
	m.init(primary, fallback, backoff)
	return m
}

func (m *Manager) init(primary, fallback Transport, backoff *Backoff) {
	m.primary = primary
	m.fallback = fallback
	m.backoff = backoff
	m.log = logging.NewPipelineLogger("feed")
	m.state = models.StateDisconnected
}

// OnState registers a listener for connection state changes. Listeners run
// on the manager's goroutines and must not block.
func (m *Manager) OnState(fn func(models.ConnectionState)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onState = append(m.onState, fn)
}

// OnBatch registers a listener for raw batches.
func (m *Manager) OnBatch(fn func(RawBatch)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.onBatch = append(m.onBatch, fn)
}

// Token returns the credentials presented to the feed.
func (m *Manager) Token() string {
	m.tokenMu.RLock()
	defer m.tokenMu.RUnlock()
	return m.token
}

// SetToken replaces the credentials used by the next dial or poll.
func (m *Manager) SetToken(token string) {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()
	m.token = token
}

// State returns the current connection state.
func (m *Manager) State() models.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Running reports whether Connect has been called without a matching
// Disconnect or terminal authentication failure.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Connect starts the channel in the background. It returns immediately;
// progress is reported through OnState. Calling Connect on a running
// manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	if m.primary == nil && m.fallback == nil {
		return ErrNoTransport
	}

	if m.Running() {
		return nil
	}
	// a previous run may still be unwinding from an auth failure
	m.wg.Wait()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.backoff.Reset()
	m.setState(models.StateConnecting, nil)

	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()
	return nil
}

// Disconnect tears the channel down: it cancels backoff timers and in-flight
// poll requests, closes the stream and waits for all goroutines to exit.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	wasRunning := m.running
	m.running = false
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	if wasRunning {
		m.setState(models.StateDisconnected, nil)
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.stopFallback()

	if m.primary == nil {
		m.runPollOnly(ctx)
		return
	}

	for {
		err := m.primary.Run(ctx, m.streamEvents())
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrAuthentication) {
			m.authFailed(err)
			return
		}

		m.startFallback(ctx)
		if m.fallback == nil {
			m.setState(models.StateDisconnected, err)
		} else {
			// the poller may already have reported degraded
			m.setStateIf(models.StateConnected, models.StateDisconnected, err)
		}

		delay := m.backoff.Next()
		metrics.RecordBackoff(delay)
		m.log.ReconnectScheduled(m.backoff.Attempt(), delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (m *Manager) runPollOnly(ctx context.Context) {
	err := m.fallback.Run(ctx, Events{
		Up:    func() { m.setState(models.StateConnected, nil) },
		Down:  func(err error) { m.setState(models.StateDisconnected, err) },
		Batch: m.emit,
	})
	if ctx.Err() == nil && errors.Is(err, ErrAuthentication) {
		m.authFailed(err)
	}
}

func (m *Manager) streamEvents() Events {
	return Events{
		Up: func() {
			m.stopFallback()
			m.setState(models.StateConnected, nil)
		},
		Alive: m.backoff.Reset,
		Batch: func(b RawBatch) {
			m.backoff.Reset()
			m.emit(b)
		},
	}
}

// startFallback launches the poller unless it is already running.
func (m *Manager) startFallback(ctx context.Context) {
	if m.fallback == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pollCancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.pollCancel = cancel
	m.pollDone = done

	logging.Info().Msg("[feed] Stream unavailable, polling fallback")
	go func() {
		defer close(done)
		err := m.fallback.Run(pollCtx, Events{
			Up: func() {
				if pollCtx.Err() == nil {
					m.setState(models.StateDegraded, nil)
				}
			},
			Down: func(err error) {
				if pollCtx.Err() == nil {
					m.setState(models.StateDisconnected, err)
				}
			},
			Batch: func(b RawBatch) {
				if pollCtx.Err() == nil {
					m.emit(b)
				}
			},
		})
		if pollCtx.Err() == nil && errors.Is(err, ErrAuthentication) {
			m.authFailed(err)
		}
	}()
}

// stopFallback cancels the poller, aborting any request in flight, and
// waits for it to exit.
func (m *Manager) stopFallback() {
	m.mu.Lock()
	cancel, done := m.pollCancel, m.pollDone
	m.pollCancel, m.pollDone = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// authFailed stops all retrying and parks the manager in auth_required.
func (m *Manager) authFailed(err error) {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.running = false
	m.mu.Unlock()

	m.setState(models.StateAuthRequired, err)
	if cancel != nil {
		cancel()
	}
}

func (m *Manager) setState(next models.ConnectionState, cause error) {
	m.transition(next, cause, nil)
}

// setStateIf moves to next only if the state is still expected. The check
// and the change happen under one lock.
func (m *Manager) setStateIf(expected, next models.ConnectionState, cause error) bool {
	return m.transition(next, cause, func(prev models.ConnectionState) bool {
		return prev == expected
	})
}

func (m *Manager) transition(next models.ConnectionState, cause error, allow func(prev models.ConnectionState) bool) bool {
	m.mu.Lock()
	prev := m.state
	if prev == next || (allow != nil && !allow(prev)) {
		m.mu.Unlock()
		return false
	}
	// only Connect leaves auth_required
	if prev == models.StateAuthRequired && next != models.StateConnecting {
		m.mu.Unlock()
		return false
	}
	m.state = next
	m.mu.Unlock()

	metrics.RecordStateTransition(string(prev), string(next), next.Ordinal())
	m.log.StateChanged(string(prev), string(next), m.activeTransport(next), cause)

	m.cbMu.RLock()
	listeners := m.onState
	m.cbMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
	return true
}

func (m *Manager) activeTransport(state models.ConnectionState) string {
	switch {
	case state == models.StateDegraded:
		return TransportPoll
	case m.primary != nil:
		return m.primary.Name()
	case m.fallback != nil:
		return m.fallback.Name()
	default:
		return ""
	}
}

func (m *Manager) emit(b RawBatch) {
	m.cbMu.RLock()
	listeners := m.onBatch
	m.cbMu.RUnlock()
	for _, fn := range listeners {
		fn(b)
	}
}
