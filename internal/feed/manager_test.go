// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/harborwatch/internal/models"
)

// scriptedTransport replays a fixed sequence of Run outcomes.
type scriptedTransport struct {
	name  string
	mu    sync.Mutex
	runs  []func(ctx context.Context, ev Events) error
	calls atomic.Int32
}

func (s *scriptedTransport) Name() string { return s.name }

func (s *scriptedTransport) Run(ctx context.Context, ev Events) error {
	n := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	var run func(context.Context, Events) error
	if n < len(s.runs) {
		run = s.runs[n]
	} else if len(s.runs) > 0 {
		run = s.runs[len(s.runs)-1]
	}
	s.mu.Unlock()
	if run == nil {
		<-ctx.Done()
		return nil
	}
	return run(ctx, ev)
}

func failDial(ctx context.Context, ev Events) error {
	return &ConnectionError{Transport: TransportStream, Op: "dial", Err: errors.New("refused")}
}

func serveUntilCancel(batch RawBatch) func(context.Context, Events) error {
	return func(ctx context.Context, ev Events) error {
		ev.up()
		ev.batch(batch)
		<-ctx.Done()
		return nil
	}
}

type stateRecorder struct {
	mu     sync.Mutex
	states []models.ConnectionState
}

func (r *stateRecorder) add(s models.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) seen(s models.ConnectionState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.states {
		if got == s {
			return true
		}
	}
	return false
}

func TestManager_NoTransport(t *testing.T) {
	t.Parallel()

	m := NewManagerWithTransports(nil, nil, nil)
	if err := m.Connect(context.Background()); !errors.Is(err, ErrNoTransport) {
		t.Errorf("Connect() = %v, want ErrNoTransport", err)
	}
}

func TestManager_StreamConnected(t *testing.T) {
	t.Parallel()

	stream := &scriptedTransport{name: TransportStream, runs: []func(context.Context, Events) error{
		serveUntilCancel(RawBatch{Source: TransportStream, Full: true, Records: [][]byte{[]byte(`{"id":1}`)}}),
	}}
	m := NewManagerWithTransports(stream, nil, NewBackoff(time.Millisecond, 10*time.Millisecond))
	states := &stateRecorder{}
	batches := &batchRecorder{}
	m.OnState(states.add)
	m.OnBatch(batches.add)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return m.State() == models.StateConnected }, "connected")
	waitFor(t, time.Second, func() bool { return batches.len() == 1 }, "batch")

	if !states.seen(models.StateConnecting) {
		t.Error("expected connecting before connected")
	}
	if err := m.Connect(context.Background()); err != nil {
		t.Errorf("second Connect() = %v, want nil", err)
	}

	m.Disconnect()
	if m.State() != models.StateDisconnected {
		t.Errorf("State() after Disconnect = %s", m.State())
	}
	if m.Running() {
		t.Error("Running() after Disconnect")
	}
}

func TestManager_FallbackDegraded(t *testing.T) {
	t.Parallel()

	stream := &scriptedTransport{name: TransportStream, runs: []func(context.Context, Events) error{failDial}}
	poll := &scriptedTransport{name: TransportPoll, runs: []func(context.Context, Events) error{
		serveUntilCancel(RawBatch{Source: TransportPoll, Full: true}),
	}}
	m := NewManagerWithTransports(stream, poll, NewBackoff(5*time.Millisecond, 20*time.Millisecond))
	batches := &batchRecorder{}
	m.OnBatch(batches.add)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()

	waitFor(t, time.Second, func() bool { return m.State() == models.StateDegraded }, "degraded")
	waitFor(t, time.Second, func() bool { return batches.len() >= 1 }, "poll batch")
	if batches.at(0).Source != TransportPoll {
		t.Errorf("batch source = %s, want poll", batches.at(0).Source)
	}
	// stream keeps being retried while degraded
	waitFor(t, time.Second, func() bool { return stream.calls.Load() >= 3 }, "stream retries")
	if poll.calls.Load() != 1 {
		t.Errorf("poll started %d times, want 1", poll.calls.Load())
	}
}

func TestManager_StreamRecoveryStopsFallback(t *testing.T) {
	t.Parallel()

	var pollStopped atomic.Bool
	stream := &scriptedTransport{name: TransportStream, runs: []func(context.Context, Events) error{
		failDial,
		serveUntilCancel(RawBatch{Source: TransportStream}),
	}}
	poll := &scriptedTransport{name: TransportPoll, runs: []func(context.Context, Events) error{
		func(ctx context.Context, ev Events) error {
			ev.up()
			<-ctx.Done()
			pollStopped.Store(true)
			return nil
		},
	}}
	m := NewManagerWithTransports(stream, poll, NewBackoff(20*time.Millisecond, 20*time.Millisecond))
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()

	waitFor(t, time.Second, func() bool { return m.State() == models.StateConnected && stream.calls.Load() == 2 }, "stream recovery")
	if !pollStopped.Load() {
		t.Error("fallback poller still running after stream recovered")
	}
}

func TestManager_AuthRequired(t *testing.T) {
	t.Parallel()

	stream := &scriptedTransport{name: TransportStream, runs: []func(context.Context, Events) error{
		func(context.Context, Events) error { return ErrAuthentication },
	}}
	m := NewManagerWithTransports(stream, nil, NewBackoff(time.Millisecond, time.Millisecond))
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return m.State() == models.StateAuthRequired }, "auth_required")
	time.Sleep(30 * time.Millisecond)
	if got := stream.calls.Load(); got != 1 {
		t.Errorf("stream dialled %d times, want no retries after auth failure", got)
	}
	if m.Running() {
		t.Error("manager still running after auth failure")
	}

	m.Disconnect()
	if m.State() != models.StateAuthRequired {
		t.Errorf("Disconnect moved state to %s, want auth_required kept", m.State())
	}

	// reconnecting with fresh credentials leaves auth_required
	stream.mu.Lock()
	stream.runs = append(stream.runs, serveUntilCancel(RawBatch{}))
	stream.mu.Unlock()
	m.SetToken("fresh")
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()
	waitFor(t, time.Second, func() bool { return m.State() == models.StateConnected }, "reconnected")
	if m.Token() != "fresh" {
		t.Errorf("Token() = %q", m.Token())
	}
}

func TestManager_PollOnly(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"id":7}]`))
	}))
	defer server.Close()

	m := NewManager(Config{PollURL: server.URL, PollInterval: 10 * time.Millisecond})
	batches := &batchRecorder{}
	m.OnBatch(batches.add)
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return m.State() == models.StateConnected }, "connected")
	waitFor(t, time.Second, func() bool { return batches.len() >= 2 }, "poll batches")
	m.Disconnect()

	after := hits.Load()
	time.Sleep(50 * time.Millisecond)
	if hits.Load() != after {
		t.Errorf("polling continued after Disconnect: %d -> %d", after, hits.Load())
	}
}

func TestManager_EndToEndFallback(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NotFoundHandler())
	streamURL := wsURL(dead)
	dead.Close()

	poll := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"vessels":[{"id":1},{"id":2}]}`))
	}))
	defer poll.Close()

	m := NewManager(Config{
		StreamURL:      streamURL,
		PollURL:        poll.URL,
		PollInterval:   time.Hour,
		DialTimeout:    100 * time.Millisecond,
		BackoffInitial: 10 * time.Millisecond,
		BackoffMax:     50 * time.Millisecond,
	})
	batches := &batchRecorder{}
	m.OnBatch(batches.add)
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()

	waitFor(t, 2*time.Second, func() bool { return m.State() == models.StateDegraded }, "degraded")
	waitFor(t, time.Second, func() bool { return batches.len() == 1 }, "poll batch")
	if len(batches.at(0).Records) != 2 {
		t.Errorf("records = %d, want 2", len(batches.at(0).Records))
	}
}

func TestManager_StreamServer(t *testing.T) {
	t.Parallel()

	server := streamServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"snapshot","vessels":[{"id":1}]}`))
		_, _, _ = conn.ReadMessage()
	})
	m := NewManager(Config{StreamURL: wsURL(server), Token: "good"})
	batches := &batchRecorder{}
	m.OnBatch(batches.add)
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return batches.len() == 1 }, "stream batch")
	if m.State() != models.StateConnected {
		t.Errorf("State() = %s, want connected", m.State())
	}
	m.Disconnect()
}

func TestManager_BatchResetsBackoff(t *testing.T) {
	t.Parallel()

	var m *Manager
	var mu sync.Mutex
	var attempts []int
	record := func() {
		mu.Lock()
		attempts = append(attempts, m.backoff.Attempt())
		mu.Unlock()
	}
	dropped := &ConnectionError{Transport: TransportStream, Op: "read", Err: errors.New("reset by peer")}

	stream := &scriptedTransport{name: TransportStream, runs: []func(context.Context, Events) error{
		failDial,
		func(ctx context.Context, ev Events) error {
			record()
			return failDial(ctx, ev)
		},
		func(ctx context.Context, ev Events) error {
			record()
			ev.up()
			ev.batch(RawBatch{Source: TransportStream, Records: [][]byte{[]byte(`{"id":1}`)}})
			return dropped
		},
		func(ctx context.Context, ev Events) error {
			record()
			<-ctx.Done()
			return nil
		},
	}}
	m = NewManagerWithTransports(stream, nil, NewBackoff(2*time.Millisecond, time.Second))
	if err := m.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer m.Disconnect()

	waitFor(t, 2*time.Second, func() bool { return stream.calls.Load() >= 4 }, "fourth stream attempt")

	mu.Lock()
	defer mu.Unlock()
	// fail, fail, batch then drop: the delay after the drop starts over
	want := []int{1, 2, 1}
	if len(attempts) < len(want) {
		t.Fatalf("attempts = %v, want %v", attempts, want)
	}
	for i, n := range want {
		if attempts[i] != n {
			t.Errorf("attempt before run %d = %d, want %d (all %v)", i+1, attempts[i], n, attempts)
		}
	}
}

func TestManager_SetStateIf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		from      models.ConnectionState
		wantOK    bool
		wantState models.ConnectionState
	}{
		{"connected drops", models.StateConnected, true, models.StateDisconnected},
		{"degraded is kept", models.StateDegraded, false, models.StateDegraded},
		{"auth required is kept", models.StateAuthRequired, false, models.StateAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewManagerWithTransports(&scriptedTransport{name: TransportStream}, nil, nil)
			m.state = tt.from
			states := &stateRecorder{}
			m.OnState(states.add)

			if ok := m.setStateIf(models.StateConnected, models.StateDisconnected, nil); ok != tt.wantOK {
				t.Errorf("setStateIf() = %v, want %v", ok, tt.wantOK)
			}
			if m.State() != tt.wantState {
				t.Errorf("State() = %s, want %s", m.State(), tt.wantState)
			}
			if got := states.seen(models.StateDisconnected); got != tt.wantOK {
				t.Errorf("listener notified = %v, want %v", got, tt.wantOK)
			}
		})
	}
}
