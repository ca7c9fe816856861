// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
)

const (
	// Time allowed to read the next message or pong from the feed.
	streamPongWait = 60 * time.Second

	// Send pings with this period. Must be less than streamPongWait.
	streamPingPeriod = (streamPongWait * 9) / 10

	// Time allowed to write a control frame.
	streamWriteWait = 5 * time.Second

	// Maximum message size accepted from the feed.
	streamMaxMessageSize = 16 << 20
)

// StreamTransport receives the feed over a websocket.
type StreamTransport struct {
	url         string
	dialTimeout time.Duration
	token       func() string
	dialer      websocket.Dialer
	now         func() time.Time
}

// NewStreamTransport creates a stream transport. token may be nil.
func NewStreamTransport(url string, dialTimeout time.Duration, token func() string) *StreamTransport {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &StreamTransport{
		url:         url,
		dialTimeout: dialTimeout,
		token:       token,
		dialer: websocket.Dialer{
			HandshakeTimeout:  dialTimeout,
			EnableCompression: true,
		},
		now: time.Now,
	}
}

func (s *StreamTransport) Name() string { return TransportStream }

// Run dials the stream and reads until the connection fails or ctx is done.
// A failed dial doubles as the capability probe: the manager falls back to
// polling when it returns a ConnectionError.
func (s *StreamTransport) Run(ctx context.Context, ev Events) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			if werr := conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait),
			); werr != nil {
				logging.Debug().Err(werr).Msg("Failed to send close message")
			}
			if cerr := conn.Close(); cerr != nil {
				logging.Debug().Err(cerr).Msg("Failed to close stream connection")
			}
		})
	}
	defer closeConn()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pingLoop(ctx, conn, done, closeConn)
	}()
	defer wg.Wait()
	defer close(done)

	conn.SetReadLimit(streamMaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return &ConnectionError{Transport: TransportStream, Op: "deadline", Err: err}
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	logging.Info().Str("url", s.url).Msg("[feed-stream] Connected")
	ev.up()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, CloseUnauthorized, CloseForbidden) {
				return fmt.Errorf("stream closed by server: %w", ErrAuthentication)
			}
			return &ConnectionError{Transport: TransportStream, Op: "read", Err: err}
		}
		if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
			return &ConnectionError{Transport: TransportStream, Op: "deadline", Err: err}
		}
		s.handleMessage(message, ev)
	}
}

func (s *StreamTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	defer cancel()

	header := http.Header{}
	if tok := s.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := s.dialer.DialContext(dialCtx, s.url, header)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			logging.Debug().Err(cerr).Msg("Failed to close handshake response body")
		}
	}
	if err != nil {
		if resp != nil && IsAuthStatus(resp.StatusCode) {
			return nil, fmt.Errorf("stream handshake: status %d: %w", resp.StatusCode, ErrAuthentication)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &ConnectionError{Transport: TransportStream, Op: "dial", StatusCode: status, Err: err}
	}
	return conn, nil
}

func (s *StreamTransport) handleMessage(message []byte, ev Events) {
	decoded, err := Decode(message)
	if err != nil {
		metrics.FeedMessages.WithLabelValues(TransportStream, "invalid").Inc()
		logging.Warn().Err(err).Int("bytes", len(message)).Msg("[feed-stream] Discarding unreadable message")
		return
	}
	metrics.FeedMessages.WithLabelValues(TransportStream, decoded.Type).Inc()

	if decoded.Type == MessageHeartbeat {
		ev.alive()
		return
	}
	ev.batch(RawBatch{
		Source:     TransportStream,
		Records:    decoded.Records,
		Full:       decoded.Full(),
		ReceivedAt: s.now(),
	})
}

func (s *StreamTransport) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}, closeConn func()) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// unblocks ReadMessage
			closeConn()
			return
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				logging.Debug().Err(err).Msg("[feed-stream] Ping failed")
				closeConn()
				return
			}
		}
	}
}
