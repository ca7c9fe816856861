// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/filter"
	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/registry"
	"github.com/tomtom215/harborwatch/internal/spatial"
	"github.com/tomtom215/harborwatch/internal/store"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")

	// ErrNotFound is returned when a selected entity is not in the store.
	ErrNotFound = errors.New("entity not found")
)

// Feed is the live channel a session drives. *feed.Manager implements it.
type Feed interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() models.ConnectionState
	SetToken(token string)
	OnState(fn func(models.ConnectionState))
	OnBatch(fn func(feed.RawBatch))
}

// Config configures a Session.
type Config struct {
	StaleAfterCycles int
	StaleAfter       time.Duration
	SweepInterval    time.Duration
	GridSize         float64
	ClusterRadiusPx  float64
	ThrottleInterval time.Duration
	DefaultZoom      int
	FilterCacheSize  int

	// ForwardSessionToken presents the session token to the feed and the
	// registries when no dedicated feed credential is configured.
	ForwardSessionToken bool

	Registry registry.Config
}

// Deps are the collaborators a session is built on. Gate is required.
type Deps struct {
	Gate auth.Gate
	Feed Feed
}

type renderKey struct {
	version     uint64
	fingerprint uint64
	zoom        int
	toggles     models.LayerToggles
	state       models.ConnectionState
}

// Session is one live tracking pipeline. Consumers look at it through
// Views.
type Session struct {
	id       string
	cfg      Config
	gate     auth.Gate
	feed     Feed
	registry *registry.Refresher
	store    *store.Store
	filters  *filter.Engine
	agg      *spatial.Aggregator
	throttle *spatial.Throttle
	log      *logging.PipelineLogger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// applyMu serialises batch application.
	applyMu sync.Mutex

	// triggered is the store version the throttle was last triggered for.
	triggered atomic.Uint64

	stateMu   sync.RWMutex
	connState models.ConnectionState

	lifeMu sync.Mutex
	opened bool
	closed bool
	token  string

	viewsMu    sync.RWMutex
	views      map[int]*View
	nextViewID int
	def        *View
}

// NewSession builds a session. The live feed is not opened until Open is
// called with an accepted token.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.Gate == nil {
		return nil, errors.New("tracker: auth gate is required")
	}
	if deps.Feed == nil {
		return nil, errors.New("tracker: feed is required")
	}
	if cfg.StaleAfterCycles < 1 {
		cfg.StaleAfterCycles = store.DefaultStaleAfterCycles
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.DefaultZoom < 0 || cfg.DefaultZoom > spatial.MaxZoom {
		cfg.DefaultZoom = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        logging.GenerateSessionID(),
		cfg:       cfg,
		gate:      deps.Gate,
		feed:      deps.Feed,
		store:     store.New(cfg.StaleAfterCycles),
		filters:   filter.NewEngine(cfg.FilterCacheSize),
		agg:       spatial.NewAggregator(spatial.Config{GridSize: cfg.GridSize, ClusterRadiusPx: cfg.ClusterRadiusPx}),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		connState: deps.Feed.State(),
		views:     make(map[int]*View),
	}
	s.def = s.NewView()
	s.log = logging.NewPipelineLoggerWith(logging.WithComponent("tracker").With().Str("session_id", s.id).Logger())
	s.throttle = spatial.NewThrottle(cfg.ThrottleInterval, s.publish)

	if cfg.Registry.PortsURL != "" || cfg.Registry.RefineriesURL != "" {
		s.registry = registry.New(cfg.Registry, s.upstreamToken, func(kind models.EntityKind, batch feed.RawBatch) {
			s.Ingest(kind, batch)
		})
	}

	s.feed.OnBatch(s.HandleRaw)
	s.feed.OnState(s.setConnectionState)
	return s, nil
}

// ID returns the session id used in logs.
func (s *Session) ID() string {
	return s.id
}

// Store exposes the session's entity store for read-only use.
func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) upstreamToken() string {
	if !s.cfg.ForwardSessionToken {
		return ""
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.token
}

// Open verifies token and, when accepted, opens the live feed and starts
// registry revalidation. A rejected token leaves the feed untouched.
// Opening an open session is a no-op.
func (s *Session) Open(token string) error {
	if _, err := s.gate.Verify(token); err != nil {
		s.log.SessionEvent(s.id, "open_rejected")
		return fmt.Errorf("open session: %w", err)
	}

	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return ErrClosed
	}
	if s.opened {
		s.lifeMu.Unlock()
		return nil
	}
	s.opened = true
	s.token = token
	s.lifeMu.Unlock()

	if s.cfg.ForwardSessionToken {
		s.feed.SetToken(token)
	}
	if err := s.feed.Connect(s.ctx); err != nil {
		s.lifeMu.Lock()
		s.opened = false
		s.lifeMu.Unlock()
		return fmt.Errorf("open session: %w", err)
	}

	if s.registry != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.registry.Serve(s.ctx); err != nil {
				logging.Warn().Err(err).Msg("[tracker] Registry refresher stopped")
			}
		}()
	}

	metrics.TrackerSessions.Inc()
	s.log.SessionEvent(s.id, "opened")
	return nil
}

// Opened reports whether the live feed has been opened.
func (s *Session) Opened() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.opened
}

// Reauthenticate verifies a fresh token and reconnects the feed. It is the
// way out of auth_required.
func (s *Session) Reauthenticate(token string) error {
	if _, err := s.gate.Verify(token); err != nil {
		return fmt.Errorf("reauthenticate: %w", err)
	}

	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return ErrClosed
	}
	wasOpen := s.opened
	s.token = token
	s.lifeMu.Unlock()

	if !wasOpen {
		return s.Open(token)
	}
	if s.cfg.ForwardSessionToken {
		s.feed.SetToken(token)
	}
	s.feed.Disconnect()
	if err := s.feed.Connect(s.ctx); err != nil {
		return fmt.Errorf("reauthenticate: %w", err)
	}
	s.log.SessionEvent(s.id, "reauthenticated")
	return nil
}

// Close tears the session down: it cancels the recompute timer, closes the
// live feed, aborts in-flight fetches and waits for background work.
func (s *Session) Close() {
	s.lifeMu.Lock()
	if s.closed {
		s.lifeMu.Unlock()
		return
	}
	s.closed = true
	wasOpen := s.opened
	s.lifeMu.Unlock()

	s.throttle.Close()
	s.feed.Disconnect()
	s.cancel()
	s.wg.Wait()

	if wasOpen {
		metrics.TrackerSessions.Dec()
	}
	s.log.SessionEvent(s.id, "closed")
}

func (s *Session) isClosed() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	return s.closed
}

// Serve runs the age-based stale sweep until ctx is done, then closes the
// session. It returns ErrClosed if the session was closed by other means.
func (s *Session) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-s.ctx.Done():
			return ErrClosed
		case <-ticker.C:
			s.SweepStale()
		}
	}
}

func (s *Session) String() string {
	return "tracker-session"
}

// SweepStale flags vessels not updated within StaleAfter. Feeds that only
// send deltas never trigger the full-refresh stale rule.
func (s *Session) SweepStale() int {
	if s.cfg.StaleAfter <= 0 {
		return 0
	}
	s.applyMu.Lock()
	n, err := s.store.MarkStaleOlderThan(models.KindVessel, s.now().Add(-s.cfg.StaleAfter))
	s.applyMu.Unlock()
	if err != nil {
		logging.Error().Err(err).Msg("[tracker] Stale sweep failed")
		return 0
	}
	if n > 0 {
		s.throttle.Trigger()
	}
	return n
}
