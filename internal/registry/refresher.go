// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// DefaultRevalidateInterval is the registry staleness window.
const DefaultRevalidateInterval = 10 * time.Minute

// Sink receives registry payloads as full-refresh batches.
type Sink func(kind models.EntityKind, batch feed.RawBatch)

// Config configures a Refresher.
type Config struct {
	PortsURL           string
	RefineriesURL      string
	RevalidateInterval time.Duration
	RequestTimeout     time.Duration
}

// Refresher fetches the registries and revalidates them periodically.
type Refresher struct {
	cfg     Config
	fetcher *feed.Fetcher
	token   func() string
	sink    Sink
	log     *logging.PipelineLogger
	now     func() time.Time

	mu        sync.RWMutex
	refreshed map[models.EntityKind]time.Time
}

// New creates a refresher. token may be nil.
func New(cfg Config, token func() string, sink Sink) *Refresher {
	if cfg.RevalidateInterval <= 0 {
		cfg.RevalidateInterval = DefaultRevalidateInterval
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Refresher{
		cfg: cfg,
		fetcher: feed.NewFetcher(feed.FetcherConfig{
			Name:           "registry",
			RequestTimeout: cfg.RequestTimeout,
		}),
		token:     token,
		sink:      sink,
		log:       logging.NewPipelineLogger("registry"),
		now:       time.Now,
		refreshed: make(map[models.EntityKind]time.Time, 2),
	}
}

// Serve refreshes immediately and then once per revalidate interval until
// ctx is done. It implements suture.Service.
func (r *Refresher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.RevalidateInterval)
	defer ticker.Stop()

	for {
		if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
			logging.Warn().Err(err).Msg("[registry] Refresh incomplete")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Refresher) String() string {
	return "registry-refresher"
}

// Refresh fetches every configured registry once. A failure of one registry
// does not prevent the other from refreshing.
func (r *Refresher) Refresh(ctx context.Context) error {
	var errs []error
	if r.cfg.PortsURL != "" {
		if err := r.refreshOne(ctx, models.KindPort, r.cfg.PortsURL); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cfg.RefineriesURL != "" {
		if err := r.refreshOne(ctx, models.KindRefinery, r.cfg.RefineriesURL); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Refresher) refreshOne(ctx context.Context, kind models.EntityKind, url string) error {
	body, err := r.fetcher.Fetch(ctx, url, r.token())
	if err != nil {
		metrics.RegistryRefreshes.WithLabelValues(string(kind), "error").Inc()
		r.log.RegistryRefreshed(string(kind), 0, err)
		return fmt.Errorf("fetch %s registry: %w", kind, err)
	}

	decoded, err := feed.Decode(body)
	if err != nil || decoded.Type == feed.MessageHeartbeat {
		if err == nil {
			err = fmt.Errorf("%w: registry returned a heartbeat", feed.ErrInvalidEnvelope)
		}
		metrics.RegistryRefreshes.WithLabelValues(string(kind), "invalid").Inc()
		r.log.RegistryRefreshed(string(kind), 0, err)
		return fmt.Errorf("decode %s registry: %w", kind, err)
	}

	now := r.now()
	if r.sink != nil {
		r.sink(kind, feed.RawBatch{
			Source:     "registry",
			Records:    decoded.Records,
			Full:       true,
			ReceivedAt: now,
		})
	}

	r.mu.Lock()
	r.refreshed[kind] = now
	r.mu.Unlock()

	metrics.RegistryRefreshes.WithLabelValues(string(kind), "success").Inc()
	r.log.RegistryRefreshed(string(kind), len(decoded.Records), nil)
	return nil
}

// LastRefreshed returns when kind was last fetched successfully.
func (r *Refresher) LastRefreshed(kind models.EntityKind) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.refreshed[kind]
	return t, ok
}

// Due reports whether kind is older than the revalidate interval.
func (r *Refresher) Due(kind models.EntityKind) bool {
	last, ok := r.LastRefreshed(kind)
	return !ok || r.now().Sub(last) >= r.cfg.RevalidateInterval
}
