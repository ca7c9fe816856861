// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package feed

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
)

// DefaultPollInterval is the fallback poll cadence.
const DefaultPollInterval = 30 * time.Second

// PollTransport fetches the feed endpoint on a fixed interval. Every poll
// result is a full refresh.
type PollTransport struct {
	url      string
	interval time.Duration
	token    func() string
	fetcher  *Fetcher
	now      func() time.Time
}

// NewPollTransport creates a poll transport. token may be nil.
func NewPollTransport(url string, interval time.Duration, fetcher *Fetcher, token func() string) *PollTransport {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &PollTransport{url: url, interval: interval, token: token, fetcher: fetcher, now: time.Now}
}

func (p *PollTransport) Name() string { return TransportPoll }

// Run polls immediately and then once per interval until ctx is done. Fetch
// failures are reported through ev.Down and do not end the loop.
func (p *PollTransport) Run(ctx context.Context, ev Events) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.poll(ctx, ev); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *PollTransport) poll(ctx context.Context, ev Events) error {
	body, err := p.fetcher.Fetch(ctx, p.url, p.token())
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrAuthentication):
		return err
	default:
		metrics.FeedMessages.WithLabelValues(TransportPoll, "error").Inc()
		ev.down(err)
		return nil
	}

	decoded, err := Decode(body)
	if err != nil {
		metrics.FeedMessages.WithLabelValues(TransportPoll, "invalid").Inc()
		logging.Warn().Err(err).Str("url", p.url).Msg("Discarding unreadable poll response")
		ev.down(&ConnectionError{Transport: TransportPoll, Op: "decode", Err: err})
		return nil
	}

	metrics.FeedMessages.WithLabelValues(TransportPoll, decoded.Type).Inc()
	ev.up()
	if decoded.Type == MessageHeartbeat {
		return nil
	}
	ev.batch(RawBatch{
		Source:     TransportPoll,
		Records:    decoded.Records,
		Full:       true,
		ReceivedAt: p.now(),
	})
	return nil
}
