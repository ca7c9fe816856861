// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/models"
)

type sinkRecorder struct {
	mu      sync.Mutex
	batches map[models.EntityKind][]feed.RawBatch
}

func (s *sinkRecorder) sink(kind models.EntityKind, b feed.RawBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batches == nil {
		s.batches = make(map[models.EntityKind][]feed.RawBatch)
	}
	s.batches[kind] = append(s.batches[kind], b)
}

func (s *sinkRecorder) count(kind models.EntityKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches[kind])
}

func registryServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Header.Get("Authorization") != "Bearer session" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/ports":
			_, _ = w.Write([]byte(`[{"id":10,"name":"Ras Tanura","lat":26.6,"lng":50.1},{"id":11,"name":"Rotterdam","lat":51.9,"lng":4.1}]`))
		case "/refineries":
			_, _ = w.Write([]byte(`{"data":[{"id":20,"name":"Ruwais","lat":24.1,"lng":52.7,"products":["Diesel"]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRefresher_Refresh(t *testing.T) {
	t.Parallel()

	server := registryServer(t, nil)
	rec := &sinkRecorder{}
	r := New(Config{PortsURL: server.URL + "/ports", RefineriesURL: server.URL + "/refineries"},
		func() string { return "session" }, rec.sink)

	if !r.Due(models.KindPort) {
		t.Error("never-fetched registry should be due")
	}
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if rec.count(models.KindPort) != 1 || rec.count(models.KindRefinery) != 1 {
		t.Fatalf("sink calls = ports %d refineries %d", rec.count(models.KindPort), rec.count(models.KindRefinery))
	}
	ports := rec.batches[models.KindPort][0]
	if !ports.Full || len(ports.Records) != 2 || ports.Source != "registry" {
		t.Errorf("ports batch = {full=%v n=%d src=%s}", ports.Full, len(ports.Records), ports.Source)
	}
	if _, ok := r.LastRefreshed(models.KindRefinery); !ok {
		t.Error("refinery refresh time not recorded")
	}
	if r.Due(models.KindPort) {
		t.Error("freshly fetched registry should not be due")
	}
}

func TestRefresher_PartialFailure(t *testing.T) {
	t.Parallel()

	server := registryServer(t, nil)
	rec := &sinkRecorder{}
	r := New(Config{PortsURL: server.URL + "/missing", RefineriesURL: server.URL + "/refineries"},
		func() string { return "session" }, rec.sink)

	err := r.Refresh(context.Background())
	var ce *feed.ConnectionError
	if !errors.As(err, &ce) {
		t.Errorf("Refresh() = %v, want ConnectionError for ports", err)
	}
	if rec.count(models.KindRefinery) != 1 {
		t.Error("refineries should refresh despite ports failure")
	}
}

func TestRefresher_Unauthorized(t *testing.T) {
	t.Parallel()

	server := registryServer(t, nil)
	r := New(Config{PortsURL: server.URL + "/ports"}, nil, nil)
	if err := r.Refresh(context.Background()); !errors.Is(err, feed.ErrAuthentication) {
		t.Errorf("Refresh() = %v, want ErrAuthentication", err)
	}
}

func TestRefresher_Serve(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := registryServer(t, &hits)
	rec := &sinkRecorder{}
	r := New(Config{PortsURL: server.URL + "/ports", RevalidateInterval: 20 * time.Millisecond},
		func() string { return "session" }, rec.sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(models.KindPort) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() = %v, want nil", err)
	}
	if rec.count(models.KindPort) < 3 {
		t.Errorf("revalidations = %d, want >= 3", rec.count(models.KindPort))
	}
	if r.String() != "registry-refresher" {
		t.Errorf("String() = %q", r.String())
	}
}
