// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/config"
	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/registry"
)

const testSecret = "tracker_test_secret_with_at_least_32_chars"

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// fakeFeed records calls and lets tests push batches and states.
type fakeFeed struct {
	mu          sync.Mutex
	state       models.ConnectionState
	token       string
	connects    atomic.Int32
	disconnects atomic.Int32
	connectErr  error
	onState     []func(models.ConnectionState)
	onBatch     []func(feed.RawBatch)
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{state: models.StateDisconnected}
}

func (f *fakeFeed) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connects.Add(1)
	f.push(models.StateConnected)
	return nil
}

func (f *fakeFeed) Disconnect() {
	f.disconnects.Add(1)
	f.push(models.StateDisconnected)
}

func (f *fakeFeed) State() models.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeFeed) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeFeed) OnState(fn func(models.ConnectionState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onState = append(f.onState, fn)
}

func (f *fakeFeed) OnBatch(fn func(feed.RawBatch)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onBatch = append(f.onBatch, fn)
}

func (f *fakeFeed) push(s models.ConnectionState) {
	f.mu.Lock()
	f.state = s
	listeners := f.onState
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

func (f *fakeFeed) send(full bool, records ...string) {
	raw := make([][]byte, len(records))
	for i, r := range records {
		raw[i] = []byte(r)
	}
	f.mu.Lock()
	listeners := f.onBatch
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(feed.RawBatch{Source: "stream", Records: raw, Full: full, ReceivedAt: t0})
	}
}

func newTestSession(t *testing.T, cfg Config) (*Session, *fakeFeed) {
	t.Helper()
	ff := newFakeFeed()
	if cfg.ThrottleInterval == 0 {
		cfg.ThrottleInterval = time.Millisecond
	}
	s, err := NewSession(cfg, Deps{Gate: auth.OpenGate{}, Feed: ff})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, ff
}

func vesselJSON(id int, lat, lng float64, ts time.Time, extra string) string {
	return fmt.Sprintf(`{"id":%d,"lat":%v,"lng":%v,"timestamp":%q%s}`, id, lat, lng, ts.Format(time.RFC3339), extra)
}

func TestNewSession_RequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewSession(Config{}, Deps{Feed: newFakeFeed()}); err == nil {
		t.Error("expected error without gate")
	}
	if _, err := NewSession(Config{}, Deps{Gate: auth.OpenGate{}}); err == nil {
		t.Error("expected error without feed")
	}
}

func TestOpen_GatedByToken(t *testing.T) {
	t.Parallel()

	m, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	ff := newFakeFeed()
	s, err := NewSession(Config{ForwardSessionToken: true}, Deps{Gate: auth.NewJWTGate(m), Feed: ff})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, bad := range []string{"", "not-a-jwt"} {
		if err := s.Open(bad); err == nil {
			t.Errorf("Open(%q) succeeded", bad)
		}
	}
	if ff.connects.Load() != 0 {
		t.Fatalf("feed connected %d times without a valid session", ff.connects.Load())
	}
	if s.Opened() {
		t.Error("session reports opened after rejection")
	}

	token, _ := m.GenerateToken("analyst", "viewer")
	if err := s.Open(token); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Open(token); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if ff.connects.Load() != 1 {
		t.Errorf("connects = %d, want 1", ff.connects.Load())
	}
	if ff.token != token {
		t.Error("session token not forwarded to feed")
	}
	if s.ConnectionState() != models.StateConnected {
		t.Errorf("ConnectionState() = %s", s.ConnectionState())
	}
}

func TestOpen_FeedError(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	ff.connectErr = feed.ErrNoTransport
	if err := s.Open(""); !errors.Is(err, feed.ErrNoTransport) {
		t.Errorf("Open() = %v, want ErrNoTransport", err)
	}
	if s.Opened() {
		t.Error("session opened despite feed error")
	}
}

// Scenario A end to end: one malformed record is dropped, the rest render.
func TestHandleRaw_ScenarioA(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	if err := s.Open(""); err != nil {
		t.Fatal(err)
	}
	ff.send(true,
		vesselJSON(1, 10, 20, t0, `,"type":"Crude Oil Tanker"`),
		vesselJSON(2, 91, 0, t0, ""),
		vesselJSON(3, 5, 5, t0, `,"type":"LNG"`),
	)

	snap := s.Snapshot()
	if len(snap.Vessels) != 2 {
		t.Fatalf("rendered %d vessels, want 2", len(snap.Vessels))
	}
	if snap.Vessels[0].ID != 1 || snap.Vessels[1].ID != 3 {
		t.Errorf("rendered ids = %d,%d", snap.Vessels[0].ID, snap.Vessels[1].ID)
	}
	if snap.ConnectionState != models.StateConnected || snap.Stale {
		t.Errorf("state = %s stale = %v", snap.ConnectionState, snap.Stale)
	}
}

func TestIngest_StaleWritesAndEmptyBatch(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, Config{})
	newer := s.Ingest(models.KindVessel, feed.RawBatch{Source: "stream", Records: [][]byte{
		[]byte(vesselJSON(1, 10, 20, t0.Add(time.Minute), `,"name":"Newer"`)),
	}})
	if newer.Applied.Inserted != 1 {
		t.Fatalf("inserted = %d", newer.Applied.Inserted)
	}

	older := s.Ingest(models.KindVessel, feed.RawBatch{Source: "poll", Records: [][]byte{
		[]byte(vesselJSON(1, 11, 21, t0, `,"name":"Older"`)),
	}})
	if older.Applied.StaleWrites != 1 {
		t.Errorf("stale writes = %d, want 1", older.Applied.StaleWrites)
	}
	if v, _ := s.Store().Vessel(1); v.Name != "Newer" {
		t.Errorf("stored name = %q, want Newer", v.Name)
	}

	before := s.Store().Version()
	empty := s.Ingest(models.KindVessel, feed.RawBatch{Source: "poll", Full: true})
	if empty.Normalized.Total != 0 || s.Store().Version() != before {
		t.Error("empty batch modified the store")
	}
}

func TestIngest_FullRefreshMarksStale(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	ff.send(true, vesselJSON(1, 10, 20, t0, ""), vesselJSON(2, 11, 21, t0, ""))
	ff.send(true, vesselJSON(1, 10, 20, t0.Add(time.Minute), ""))
	if v, _ := s.Store().Vessel(2); v.Stale {
		t.Fatal("vessel 2 stale after one missed refresh")
	}
	ff.send(true, vesselJSON(1, 10, 20, t0.Add(2*time.Minute), ""))
	if v, _ := s.Store().Vessel(2); !v.Stale {
		t.Fatal("vessel 2 not stale after two missed refreshes")
	}

	// deltas never mark absent vessels stale
	ff.send(false, vesselJSON(1, 10, 20, t0.Add(3*time.Minute), ""))
	ff.send(false, vesselJSON(1, 10, 20, t0.Add(4*time.Minute), ""))
	if _, stale := s.Store().Counts(models.KindVessel); stale != 1 {
		t.Errorf("stale count = %d, want 1", stale)
	}
}

func TestSnapshot_RecomputedOnlyOnChange(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	ff.send(true, vesselJSON(1, 26, 52, t0, `,"type":"LNG Carrier"`), vesselJSON(2, 58, 3, t0, `,"type":"Crude Oil Tanker"`))

	first := s.Snapshot()
	if s.Snapshot() != first {
		t.Fatal("Snapshot() recomputed without a change")
	}

	s.SetCriteria(models.FilterCriteria{VesselTypes: []string{"LNG Carrier"}})
	filtered := s.Snapshot()
	if filtered == first || len(filtered.Vessels) != 1 || filtered.Vessels[0].ID != 1 {
		t.Fatalf("criteria change not rendered: %+v", filtered.Vessels)
	}

	s.SetCriteria(models.FilterCriteria{VesselTypes: []string{"lng carrier"}})
	if s.Snapshot() != filtered {
		t.Error("equivalent criteria should reuse the snapshot")
	}

	s.ViewportChanged(&models.Bounds{South: 50, West: 0, North: 60, East: 10}, 6)
	if got := s.Snapshot(); len(got.Vessels) != 0 {
		t.Errorf("viewport excludes LNG carrier, got %d vessels", len(got.Vessels))
	}
	if s.Criteria().Viewport == nil || s.Zoom() != 6 {
		t.Error("viewport not recorded")
	}

	// SetCriteria keeps the viewport
	s.SetCriteria(models.FilterCriteria{})
	if got := s.Snapshot(); len(got.Vessels) != 1 || got.Vessels[0].ID != 2 {
		t.Errorf("viewport lost on criteria change: %+v", got.Vessels)
	}
	s.ViewportChanged(nil, 99)
	if s.Zoom() != 22 || s.Criteria().Viewport != nil {
		t.Errorf("zoom = %d viewport = %v", s.Zoom(), s.Criteria().Viewport)
	}
}

func TestSnapshot_LayerToggles(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	s.Ingest(models.KindPort, feed.RawBatch{Source: "registry", Full: true, ReceivedAt: t0, Records: [][]byte{
		[]byte(`{"id":10,"name":"Ras Tanura","lat":26.6,"lng":50.1}`),
		[]byte(`{"id":11,"name":"Rotterdam","lat":51.9,"lng":4.1}`),
	}})
	ff.send(true, vesselJSON(1, 30, 30, t0, `,"departurePortId":10,"destinationPortId":11`))

	snap := s.Snapshot()
	if len(snap.Routes) != 1 || len(snap.Ports) != 2 || len(snap.Clusters) == 0 {
		t.Fatalf("default layers: routes %d ports %d clusters %d", len(snap.Routes), len(snap.Ports), len(snap.Clusters))
	}
	if len(snap.HeatBuckets) != 0 {
		t.Error("heatmap is off by default")
	}

	s.SetToggles(models.LayerToggles{ShowHeatmap: true})
	snap = s.Snapshot()
	if len(snap.Vessels) != 0 || len(snap.Ports) != 0 || len(snap.Routes) != 0 || len(snap.Clusters) != 0 {
		t.Error("toggled-off layers must be empty")
	}
	if len(snap.HeatBuckets) != 1 || snap.HeatBuckets[0].Intensity != 1 {
		t.Errorf("heat buckets = %+v", snap.HeatBuckets)
	}
	if s.Toggles() != (models.LayerToggles{ShowHeatmap: true}) {
		t.Error("Toggles() not updated")
	}

	// empty layers still marshal as arrays
	body, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		t.Fatal(err)
	}
	if _, ok := generic["vessels"].([]any); !ok {
		t.Errorf("vessels marshalled as %T, want array", generic["vessels"])
	}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{ThrottleInterval: 20 * time.Millisecond})
	var mu sync.Mutex
	var got []*models.RenderSnapshot
	unsubscribe := s.Subscribe(func(snap *models.RenderSnapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(got)
	}

	for i := 0; i < 20; i++ {
		ff.send(false, vesselJSON(1, 10, 20, t0.Add(time.Duration(i)*time.Second), ""))
	}
	latest := func() uint64 {
		mu.Lock()
		defer mu.Unlock()
		if len(got) == 0 {
			return 0
		}
		return got[len(got)-1].Version
	}
	deadline := time.Now().Add(2 * time.Second)
	for latest() != s.Store().Version() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if latest() != s.Store().Version() {
		t.Fatalf("last published version %d, store version %d", latest(), s.Store().Version())
	}
	if n := count(); n < 1 || n >= 20 {
		t.Errorf("subscriber saw %d snapshots for a burst of 20 batches, want coalesced", n)
	}
	if v, _ := s.Store().Vessel(1); !v.LastUpdate.Equal(t0.Add(19 * time.Second)) {
		t.Errorf("store missed updates: last update %v", v.LastUpdate)
	}

	unsubscribe()
	before := count()
	time.Sleep(30 * time.Millisecond)
	ff.send(false, vesselJSON(2, 1, 1, t0, ""))
	time.Sleep(50 * time.Millisecond)
	if count() != before {
		t.Error("unsubscribed listener still notified")
	}
}

func TestConnectionStateRendered(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	if err := s.Open(""); err != nil {
		t.Fatal(err)
	}
	ff.push(models.StateDegraded)
	if snap := s.Snapshot(); snap.ConnectionState != models.StateDegraded || snap.Stale {
		t.Errorf("degraded: %s stale=%v", snap.ConnectionState, snap.Stale)
	}
	ff.push(models.StateDisconnected)
	if snap := s.Snapshot(); !snap.Stale {
		t.Error("disconnected snapshot should be stale")
	}
}

func TestSelectEntity(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	s.Ingest(models.KindPort, feed.RawBatch{Source: "registry", ReceivedAt: t0, Records: [][]byte{
		[]byte(`{"id":10,"name":"Ras Tanura","lat":26.6,"lng":50.1}`),
	}})
	s.Ingest(models.KindRefinery, feed.RawBatch{Source: "registry", ReceivedAt: t0, Records: [][]byte{
		[]byte(`{"id":20,"name":"Ruwais","lat":24.1,"lng":52.7,"products":["Diesel"]}`),
	}})
	ff.send(true,
		vesselJSON(1, 26, 52, t0, `,"departurePortId":10,"destinationPortId":99`),
		vesselJSON(2, 25, 51, t0, `,"departurePortId":10,"destinationPortId":10`),
	)

	d, err := s.SelectEntity(models.EntityRef{Kind: models.KindVessel, ID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if d.Vessel == nil || d.DeparturePort == nil || d.DestinationPort != nil || d.Route != nil {
		t.Errorf("vessel 1 detail = %+v, want departure only and no route", d)
	}

	d, _ = s.SelectEntity(models.EntityRef{Kind: models.KindVessel, ID: 2})
	if d.Route == nil || len(d.Route.Waypoints) != 3 {
		t.Errorf("vessel 2 route = %+v", d.Route)
	}

	if d, err := s.SelectEntity(models.EntityRef{Kind: models.KindRefinery, ID: 20}); err != nil || d.Refinery == nil {
		t.Errorf("refinery detail = %+v, %v", d, err)
	}
	if d, err := s.SelectEntity(models.EntityRef{Kind: models.KindPort, ID: 10}); err != nil || d.Port == nil {
		t.Errorf("port detail = %+v, %v", d, err)
	}
	if _, err := s.SelectEntity(models.EntityRef{Kind: models.KindVessel, ID: 404}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing vessel err = %v", err)
	}
	if ref, ok := s.Selected(); !ok || ref.Kind != models.KindPort || ref.ID != 10 {
		t.Errorf("Selected() = %v, %v", ref, ok)
	}
}

func TestReauthenticateAndClose(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	if err := s.Open(""); err != nil {
		t.Fatal(err)
	}
	ff.push(models.StateAuthRequired)

	if err := s.Reauthenticate("fresh"); err != nil {
		t.Fatalf("Reauthenticate() error = %v", err)
	}
	if ff.disconnects.Load() != 1 || ff.connects.Load() != 2 {
		t.Errorf("disconnects %d connects %d, want 1 and 2", ff.disconnects.Load(), ff.connects.Load())
	}

	s.Close()
	s.Close()
	if ff.disconnects.Load() != 2 {
		t.Errorf("disconnects after Close = %d, want 2", ff.disconnects.Load())
	}
	if err := s.Open(""); !errors.Is(err, ErrClosed) {
		t.Errorf("Open() after Close = %v, want ErrClosed", err)
	}
	if err := s.Reauthenticate(""); !errors.Is(err, ErrClosed) {
		t.Errorf("Reauthenticate() after Close = %v, want ErrClosed", err)
	}
}

func TestSweepStale(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{StaleAfter: 10 * time.Minute})
	s.now = func() time.Time { return t0.Add(15 * time.Minute) }
	ff.send(false, vesselJSON(1, 1, 1, t0, ""), vesselJSON(2, 2, 2, t0.Add(10*time.Minute), ""))

	if n := s.SweepStale(); n != 1 {
		t.Errorf("SweepStale() = %d, want 1", n)
	}
	if v, _ := s.Store().Vessel(1); !v.Stale {
		t.Error("vessel 1 should be stale")
	}
}

func TestServe_ClosesOnCancel(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{SweepInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() = %v", err)
	}
	if ff.disconnects.Load() != 1 {
		t.Error("Serve did not close the session")
	}
	if err := s.Serve(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Serve() on closed session = %v, want ErrClosed", err)
	}
	if s.String() != "tracker-session" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestOpen_StartsRegistry(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":10,"name":"Fujairah","lat":25.1,"lng":56.3,"country":"AE"}]`))
	}))
	defer server.Close()

	s, _ := newTestSession(t, Config{Registry: registry.Config{PortsURL: server.URL, RevalidateInterval: time.Hour}})
	if err := s.Open(""); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p, ok := s.Store().Port(10); ok {
			if p.Country != "United Arab Emirates" {
				t.Errorf("country = %q", p.Country)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("registry ports never reached the store")
}

func TestGeoJSON(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	s.Ingest(models.KindPort, feed.RawBatch{Source: "registry", ReceivedAt: t0, Records: [][]byte{
		[]byte(`{"id":10,"name":"Ras Tanura","lat":26.6,"lng":50.1}`),
	}})
	ff.send(true, vesselJSON(1, 26, 52, t0, `,"name":"Gulf Pioneer","departurePortId":10,"destinationPortId":10,"speed":"12.5"`))
	s.SetToggles(models.LayerToggles{ShowVessels: true, ShowPorts: true, ShowRoutes: true, ShowHeatmap: true})

	fc := s.GeoJSON()
	layers := map[string]int{}
	for _, f := range fc.Features {
		layer, _ := f.Properties["layer"].(string)
		layers[layer]++
	}
	want := map[string]int{LayerVessel: 1, LayerPort: 1, LayerRoute: 1, LayerHeat: 1, LayerCluster: 1}
	for k, n := range want {
		if layers[k] != n {
			t.Errorf("layer %s: %d features, want %d (all: %v)", k, layers[k], n, layers)
		}
	}

	var vessel map[string]any
	for _, f := range fc.Features {
		if f.Properties["layer"] == LayerVessel {
			if !f.Geometry.IsPoint() || f.Geometry.Point[0] != 52 || f.Geometry.Point[1] != 26 {
				t.Errorf("vessel geometry = %+v, want [52 26]", f.Geometry.Point)
			}
			vessel = f.Properties
		}
	}
	if vessel["name"] != "Gulf Pioneer" || vessel["speed"] != 12.5 {
		t.Errorf("vessel properties = %v", vessel)
	}

	if empty := SnapshotGeoJSON(nil); len(empty.Features) != 0 {
		t.Error("nil snapshot should produce an empty collection")
	}
}

// A Snapshot call between the leading and the trailing recompute renders
// the newest version first; the trailing recompute must still push it.
func TestSubscribe_PushesAfterInterleavedSnapshot(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{ThrottleInterval: 50 * time.Millisecond})
	var mu sync.Mutex
	var last uint64
	s.Subscribe(func(snap *models.RenderSnapshot) {
		mu.Lock()
		last = snap.Version
		mu.Unlock()
	})
	latest := func() uint64 {
		mu.Lock()
		defer mu.Unlock()
		return last
	}

	ff.send(false, vesselJSON(1, 10, 20, t0, ""))
	ff.send(false, vesselJSON(2, 11, 21, t0, ""))
	want := s.Store().Version()
	if got := s.Snapshot().Version; got != want {
		t.Fatalf("Snapshot().Version = %d, want %d", got, want)
	}

	deadline := time.Now().Add(2 * time.Second)
	for latest() != want && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := latest(); got != want {
		t.Errorf("subscriber last saw version %d, want %d", got, want)
	}
}

func TestSubscribe_DeliversCurrentSnapshot(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{})
	ff.send(true, vesselJSON(1, 10, 20, t0, ""))
	current := s.Snapshot()

	var got *models.RenderSnapshot
	unsubscribe := s.Subscribe(func(snap *models.RenderSnapshot) { got = snap })
	defer unsubscribe()
	if got != current {
		t.Errorf("initial delivery = %p, want current snapshot %p", got, current)
	}
}

func TestViews_Independent(t *testing.T) {
	t.Parallel()

	s, ff := newTestSession(t, Config{ThrottleInterval: 5 * time.Millisecond})
	ff.send(true,
		vesselJSON(1, 26, 52, t0, `,"type":"LNG Carrier"`),
		vesselJSON(2, 58, 3, t0, `,"type":"Crude Oil Tanker"`),
	)

	a, b := s.NewView(), s.NewView()
	if s.ViewCount() != 3 {
		t.Fatalf("ViewCount() = %d, want 3", s.ViewCount())
	}

	var mu sync.Mutex
	pushed := map[int]*models.RenderSnapshot{}
	for _, v := range []*View{a, b} {
		v := v
		v.Subscribe(func(snap *models.RenderSnapshot) {
			mu.Lock()
			pushed[v.ID()] = snap
			mu.Unlock()
		})
	}

	tests := []struct {
		name    string
		view    *View
		apply   func(v *View)
		wantIDs []int64
		wantZ   int
	}{
		{
			name:    "criteria",
			view:    a,
			apply:   func(v *View) { v.SetCriteria(models.FilterCriteria{VesselTypes: []string{"LNG Carrier"}}) },
			wantIDs: []int64{1},
			wantZ:   3,
		},
		{
			name:    "viewport",
			view:    b,
			apply:   func(v *View) { v.ViewportChanged(&models.Bounds{South: 50, West: 0, North: 60, East: 10}, 7) },
			wantIDs: []int64{2},
			wantZ:   7,
		},
	}
	for _, tt := range tests {
		tt.apply(tt.view)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.view.Snapshot()
			if len(snap.Vessels) != len(tt.wantIDs) {
				t.Fatalf("vessels = %+v, want ids %v", snap.Vessels, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if snap.Vessels[i].ID != id {
					t.Errorf("vessel[%d] = %d, want %d", i, snap.Vessels[i].ID, id)
				}
			}
			if tt.view.Zoom() != tt.wantZ {
				t.Errorf("Zoom() = %d, want %d", tt.view.Zoom(), tt.wantZ)
			}
		})
	}

	if got := s.Snapshot(); len(got.Vessels) != 2 || s.Criteria().Viewport != nil {
		t.Errorf("default view changed by other views: %d vessels", len(got.Vessels))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := pushed[a.ID()] == a.Snapshot() && pushed[b.ID()] == b.Snapshot()
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	if pushed[a.ID()] != a.Snapshot() || pushed[b.ID()] != b.Snapshot() {
		t.Error("views were not pushed their own snapshots")
	}
	mu.Unlock()

	a.Close()
	a.Close()
	if !a.Closed() || s.ViewCount() != 2 {
		t.Errorf("after Close: closed=%v ViewCount()=%d", a.Closed(), s.ViewCount())
	}
}
