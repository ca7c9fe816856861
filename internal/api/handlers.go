// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/config"
	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/store"
	"github.com/tomtom215/harborwatch/internal/tracker"
	ws "github.com/tomtom215/harborwatch/internal/websocket"
)

// Tracker is the session surface the handlers use. *tracker.Session
// implements it.
type Tracker interface {
	Open(token string) error
	Reauthenticate(token string) error
	Opened() bool
	ConnectionState() models.ConnectionState
	Store() *store.Store
	NewView() *tracker.View
}

// Handler serves the HTTP API. Each session token reads and changes its
// own view; requests without a token share one.
type Handler struct {
	session   Tracker
	hub       *ws.Hub
	config    *config.Config
	views     *viewRegistry
	startTime time.Time
}

// NewHandler creates a handler. hub may be nil, in which case /ws answers 503.
func NewHandler(session Tracker, hub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		session:   session,
		hub:       hub,
		config:    cfg,
		views:     newViewRegistry(session.NewView, DefaultMaxViews),
		startTime: time.Now(),
	}
}

// Close releases the per-token views.
func (h *Handler) Close() {
	h.views.closeAll()
}

// view returns the caller's view.
func (h *Handler) view(r *http.Request) *tracker.View {
	return h.views.get(auth.ExtractToken(r))
}

// ViewState is the response of GET /view.
type ViewState struct {
	Criteria models.FilterCriteria `json:"criteria"`
	Zoom     int                   `json:"zoom"`
	Toggles  models.LayerToggles   `json:"toggles"`
}

// ConnectionStatus is the response of GET /connection.
type ConnectionStatus struct {
	State  models.ConnectionState `json:"state"`
	Live   bool                   `json:"live"`
	Opened bool                   `json:"opened"`
}

// HealthStatus is the response of GET /health.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Connection models.ConnectionState `json:"connection_state"`
	Opened     bool                   `json:"opened"`
	Version    uint64                 `json:"store_version"`
	Entities   map[string]EntityCount `json:"entities"`
	Clients    int                    `json:"websocket_clients"`
	Uptime     float64                `json:"uptime_seconds"`
}

// EntityCount is the total and stale count of one entity kind.
type EntityCount struct {
	Total int `json:"total"`
	Stale int `json:"stale"`
}

func (h *Handler) connectionStatus() ConnectionStatus {
	state := h.session.ConnectionState()
	return ConnectionStatus{State: state, Live: state.Live(), Opened: h.session.Opened()}
}

// Health returns the pipeline health summary. The service is "degraded"
// while no live channel delivers data.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	conn := h.connectionStatus()
	status := "healthy"
	if !conn.Live {
		status = "degraded"
	}

	st := h.session.Store()
	entities := make(map[string]EntityCount, 3)
	for _, kind := range []models.EntityKind{models.KindVessel, models.KindPort, models.KindRefinery} {
		total, stale := st.Counts(kind)
		entities[string(kind)] = EntityCount{Total: total, Stale: stale}
	}
	clients := 0
	if h.hub != nil {
		clients = h.hub.GetClientCount()
	}

	WriteSuccess(w, r, HealthStatus{
		Status:     status,
		Connection: conn.State,
		Opened:     conn.Opened,
		Version:    st.Version(),
		Entities:   entities,
		Clients:    clients,
		Uptime:     time.Since(h.startTime).Seconds(),
	})
}

// HealthLive returns 200 whenever the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once the session is opened and some transport
// is delivering data.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	conn := h.connectionStatus()
	if !conn.Opened || !conn.Live {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Not ready", conn)
		return
	}
	WriteSuccess(w, r, conn)
}

// SessionOpen verifies the presented token and opens the live feed.
func (h *Handler) SessionOpen(w http.ResponseWriter, r *http.Request) {
	token, ok := h.presentedToken(w, r)
	if !ok {
		return
	}
	h.respondSession(w, r, h.session.Open(token))
}

// SessionReauth presents a fresh token after the feed reported
// auth_required, and restarts the connection.
func (h *Handler) SessionReauth(w http.ResponseWriter, r *http.Request) {
	token, ok := h.presentedToken(w, r)
	if !ok {
		return
	}
	h.respondSession(w, r, h.session.Reauthenticate(token))
}

// presentedToken reads the token from the Authorization header, cookie or
// query, falling back to an OpenSessionRequest body.
func (h *Handler) presentedToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	if token := auth.ExtractToken(r); token != "" {
		return token, true
	}
	if r.ContentLength == 0 {
		return "", true
	}
	var req OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	return req.Token, true
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	switch {
	case err == nil:
		rw.Success(h.connectionStatus())
	case errors.Is(err, auth.ErrNoToken):
		rw.ReauthRequired("Session token required")
	case errors.Is(err, auth.ErrInvalidToken):
		rw.ReauthRequired("Session token is invalid or expired")
	case errors.Is(err, tracker.ErrClosed):
		rw.ServiceUnavailable("Tracking session is shutting down")
	case errors.Is(err, feed.ErrNoTransport):
		rw.ServiceUnavailable("No feed transport configured")
	default:
		rw.ExternalServiceError("feed", err)
	}
}

// snapshotETag identifies a rendered snapshot. Every render allocates a new
// snapshot with a new GeneratedAt.
func snapshotETag(snap *models.RenderSnapshot) string {
	return `W/"` + strconv.FormatUint(snap.Version, 10) + "-" + strconv.FormatInt(snap.GeneratedAt.UnixNano(), 36) + `"`
}

// Snapshot returns the current render snapshot. A matching If-None-Match
// is answered with 304.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.view(r).Snapshot()
	etag := snapshotETag(snap)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	WriteSuccess(w, r, snap)
}

// GeoJSON returns the current snapshot as a FeatureCollection. The body is
// plain GeoJSON so map libraries can load the URL directly.
func (h *Handler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	body, err := h.view(r).GeoJSON().MarshalJSON()
	if err != nil {
		NewResponseWriter(w, r).InternalError("Failed to encode GeoJSON")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write GeoJSON response")
	}
}

// Connection returns the connection state.
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.connectionStatus())
}

// View returns the caller's criteria, zoom and toggles.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	v := h.view(r)
	WriteSuccess(w, r, ViewState{
		Criteria: v.Criteria(),
		Zoom:     v.Zoom(),
		Toggles:  v.Toggles(),
	})
}

// SetCriteria replaces the filter criteria. The viewport is kept.
func (h *Handler) SetCriteria(w http.ResponseWriter, r *http.Request) {
	var c models.FilterCriteria
	if !decodeJSON(w, r, &c) {
		return
	}
	h.view(r).SetCriteria(c)
	h.View(w, r)
}

// SetViewport updates the viewport bounds and zoom.
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.view(r).ViewportChanged(req.Bounds, req.Zoom)
	h.View(w, r)
}

// SetToggles replaces the layer toggles.
func (h *Handler) SetToggles(w http.ResponseWriter, r *http.Request) {
	var t models.LayerToggles
	if !decodeJSON(w, r, &t) {
		return
	}
	h.view(r).SetToggles(t)
	h.View(w, r)
}

// Select returns the detail of a selected entity.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var ref SelectRequest
	if !decodeJSON(w, r, &ref) {
		return
	}
	detail, err := h.view(r).SelectEntity(ref)
	if errors.Is(err, tracker.ErrNotFound) {
		NewResponseWriter(w, r).NotFound(ref.String() + " not found")
		return
	}
	if err != nil {
		NewResponseWriter(w, r).InternalError("Selection failed")
		return
	}
	WriteSuccess(w, r, detail)
}

// WebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	h.hub.Attach(conn)
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin requires an Origin listed in the CORS allow list.
// Non-browser clients, which send no Origin, are accepted because they are
// already gated by the session token.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.config == nil {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
