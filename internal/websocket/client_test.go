// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWire(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg wireMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode %s: %v", payload, err)
	}
	return msg
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()

	view := newFakeView()
	hub := startHub(t, func() View { return view })
	conn := dialHub(t, hub)

	if msg := readWire(t, conn); msg.Type != MessageTypeSnapshot || !strings.Contains(string(msg.Data), `"version":7`) {
		t.Fatalf("initial message = %s %s", msg.Type, msg.Data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select_entity","data":{"kind":"vessel","id":3}}`)); err != nil {
		t.Fatal(err)
	}
	msg := readWire(t, conn)
	if msg.Type != MessageTypeEntityDetail || !strings.Contains(string(msg.Data), `"Gulf Pioneer"`) {
		t.Errorf("select reply = %s %s", msg.Type, msg.Data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	msg = readWire(t, conn)
	if msg.Type != MessageTypeError || !strings.Contains(string(msg.Data), ErrCodeInvalidMessage) {
		t.Errorf("malformed reply = %s %s", msg.Type, msg.Data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewport_changed","data":{"zoom":99}}`)); err != nil {
		t.Fatal(err)
	}
	msg = readWire(t, conn)
	if !strings.Contains(string(msg.Data), `"code":"VALIDATION_ERROR"`) || !strings.Contains(string(msg.Data), "zoom") {
		t.Errorf("validation reply = %s", msg.Data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewport_changed","data":{"bounds":{"south":-10,"west":-20,"north":10,"east":20},"zoom":4}}`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readWire(t, conn); msg.Type != MessageTypePong {
		t.Errorf("expected no reply to viewport_changed, got %s", msg.Type)
	}
	view.mu.Lock()
	zoom := view.zoom
	view.mu.Unlock()
	if zoom != 4 {
		t.Errorf("view zoom = %d, want 4", zoom)
	}
}

func TestClient_DisconnectUnregisters(t *testing.T) {
	t.Parallel()

	hub := startHub(t, nil)
	conn := dialHub(t, hub)

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = conn.Close()
	for hub.GetClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := hub.GetClientCount(); n != 0 {
		t.Errorf("client count after close = %d", n)
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	out, err := MarshalMessage(newError(ErrCodeNotFound, "vessel:1 not found"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"error","data":{"code":"NOT_FOUND","message":"vessel:1 not found"}}`
	if string(out) != want {
		t.Errorf("MarshalMessage() = %s, want %s", out, want)
	}
}
