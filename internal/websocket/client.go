// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/tracker"
	"github.com/tomtom215/harborwatch/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// clientIDCounter orders clients for deterministic broadcast.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id     uint64
	connID string
	hub    *Hub
	conn   *websocket.Conn
	view   View
	send   chan Message

	// mu guards send against close and the view subscription against
	// release.
	mu          sync.Mutex
	closed      bool
	released    bool
	unsubscribe func()
}

// NewClient creates a new Client with a unique id and its own view.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		connID: uuid.NewString(),
		hub:    hub,
		conn:   conn,
		view:   hub.openView(),
		send:   make(chan Message, 64),
	}
}

// trySend queues msg without blocking. It reports false only when the
// buffer is full; messages to a closed client are discarded.
func (c *Client) trySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) setUnsubscribe(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return false
	}
	c.unsubscribe = fn
	return true
}

// release ends the view subscription and closes the view.
func (c *Client) release() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if c.view != nil {
		c.view.Close()
	}
}

// ID returns the client's ordering id.
func (c *Client) ID() uint64 {
	return c.id
}

// ConnID returns the client's connection id as it appears in logs.
func (c *Client) ConnID() string {
	return c.connID
}

// Attach registers an upgraded connection with the hub and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn) *Client {
	client := NewClient(h, conn)
	h.Register <- client
	client.Start()
	return client
}

// readPump pumps messages from the websocket connection to the client's view
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Error().Err(err).Str("client_id", c.connID).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		var msg InboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			c.reply(newError(ErrCodeInvalidMessage, "message is not valid JSON"))
			continue
		}
		if out, ok := handle(c.view, msg); ok {
			c.reply(out)
		}
	}
}

// reply queues a direct answer. A reply that does not fit is discarded;
// the client is dropped by the next snapshot delivery instead.
func (c *Client) reply(msg Message) {
	_ = c.trySend(msg)
}

// handle applies one inbound event to view and returns the reply to send,
// if any.
func handle(view View, msg InboundMessage) (Message, bool) {
	if msg.Type == MessageTypePing {
		return Message{Type: MessageTypePong}, true
	}
	if view == nil {
		return newError(ErrCodeUnavailable, "tracking session unavailable"), true
	}

	switch msg.Type {
	case MessageTypeSelectEntity:
		var ref models.EntityRef
		if out, ok := decodeValid(msg.Data, &ref); !ok {
			return out, true
		}
		detail, err := view.SelectEntity(ref)
		if errors.Is(err, tracker.ErrNotFound) {
			return newError(ErrCodeNotFound, ref.String()+" not found"), true
		}
		if err != nil {
			return newError(ErrCodeUnavailable, err.Error()), true
		}
		return Message{Type: MessageTypeEntityDetail, Data: detail}, true

	case MessageTypeViewportChanged:
		var vp ViewportPayload
		if out, ok := decodeValid(msg.Data, &vp); !ok {
			return out, true
		}
		view.ViewportChanged(vp.Bounds, vp.Zoom)

	case MessageTypeCriteriaChanged:
		var c models.FilterCriteria
		if out, ok := decodeValid(msg.Data, &c); !ok {
			return out, true
		}
		view.SetCriteria(c)

	case MessageTypeTogglesChanged:
		var t models.LayerToggles
		if out, ok := decodeValid(msg.Data, &t); !ok {
			return out, true
		}
		view.SetToggles(t)

	default:
		metrics.WSErrors.WithLabelValues("unknown_type").Inc()
		return newError(ErrCodeUnknownType, "unknown message type "+msg.Type), true
	}
	return Message{}, false
}

// decodeValid decodes data into dst and validates it. On failure it
// returns the error message to send.
func decodeValid(data json.RawMessage, dst interface{}) (Message, bool) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.WSErrors.WithLabelValues("decode").Inc()
		return newError(ErrCodeInvalidMessage, "invalid message data"), false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		metrics.WSErrors.WithLabelValues("validation").Inc()
		return errorMessage(verr.ToAPIError()), false
	}
	return Message{}, true
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				metrics.WSErrors.WithLabelValues("encode").Inc()
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
