// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/metrics"
	"github.com/tomtom215/harborwatch/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// View is one client's window onto the tracking session: its own
// criteria, viewport, toggles and render snapshots. *tracker.View
// implements it.
type View interface {
	Snapshot() *models.RenderSnapshot
	Subscribe(fn func(*models.RenderSnapshot)) func()
	SelectEntity(ref models.EntityRef) (models.EntityDetail, error)
	ViewportChanged(bounds *models.Bounds, zoom int)
	SetCriteria(c models.FilterCriteria)
	SetToggles(t models.LayerToggles)
	Close()
}

// ViewFactory opens a view for a newly connected client.
type ViewFactory func() View

// Hub maintains the set of active clients. Each client renders through its
// own View; broadcast carries messages meant for every client.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	newView    ViewFactory
	mu         sync.RWMutex
}

// NewHub creates a hub. newView may be nil, in which case inbound events
// are answered with SERVICE_UNAVAILABLE.
func NewHub(newView ViewFactory) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		newView:    newView,
	}
}

func (h *Hub) openView() View {
	if h.newView == nil {
		return nil
	}
	return h.newView()
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// DETERMINISM: shutdown is checked first, then client lifecycle events, then
// broadcasts, so client state is consistent before a message is fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// register adds the client and subscribes it to its view. The
// subscription delivers the current snapshot at once, so a fresh
// connection renders without waiting for the next change.
func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Str("client_id", client.connID).Int("total_clients", total).Msg("websocket client connected")

	if client.view == nil {
		return
	}
	unsubscribe := client.view.Subscribe(func(snap *models.RenderSnapshot) {
		h.deliver(client, Message{Type: MessageTypeSnapshot, Data: snap})
	})
	if !client.setUnsubscribe(unsubscribe) {
		unsubscribe()
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.closeSend()
	client.release()
	metrics.WSConnections.Dec()
	logging.Info().Str("client_id", client.connID).Int("total_clients", total).Msg("websocket client disconnected")
}

// deliver queues msg for one client, dropping the client if its buffer is
// full.
func (h *Hub) deliver(client *Client, msg Message) {
	if !client.trySend(msg) {
		h.dropSlow(client)
	}
}

func (h *Hub) dropSlow(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.closeSend()
	client.release()
	metrics.WSConnections.Dec()
	metrics.WSErrors.WithLabelValues("overflow").Inc()
	logging.Warn().Str("client_id", client.connID).Msg("websocket client too slow, dropped")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns the clients in id order. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients sends a message to all clients in id order. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.RLock()
	clients := h.sortedClients()
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, message)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := h.sortedClients()
	clear(h.clients)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
		client.release()
		metrics.WSConnections.Dec()
	}
}

// BroadcastJSON sends a typed JSON message to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
