// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// Message types.
const (
	MessageTypeProgress         = "progress"
	MessageTypeRefreshCompleted = "refresh_completed"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeSubscribe        = "subscribe"
)

// Message is one frame sent to clients. Page, when set, limits delivery to
// clients subscribed to that page or to all pages.
type Message struct {
	Type string      `json:"type"`
	Page models.Page `json:"page,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// Hub maintains the connected clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a Hub. Call Serve to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Serve runs the hub until ctx is cancelled, then closes every client.
// Client lifecycle events are handled before pending broadcasts so a
// message never reaches a half-registered client.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.add(c)
			continue
		case c := <-h.Unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client", c.id).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.drop(c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client", c.id).Int("total_clients", n).Msg("websocket client disconnected")
}

// sorted returns the clients in id order. Callers hold h.mu.
func (h *Hub) sorted() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// drop forgets c and closes its channels. Callers hold h.mu.
func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	close(c.done)
}

// deliver sends m to every interested client. A client whose buffer is
// full is dropped.
func (h *Hub) deliver(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for _, c := range h.sorted() {
		if !c.wants(m.Page) {
			continue
		}
		select {
		case c.send <- m:
			metrics.WSMessagesSent.Inc()
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.drop(c)
		logging.Warn().Uint64("client", c.id).Msg("websocket client too slow, dropped")
	}
	if len(slow) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for _, c := range h.sorted() {
		h.drop(c)
	}
	h.mu.Unlock()
	metrics.WSConnections.Set(0)
	logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("websocket hub stopped")
}

// Broadcast queues m for delivery. It never blocks; when the queue is full
// the message is dropped.
func (h *Hub) Broadcast(m Message) {
	select {
	case h.broadcast <- m:
	default:
		logging.Warn().Str("message_type", m.Type).Msg("broadcast channel full, dropping message")
	}
}

// Publish broadcasts a refresh progress event to clients following its
// page.
func (h *Hub) Publish(ev models.ProgressEvent) {
	h.Broadcast(Message{Type: MessageTypeProgress, Page: ev.Page, Data: ev})
}

// PublishRefresh broadcasts the outcome of a finished refresh.
func (h *Hub) PublishRefresh(res *models.RefreshResult) {
	if res == nil {
		return
	}
	h.Broadcast(Message{Type: MessageTypeRefreshCompleted, Page: res.Page, Data: res})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
