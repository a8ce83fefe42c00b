// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/models"
	ws "github.com/tomtom215/footfall/internal/websocket"
)

// registerTimeout bounds the wait for the hub to accept a new client.
const registerTimeout = 5 * time.Second

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts configured origins. Browsers always send
// Origin, so a missing header is only allowed with the "*" wildcard.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	for _, allowed := range h.origins {
		if allowed == "*" || (origin != "" && allowed == origin) {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades to the refresh progress stream. The optional page
// query parameter subscribes the client to one page.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		WriteError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable")
		return
	}
	var page models.Page
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := models.ParsePage(raw)
		if err != nil {
			NewResponseWriter(w, r).NotFound(err.Error())
			return
		}
		page = p
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	client.Subscribe(page)

	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()
	select {
	case h.hub.Register <- client:
		client.Start()
	case <-r.Context().Done():
		_ = conn.Close()
	case <-timer.C:
		logging.Ctx(r.Context()).Warn().Msg("WebSocket hub not accepting clients")
		_ = conn.Close()
	}
}
