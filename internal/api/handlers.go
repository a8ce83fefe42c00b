// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/cache"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
	ws "github.com/tomtom215/footfall/internal/websocket"
)

// PageService computes page results.
type PageService interface {
	Page(ctx context.Context, page models.Page, q analytics.Query) (*analytics.Result, error)
}

// Refresher runs page refreshes.
type Refresher interface {
	Refresh(ctx context.Context, page models.Page, params models.FetchParams) (*models.RefreshResult, error)
}

// HandlerConfig wires a Handler. Hub, Manifest and Cache are optional.
type HandlerConfig struct {
	Pages     PageService
	Refresher Refresher
	Store     *storage.Store
	Manifest  *storage.Manifest
	Hub       *ws.Hub
	// Cache is the page result cache reported on /health.
	Cache *cache.Cache
	// Origins allowed to open the progress WebSocket; "*" allows any.
	Origins []string
	Version string
}

// Handler serves the API endpoints.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and shared helpers
//   - handlers_health.go: health and fetch manifest
//   - handlers_pages.go: page index, page results, refresh and PNG charts
//   - handlers_ws.go: progress WebSocket
type Handler struct {
	pages     PageService
	refresher Refresher
	store     *storage.Store
	manifest  *storage.Manifest
	hub       *ws.Hub
	cache     *cache.Cache
	origins   []string
	version   string
	startTime time.Time
}

// NewHandler builds a Handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		pages:     cfg.Pages,
		refresher: cfg.Refresher,
		store:     cfg.Store,
		manifest:  cfg.Manifest,
		hub:       cfg.Hub,
		cache:     cfg.Cache,
		origins:   cfg.Origins,
		version:   cfg.Version,
		startTime: time.Now(),
	}
}

// pageParam resolves the {page} URL parameter, writing a 404 when it names
// no page.
func pageParam(rw *ResponseWriter, r *http.Request) (models.Page, bool) {
	page, err := models.ParsePage(chi.URLParam(r, "page"))
	if err != nil {
		rw.NotFound(err.Error())
		return "", false
	}
	return page, true
}
