// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/models"
	syncpkg "github.com/tomtom215/footfall/internal/sync"
)

// PageCard is one entry of the page index.
type PageCard struct {
	models.PageInfo
	// Ready is true when every report file of the page has been fetched.
	Ready        bool     `json:"ready"`
	MissingFiles []string `json:"missing_files,omitempty"`
}

// PageIndex is the body of GET /api/v1/pages.
type PageIndex struct {
	Title string     `json:"title"`
	Pages []PageCard `json:"pages"`
}

// Pages lists the dashboard pages with their data readiness.
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	infos := models.Pages()
	idx := PageIndex{Title: models.DashboardTitle, Pages: make([]PageCard, len(infos))}
	for i, info := range infos {
		card := PageCard{PageInfo: info}
		if h.store != nil {
			card.MissingFiles = h.store.Missing(info.Files...)
		}
		card.Ready = h.store != nil && len(card.MissingFiles) == 0
		idx.Pages[i] = card
	}
	rw.Success(idx)
}

// Page returns the KPIs and charts of one page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	page, ok := pageParam(rw, r)
	if !ok {
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		rw.writeServiceError(err)
		return
	}
	res, err := h.pages.Page(r.Context(), page, q.Query())
	if err != nil {
		rw.writeServiceError(err)
		return
	}
	rw.Success(res)
}

// Refresh fetches every report of a page. A refresh with a failed step
// answers 502 with the per-step result in the error details.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	page, ok := pageParam(rw, r)
	if !ok {
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRefreshBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return
	}
	params, err := req.Params()
	if err != nil {
		rw.writeServiceError(err)
		return
	}

	res, err := h.refresher.Refresh(r.Context(), page, params)
	if res != nil && h.hub != nil {
		h.hub.PublishRefresh(res)
	}
	switch {
	case err == nil:
		rw.Success(res)
	case errors.Is(err, syncpkg.ErrRefreshFailed):
		logging.Ctx(r.Context()).Warn().Err(err).Str("page", string(page)).Msg("Refresh finished with failed steps")
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeExternalServiceFail, err.Error(), res)
	default:
		rw.writeServiceError(err)
	}
}

// ChartPNG renders one chart of a page as PNG. Page selectors apply, so
// the clusters chart follows k and method.
func (h *Handler) ChartPNG(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	page, ok := pageParam(rw, r)
	if !ok {
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		rw.writeServiceError(err)
		return
	}
	size, err := parseImageSize(r)
	if err != nil {
		rw.writeServiceError(err)
		return
	}

	res, err := h.pages.Page(r.Context(), page, q.Query())
	if err != nil {
		rw.writeServiceError(err)
		return
	}
	id := chi.URLParam(r, "chart")
	c := res.Chart(id)
	if c == nil {
		rw.NotFound("chart " + strconv.Quote(id) + " not found on page " + string(page))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderPNG(&buf, c, size.Width, size.Height); err != nil {
		rw.writeServiceError(err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("PNG write aborted")
	}
}
