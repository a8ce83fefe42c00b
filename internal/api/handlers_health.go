// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/footfall/internal/cache"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string  `json:"status"`
	Version   string  `json:"version,omitempty"`
	Uptime    float64 `json:"uptime_seconds"`
	DataDir   string  `json:"data_dir,omitempty"`
	DataDirOK bool    `json:"data_dir_ok"`
	// PagesReady counts pages whose report files are all present.
	PagesReady int          `json:"pages_ready"`
	WSClients  int          `json:"websocket_clients"`
	Cache      *CacheHealth `json:"cache,omitempty"`
}

// CacheHealth is the page result cache's activity.
type CacheHealth struct {
	cache.Stats
	// Entries includes expired entries not yet swept.
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate_percent"`
}

// Health reports liveness. The status is "degraded" when the data
// directory is gone.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := HealthStatus{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.store != nil {
		st.DataDir = h.store.Dir()
		info, err := os.Stat(st.DataDir)
		st.DataDirOK = err == nil && info.IsDir()
		for _, p := range models.Pages() {
			if len(h.store.Missing(p.Files...)) == 0 {
				st.PagesReady++
			}
		}
	}
	if !st.DataDirOK {
		st.Status = "degraded"
	}
	if h.hub != nil {
		st.WSClients = h.hub.ClientCount()
	}
	if h.cache != nil {
		st.Cache = &CacheHealth{
			Stats:   h.cache.GetStats(),
			Entries: h.cache.Len(),
			HitRate: h.cache.HitRate(),
		}
	}
	NewResponseWriter(w, r).Success(st)
}

// Fetches lists the fetch manifest: the last run that wrote each file.
func (h *Handler) Fetches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.manifest == nil {
		rw.Success([]storage.FetchRecord{})
		return
	}
	recs, err := h.manifest.List(r.Context())
	if err != nil {
		rw.writeServiceError(err)
		return
	}
	if recs == nil {
		recs = []storage.FetchRecord{}
	}
	rw.Success(recs)
}
