// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/cache"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
	syncpkg "github.com/tomtom215/footfall/internal/sync"
	ws "github.com/tomtom215/footfall/internal/websocket"
)

// fakeUpstream serves an association export for every report call and
// counts the calls. setShared changes the first row's shared traffic.
type fakeUpstream struct {
	*httptest.Server
	calls atomic.Int32
	body  atomic.Pointer[[]byte]
}

func newFakeUpstream(t *testing.T, shared string) *fakeUpstream {
	t.Helper()
	up := &fakeUpstream{}
	up.setShared(t, shared)
	up.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.calls.Add(1)
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write(*up.body.Load())
	}))
	t.Cleanup(up.Close)
	return up
}

func (up *fakeUpstream) setShared(t *testing.T, shared string) {
	t.Helper()
	cols, rows := associationRows()
	rows[0][2] = shared
	df, err := storage.NewFrame(cols, rows)
	if err != nil {
		t.Fatal(err)
	}
	data, err := storage.EncodeXLSX(df, "Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	up.body.Store(&data)
}

type liveEnv struct {
	handler http.Handler
	hub     *ws.Hub
}

func newLiveEnv(t *testing.T, upstream *fakeUpstream) *liveEnv {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	manifest, err := storage.OpenManifest("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = manifest.Close() })

	c := cache.New("api_live_test", time.Minute)
	t.Cleanup(c.Close)
	svc := analytics.NewService(store, c)

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	client, err := syncpkg.NewClient(syncpkg.ClientConfig{BaseURL: upstream.URL + "/api/en-us/", Origin: upstream.URL})
	if err != nil {
		t.Fatal(err)
	}
	weather, err := syncpkg.NewWeatherClient(syncpkg.WeatherConfig{BaseURL: upstream.URL + "/weather/"})
	if err != nil {
		t.Fatal(err)
	}
	fetcher, err := syncpkg.NewFetcher(syncpkg.FetcherConfig{
		Client:      client,
		Weather:     weather,
		Store:       store,
		Manifest:    manifest,
		Defaults:    syncpkg.Defaults{UserID: "u1", SiteCode: "P00077"},
		Progress:    hub,
		OnRefreshed: svc.Invalidate,
	})
	if err != nil {
		t.Fatal(err)
	}

	h := NewHandler(HandlerConfig{
		Pages:     svc,
		Refresher: fetcher,
		Store:     store,
		Manifest:  manifest,
		Hub:       hub,
		Origins:   []string{"https://dash.example"},
	})
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	return &liveEnv{
		handler: NewRouter(h, NewChiMiddleware(mw)).SetupChi(),
		hub:     hub,
	}
}

func (e *liveEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func sharedTraffic(t *testing.T, rec *httptest.ResponseRecorder) float64 {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res analytics.Result
	if err := json.Unmarshal(decode(t, rec).Data, &res); err != nil {
		t.Fatal(err)
	}
	for _, k := range res.KPIs {
		if k.ID == "total_shared_traffic" {
			return k.Value
		}
	}
	t.Fatal("total_shared_traffic KPI missing")
	return 0
}

func TestRefresh_ThenPageServesNewData(t *testing.T) {
	t.Parallel()
	upstream := newFakeUpstream(t, "20")
	env := newLiveEnv(t, upstream)

	expectError(t, env.do(t, http.MethodGet, "/api/v1/pages/association", ""), http.StatusNotFound, ErrCodeDataNotFound)

	rec := env.do(t, http.MethodPost, "/api/v1/pages/association/refresh",
		`{"token":"session-token","start_date":"2025-01-01","end_date":"2025-01-31"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	var res models.RefreshResult
	if err := json.Unmarshal(decode(t, rec).Data, &res); err != nil {
		t.Fatal(err)
	}
	if !res.OK || len(res.Steps) != 1 || res.Steps[0].Step != "1/1" || res.Steps[0].Status != models.StepSuccess {
		t.Fatalf("refresh result = %+v", res)
	}
	if n := upstream.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	if got := sharedTraffic(t, env.do(t, http.MethodGet, "/api/v1/pages/association", "")); got != 130 {
		t.Errorf("total shared traffic = %v, want 130", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/fetches", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("fetches status = %d", rec.Code)
	}
	var recs []storage.FetchRecord
	if err := json.Unmarshal(decode(t, rec).Data, &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].File != models.FileAssociation || recs[0].StartDate != "2025-01-01" {
		t.Errorf("manifest = %+v", recs)
	}
}

func TestRefresh_InvalidatesCachedPage(t *testing.T) {
	t.Parallel()
	upstream := newFakeUpstream(t, "20")
	env := newLiveEnv(t, upstream)

	if rec := env.do(t, http.MethodPost, "/api/v1/pages/association/refresh", `{"token":"t"}`); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := sharedTraffic(t, env.do(t, http.MethodGet, "/api/v1/pages/association", "")); got != 130 {
		t.Fatalf("before = %v, want 130", got)
	}

	upstream.setShared(t, "120")
	if got := sharedTraffic(t, env.do(t, http.MethodGet, "/api/v1/pages/association", "")); got != 130 {
		t.Fatalf("cached = %v, want 130 until the next refresh", got)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/pages/association/refresh", `{"token":"t"}`); rec.Code != http.StatusOK {
		t.Fatalf("second refresh status = %d", rec.Code)
	}
	if got := sharedTraffic(t, env.do(t, http.MethodGet, "/api/v1/pages/association", "")); got != 230 {
		t.Errorf("after = %v, want 230", got)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	t.Parallel()
	upstream := newFakeUpstream(t, "20")
	env := newLiveEnv(t, upstream)

	expectError(t, env.do(t, http.MethodPost, "/api/v1/pages/association/refresh", `{}`), http.StatusUnauthorized, ErrCodeUnauthorized)
	if n := upstream.calls.Load(); n != 0 {
		t.Errorf("upstream called %d times without a token", n)
	}
}

func TestWebSocket_ReceivesRefreshProgress(t *testing.T) {
	t.Parallel()
	env := newLiveEnv(t, newFakeUpstream(t, "20"))

	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?page=association"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}}); err == nil {
		t.Fatal("foreign origin accepted")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://dash.example"}})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for env.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/api/v1/pages/association/refresh", "application/json", strings.NewReader(`{"token":"t"}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var types []string
	for {
		var m ws.Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("ReadJSON after %v: %v", types, err)
		}
		if m.Page != models.PageAssociation {
			t.Errorf("message for page %q", m.Page)
		}
		types = append(types, m.Type)
		if m.Type == ws.MessageTypeRefreshCompleted {
			break
		}
	}
	if len(types) < 3 || types[0] != ws.MessageTypeProgress {
		t.Errorf("message types = %v, want progress events then %s", types, ws.MessageTypeRefreshCompleted)
	}
}
