// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

type recordedProgress struct {
	mu     gosync.Mutex
	events []models.ProgressEvent
}

func (r *recordedProgress) Publish(ev models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedProgress) snapshot() []models.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ProgressEvent(nil), r.events...)
}

// fakeUpstream serves the report API under /api/en-us/ and the weather
// timeline under /weather/.
type fakeUpstream struct {
	t        *testing.T
	xlsx     []byte
	failPath string

	mu       gosync.Mutex
	referers map[string]string
	payloads map[string]map[string]interface{}
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	df, err := storage.NewFrame([]string{"Site", "Flow (in)"}, [][]string{{"Gate A", "10"}})
	if err != nil {
		t.Fatal(err)
	}
	data, err := storage.EncodeXLSX(df, "Datas")
	if err != nil {
		t.Fatalf("EncodeXLSX: %v", err)
	}
	return &fakeUpstream{
		t:        t,
		xlsx:     data,
		referers: make(map[string]string),
		payloads: make(map[string]map[string]interface{}),
	}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"days":[{"datetime":"2025-01-06","conditions":"Rain","temp":25.1}]}`))
		return
	}

	raw, _ := io.ReadAll(r.Body)
	var payload map[string]interface{}
	_ = json.Unmarshal(raw, &payload)

	f.mu.Lock()
	f.referers[r.URL.Path] = r.Header.Get("Referer")
	f.payloads[r.URL.Path] = payload
	f.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.URL.Path == f.failPath {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":500,"msg":"export failed"}`))
		return
	}
	if r.URL.Path == "/api/en-us/customerPortrait/getAgeAndSexDetail" {
		w.Header().Set("Content-Type", "application/json;charset=utf-8")
		_, _ = w.Write([]byte(`{"msg":{"data":[{"countDate":"2025-01-06","siteName":"Mall","one_Man":4}]}}`))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	_, _ = w.Write(f.xlsx)
}

func newTestFetcher(t *testing.T, up *fakeUpstream, progress ProgressReporter, onRefreshed func(models.Page)) (*Fetcher, *storage.Store, *storage.Manifest) {
	t.Helper()

	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL + "/api/en-us/", Origin: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	weather, err := NewWeatherClient(WeatherConfig{BaseURL: srv.URL + "/weather/"})
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	manifest, err := storage.OpenManifest("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = manifest.Close() })

	f, err := NewFetcher(FetcherConfig{
		Client:   client,
		Weather:  weather,
		Store:    store,
		Manifest: manifest,
		Defaults: Defaults{
			UserID:   "user-1",
			SiteCode: "P00077",
			Location: "Bandung",
			APIKey:   "K",
		},
		Progress:    progress,
		OnRefreshed: onRefreshed,
		Now:         func() time.Time { return time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return f, store, manifest
}

func TestFetcherRefresh_CustomerPage(t *testing.T) {
	t.Parallel()

	up := newFakeUpstream(t)
	progress := &recordedProgress{}
	var refreshed []models.Page
	f, store, manifest := newTestFetcher(t, up, progress, func(p models.Page) { refreshed = append(refreshed, p) })

	res, err := f.Refresh(context.Background(), models.PageCustomer, models.FetchParams{Token: "Bearer abc"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !res.OK || len(res.Steps) != 3 {
		t.Fatalf("result = %+v", res)
	}
	for i, want := range []string{"1/3", "2/3", "3/3"} {
		if res.Steps[i].Step != want || res.Steps[i].Status != models.StepSuccess {
			t.Errorf("step %d = %+v", i, res.Steps[i])
		}
	}
	if res.StartDate != "2025-01-06" || res.EndDate != "2025-01-06" {
		t.Errorf("default range = %s..%s, want today", res.StartDate, res.EndDate)
	}
	if res.CorrelationID == "" {
		t.Error("missing correlation id")
	}

	for _, file := range models.PageCustomer.Files() {
		if !store.Exists(file) {
			t.Errorf("%s not written", file)
		}
	}
	customers, err := store.ReadCSV(models.FileCustomerProfile)
	if err != nil {
		t.Fatal(err)
	}
	if cell(customers, 0, "siteName") != "Mall" || cell(customers, 0, "one_Man") != "4" {
		t.Errorf("customer csv rows = %v", customers.Records())
	}
	weather, err := store.ReadCSV(models.FileWeather)
	if err != nil {
		t.Fatal(err)
	}
	if cell(weather, 0, "conditions") != "Rain" {
		t.Errorf("weather csv rows = %v", weather.Records())
	}

	records, err := manifest.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("manifest records = %d, want 3", len(records))
	}

	if len(refreshed) != 1 || refreshed[0] != models.PageCustomer {
		t.Errorf("OnRefreshed calls = %v", refreshed)
	}

	// running + success for each of three steps
	if got := len(progress.snapshot()); got != 6 {
		t.Errorf("progress events = %d, want 6", got)
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	wantReferer := "/ReportsAnalysis/AccurateFlowS0600/customerPortrait/index.html"
	if ref := up.referers["/api/en-us/customerPortrait/getAgeAndSexDetail"]; len(ref) < len(wantReferer) || ref[len(ref)-len(wantReferer):] != wantReferer {
		t.Errorf("customer referer = %q", ref)
	}
	dwell := up.payloads["/api/en-us/SelfAccess/selfDataExport"]
	if dwell["menuId"] != "4000101" || dwell["userId"] != "user-1" {
		t.Errorf("dwell payload = %v", dwell)
	}
	params, _ := dwell["params"].(map[string]interface{})
	if params["beginDate"] != "2025/01/06" {
		t.Errorf("dwell beginDate = %v, want slash date", params["beginDate"])
	}
}

// Not parallel: swaps the global logger.
func TestFetcherRefresh_LogsWithComponent(t *testing.T) {
	var buf bytes.Buffer
	old := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(old)

	f, _, _ := newTestFetcher(t, newFakeUpstream(t), nil, nil)
	ctx := logging.ContextWithRequestID(context.Background(), "req-9")
	if _, err := f.Refresh(ctx, models.PageCustomer, models.FetchParams{Token: "Bearer abc"}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var weatherLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "Weather timeline fetched") {
			weatherLine = line
		}
	}
	for _, want := range []string{`"component":"sync"`, `"page":"customer"`, `"request_id":"req-9"`, `"correlation_id":"`} {
		if !strings.Contains(weatherLine, want) {
			t.Errorf("weather log line %q missing %s", weatherLine, want)
		}
	}
}

func TestFetcherRefresh_StepFailureContinues(t *testing.T) {
	t.Parallel()

	up := newFakeUpstream(t)
	up.failPath = "/api/en-us/TimePeriodFlow/CustomerFlowSumDetailExportData"
	called := false
	f, store, _ := newTestFetcher(t, up, nil, func(models.Page) { called = true })

	res, err := f.Refresh(context.Background(), models.PageTimePeriod, models.FetchParams{
		Token:     "Bearer abc",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v, want ErrRefreshFailed", err)
	}
	if res == nil || res.OK {
		t.Fatalf("result = %+v", res)
	}
	wantStatus := []models.StepStatus{models.StepSuccess, models.StepFailed, models.StepFailed}
	for i, want := range wantStatus {
		if res.Steps[i].Status != want {
			t.Errorf("step %d status = %s, want %s", i+1, res.Steps[i].Status, want)
		}
	}
	if !store.Exists(models.FileTimeTraffic) {
		t.Error("successful step file not written")
	}
	if store.Exists(models.FileTimeFlowIn) {
		t.Error("failed step wrote a file")
	}
	if called {
		t.Error("OnRefreshed called after a failed refresh")
	}
}

func TestFetcherRefresh_Validation(t *testing.T) {
	t.Parallel()

	up := newFakeUpstream(t)
	f, _, _ := newTestFetcher(t, up, nil, nil)
	ctx := context.Background()

	if _, err := f.Refresh(ctx, models.Page("nope"), models.FetchParams{Token: "x"}); !errors.Is(err, ErrUnknownPage) {
		t.Errorf("unknown page err = %v", err)
	}
	if _, err := f.Refresh(ctx, models.PageTraffic, models.FetchParams{}); !errors.Is(err, ErrTokenMissing) {
		t.Errorf("missing token err = %v", err)
	}
	_, err := f.Refresh(ctx, models.PageTraffic, models.FetchParams{
		Token:     "Bearer abc",
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Error("expected error for inverted date range")
	}
}

func TestFetcherRefresh_CanceledSkipsSteps(t *testing.T) {
	t.Parallel()

	up := newFakeUpstream(t)
	progress := &recordedProgress{}
	f, _, _ := newTestFetcher(t, up, progress, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.Refresh(ctx, models.PageTraffic, models.FetchParams{Token: "Bearer abc"})
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v", err)
	}
	for _, s := range res.Steps {
		if s.Status != models.StepSkipped {
			t.Errorf("step %s status = %s, want skipped", s.Step, s.Status)
		}
	}
	if len(progress.snapshot()) != 2 {
		t.Errorf("progress events = %d, want 2", len(progress.snapshot()))
	}
}

func TestPageReports(t *testing.T) {
	t.Parallel()

	for _, info := range models.Pages() {
		reports := PageReports(info.Page)
		if len(reports) != len(info.Files) {
			t.Errorf("%s: %d reports for %d files", info.Page, len(reports), len(info.Files))
			continue
		}
		for i, r := range reports {
			if r.File != info.Files[i] {
				t.Errorf("%s step %d file = %s, want %s", info.Page, i+1, r.File, info.Files[i])
			}
		}
	}
	if PageReports("unknown") != nil {
		t.Error("unknown page has reports")
	}
}

func TestReportPayloads(t *testing.T) {
	t.Parallel()

	p := models.FetchParams{
		StartDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
		SiteCode:  "P1",
		UserID:    "U",
	}

	tests := []struct {
		report Report
		path   string
		want   map[string]interface{}
	}{
		{ReportAreaTraffic, "params.SelType", map[string]interface{}{"menuId": "3000102"}},
		{ReportTimeFlowIn, "params.passFlowType", map[string]interface{}{"menuId": float64(2000103)}},
		{ReportPerformance, "params.siteKey", map[string]interface{}{"menuId": float64(3000201)}},
	}
	wantParam := map[string]interface{}{
		"params.SelType":      "400",
		"params.passFlowType": "inSum",
		"params.siteKey":      "P1",
	}

	for _, tt := range tests {
		raw, err := json.Marshal(tt.report.Payload(p))
		if err != nil {
			t.Fatalf("%s: %v", tt.report.Name, err)
		}
		var got map[string]interface{}
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatal(err)
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("%s: %s = %v, want %v", tt.report.Name, k, got[k], v)
			}
		}
		params, _ := got["params"].(map[string]interface{})
		key := tt.path[len("params."):]
		if params[key] != wantParam[tt.path] {
			t.Errorf("%s: %s = %v, want %v", tt.report.Name, tt.path, params[key], wantParam[tt.path])
		}
		if got["userId"] != "U" || got["lang"] != "en-us" {
			t.Errorf("%s: envelope = %v", tt.report.Name, got)
		}
	}

	if ReportTimeTraffic.Payload(p).(menuRequest).Params.(timePeriodParams).PassFlowType != "" {
		t.Error("traffic payload carries a passFlowType")
	}
	if ReportWeather.Payload(p) != nil {
		t.Error("weather has no POST payload")
	}
}
