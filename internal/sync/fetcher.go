// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// ErrUnknownPage is returned for a page with no fetch plan.
var ErrUnknownPage = errors.New("unknown page")

// ErrRefreshFailed is returned when at least one step of a refresh failed.
var ErrRefreshFailed = errors.New("one or more fetch steps failed")

// ProgressReporter receives step events while a refresh runs.
type ProgressReporter interface {
	Publish(ev models.ProgressEvent)
}

// Defaults fill FetchParams fields the caller left empty.
type Defaults struct {
	UserID   string
	SiteCode string
	Location string
	APIKey   string
}

// FetcherConfig wires a Fetcher.
type FetcherConfig struct {
	Client   *Client
	Weather  *WeatherClient
	Store    *storage.Store
	Manifest *storage.Manifest
	Defaults Defaults
	// Progress is optional.
	Progress ProgressReporter
	// OnRefreshed runs after a page refresh in which every step succeeded.
	OnRefreshed func(page models.Page)
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// Fetcher runs page refreshes: every report of the page is fetched and
// written to the data directory. Refreshes of the same page are serialised.
type Fetcher struct {
	client      *Client
	weather     *WeatherClient
	store       *storage.Store
	manifest    *storage.Manifest
	defaults    Defaults
	progress    ProgressReporter
	onRefreshed func(page models.Page)
	now         func() time.Time

	mu    gosync.Mutex
	locks map[models.Page]*gosync.Mutex
}

// NewFetcher validates cfg and builds a Fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Client == nil {
		return nil, errors.New("report client is required")
	}
	if cfg.Weather == nil {
		return nil, errors.New("weather client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("data store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		client:      cfg.Client,
		weather:     cfg.Weather,
		store:       cfg.Store,
		manifest:    cfg.Manifest,
		defaults:    cfg.Defaults,
		progress:    cfg.Progress,
		onRefreshed: cfg.OnRefreshed,
		now:         now,
		locks:       make(map[models.Page]*gosync.Mutex),
	}, nil
}

func (f *Fetcher) pageLock(page models.Page) *gosync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[page]
	if !ok {
		l = &gosync.Mutex{}
		f.locks[page] = l
	}
	return l
}

// withDefaults fills empty params from the configured defaults. A zero date
// range means today..today.
func (f *Fetcher) withDefaults(p models.FetchParams) models.FetchParams {
	if p.UserID == "" {
		p.UserID = f.defaults.UserID
	}
	if p.SiteCode == "" {
		p.SiteCode = f.defaults.SiteCode
	}
	if p.Location == "" {
		p.Location = f.defaults.Location
	}
	if p.APIKey == "" {
		p.APIKey = f.defaults.APIKey
	}
	today := f.now()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if p.StartDate.IsZero() {
		p.StartDate = today
	}
	if p.EndDate.IsZero() {
		p.EndDate = today
	}
	return p
}

// Refresh fetches every report of page. All steps run even when an earlier
// one fails; the result is OK only when each step succeeded, and the error
// is ErrRefreshFailed otherwise. Steps not started because ctx was
// cancelled are reported as skipped.
func (f *Fetcher) Refresh(ctx context.Context, page models.Page, params models.FetchParams) (*models.RefreshResult, error) {
	reports := PageReports(page)
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	params = f.withDefaults(params)
	if params.EndDate.Before(params.StartDate) {
		return nil, fmt.Errorf("end date %s is before start date %s", models.Norm(params.EndDate), models.Norm(params.StartDate))
	}
	if needsToken(reports) {
		if err := CheckToken(params.Token, f.now()); err != nil {
			return nil, err
		}
	}

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	correlationID := logging.CorrelationIDFromContext(ctx)
	lc := logging.WithComponent("sync").With().
		Str("page", string(page)).
		Str("correlation_id", correlationID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	logger := lc.Logger()
	// Client and weather calls below log through ctx.
	ctx = logging.ContextWithLogger(ctx, logger)

	lock := f.pageLock(page)
	lock.Lock()
	defer lock.Unlock()

	result := &models.RefreshResult{
		Page:          page,
		StartDate:     models.Norm(params.StartDate),
		EndDate:       models.Norm(params.EndDate),
		SiteCode:      params.SiteCode,
		Steps:         make([]models.StepResult, 0, len(reports)),
		CorrelationID: correlationID,
	}

	logger.Info().
		Str("start_date", result.StartDate).
		Str("end_date", result.EndDate).
		Str("site_code", params.SiteCode).
		Str("token", logging.SanitizeToken(params.Token)).
		Msg("Page refresh started")

	failed := 0
	for i, r := range reports {
		step := fmt.Sprintf("%d/%d", i+1, len(reports))
		if ctx.Err() != nil {
			result.Steps = append(result.Steps, models.StepResult{
				Step: step, Report: r.Label, File: r.File,
				Status: models.StepSkipped, Error: ctx.Err().Error(),
			})
			f.publish(page, step, r, models.StepSkipped, "", ctx.Err(), correlationID)
			failed++
			continue
		}

		f.publish(page, step, r, models.StepRunning, "Fetching "+r.Label, nil, correlationID)
		start := time.Now()
		n, err := f.runStep(ctx, page, r, params)
		sr := models.StepResult{
			Step:       step,
			Report:     r.Label,
			File:       r.File,
			Bytes:      n,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			failed++
			sr.Status = models.StepFailed
			sr.Error = err.Error()
			logger.Error().Err(err).Str("step", step).Str("report", r.Name).Msg("Fetch step failed")
			f.publish(page, step, r, models.StepFailed, "", err, correlationID)
		} else {
			sr.Status = models.StepSuccess
			logger.Info().Str("step", step).Str("report", r.Name).Int("bytes", n).Msg("Fetch step saved")
			f.publish(page, step, r, models.StepSuccess, fmt.Sprintf("%s saved to %s", r.Label, r.File), nil, correlationID)
		}
		result.Steps = append(result.Steps, sr)
	}

	var err error
	if failed > 0 {
		err = fmt.Errorf("%w: %d of %d", ErrRefreshFailed, failed, len(reports))
	}
	result.OK = err == nil
	metrics.RecordPageRefresh(string(page), err)

	if err != nil {
		logger.Warn().Int("failed_steps", failed).Msg("Page refresh incomplete")
		return result, err
	}
	if f.onRefreshed != nil {
		f.onRefreshed(page)
	}
	logger.Info().Msg("Page refresh complete")
	return result, nil
}

func needsToken(reports []Report) bool {
	for _, r := range reports {
		if r.Kind != KindWeather {
			return true
		}
	}
	return false
}

// runStep fetches one report and writes its file. It returns the bytes
// written.
func (f *Fetcher) runStep(ctx context.Context, page models.Page, r Report, p models.FetchParams) (int, error) {
	var (
		data        []byte
		contentType string
	)

	switch r.Kind {
	case KindWeather:
		days, err := f.weather.Days(ctx, p.Location, models.Norm(p.StartDate), models.Norm(p.EndDate), p.APIKey)
		if err != nil {
			return 0, err
		}
		if data, err = storage.EncodeCSV(days); err != nil {
			return 0, err
		}
		contentType = "text/csv"

	default:
		resp, err := f.client.Post(ctx, Request{
			Report:  r.Name,
			Path:    r.Path,
			Referer: f.referer(r),
			Token:   p.Token,
			Payload: r.Payload(p),
		})
		if err != nil {
			return 0, err
		}
		contentType = resp.ContentType
		if r.Kind == KindRows {
			rows, err := EnvelopeRows(resp)
			if err != nil {
				return 0, err
			}
			if data, err = storage.EncodeCSV(rows); err != nil {
				return 0, err
			}
			contentType = "text/csv"
		} else if data, err = ExpectFile(resp); err != nil {
			return 0, err
		}
	}

	if err := f.store.WriteFile(r.File, data); err != nil {
		return 0, err
	}
	metrics.UpstreamBytesSaved.WithLabelValues(r.File).Add(float64(len(data)))
	f.record(ctx, page, r, p, len(data), contentType)
	return len(data), nil
}

func (f *Fetcher) referer(r Report) string {
	if r.Referer == "" || f.client.origin == "" {
		return ""
	}
	return strings.TrimRight(f.client.origin, "/") + r.Referer
}

// record writes the manifest entry for a saved file. A manifest failure is
// logged, the file itself is already in place.
func (f *Fetcher) record(ctx context.Context, page models.Page, r Report, p models.FetchParams, n int, contentType string) {
	if f.manifest == nil {
		return
	}
	rec := &storage.FetchRecord{
		ID:            uuid.New().String(),
		File:          r.File,
		Report:        r.Name,
		Page:          string(page),
		StartDate:     models.Norm(p.StartDate),
		EndDate:       models.Norm(p.EndDate),
		SiteCode:      p.SiteCode,
		Bytes:         n,
		ContentType:   contentType,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		FetchedAt:     f.now().UTC(),
	}
	if r.Kind == KindWeather {
		rec.SiteCode = ""
	}
	if err := f.manifest.Put(ctx, rec); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("file", r.File).Msg("Failed to record fetch in manifest")
	}
}

func (f *Fetcher) publish(page models.Page, step string, r Report, status models.StepStatus, msg string, err error, correlationID string) {
	if f.progress == nil {
		return
	}
	ev := models.ProgressEvent{
		Page:          page,
		Step:          step,
		Report:        r.Label,
		Status:        status,
		Message:       msg,
		CorrelationID: correlationID,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	f.progress.Publish(ev)
}

// Manifest returns the fetch manifest, nil when none is configured.
func (f *Fetcher) Manifest() *storage.Manifest {
	return f.manifest
}
