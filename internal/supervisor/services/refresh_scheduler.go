// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/models"
)

// Refresher runs one page refresh. *sync.Fetcher satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, page models.Page, params models.FetchParams) (*models.RefreshResult, error)
}

// RefreshSchedulerConfig configures scheduled refreshes.
type RefreshSchedulerConfig struct {
	// Spec is a standard five field cron expression or a descriptor such
	// as "@daily" or "@every 1h".
	Spec  string
	Token string
	// LookbackDays widens the range to today-LookbackDays..today.
	LookbackDays int
	// Pages to refresh, every page when empty.
	Pages []models.Page
	// StopTimeout bounds the wait for a running refresh on shutdown.
	StopTimeout time.Duration
	// Now is the clock, time.Now when nil.
	Now func() time.Time
}

// RefreshScheduler refreshes pages on a cron schedule. Overlapping runs
// are skipped.
type RefreshScheduler struct {
	refresher Refresher
	schedule  cron.Schedule
	cfg       RefreshSchedulerConfig
}

// NewRefreshScheduler parses cfg.Spec.
func NewRefreshScheduler(refresher Refresher, cfg RefreshSchedulerConfig) (*RefreshScheduler, error) {
	if refresher == nil {
		return nil, errors.New("refresher is required")
	}
	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", cfg.Spec, err)
	}
	if len(cfg.Pages) == 0 {
		for _, info := range models.Pages() {
			cfg.Pages = append(cfg.Pages, info.Page)
		}
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RefreshScheduler{refresher: refresher, schedule: schedule, cfg: cfg}, nil
}

// Next returns the first run after t.
func (s *RefreshScheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Params returns the fetch parameters of a run starting now.
func (s *RefreshScheduler) Params() models.FetchParams {
	now := s.cfg.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return models.FetchParams{
		Token:     s.cfg.Token,
		StartDate: today.AddDate(0, 0, -s.cfg.LookbackDays),
		EndDate:   today,
	}
}

// RunOnce refreshes every configured page in order. A failed page does not
// stop the others; the failures are joined into the returned error.
func (s *RefreshScheduler) RunOnce(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx).With().Str("component", "refresh-scheduler").Logger()
	params := s.Params()

	var errs []error
	for _, page := range s.cfg.Pages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		res, err := s.refresher.Refresh(ctx, page, params)
		if err != nil {
			logger.Warn().Err(err).Str("page", string(page)).Msg("Scheduled refresh failed")
			errs = append(errs, fmt.Errorf("%s: %w", page, err))
			continue
		}
		logger.Info().
			Str("page", string(page)).
			Int("steps", len(res.Steps)).
			Dur("took", time.Since(start)).
			Msg("Scheduled refresh complete")
	}
	return errors.Join(errs...)
}

// Serve implements suture.Service.
func (s *RefreshScheduler) Serve(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.RunOnce(ctx)
	}))
	c.Start()
	logging.Info().
		Str("spec", s.cfg.Spec).
		Time("next", s.Next(s.cfg.Now())).
		Int("pages", len(s.cfg.Pages)).
		Msg("Refresh scheduler started")

	<-ctx.Done()

	stopped := c.Stop()
	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()
	select {
	case <-stopped.Done():
	case <-timer.C:
		logging.Warn().Msg("Refresh scheduler stopped with a refresh still running")
	}
	return ctx.Err()
}

func (s *RefreshScheduler) String() string {
	return "refresh-scheduler"
}

// cronLogger routes cron's own messages to zerolog; its info level is
// per-tick noise and goes to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debug().Str("component", "cron").Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error().Err(err).Str("component", "cron").Fields(keysAndValues).Msg(msg)
}
