// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/api"
	"github.com/tomtom215/footfall/internal/cache"
	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/storage"
	"github.com/tomtom215/footfall/internal/supervisor"
	"github.com/tomtom215/footfall/internal/supervisor/services"
	"github.com/tomtom215/footfall/internal/sync"
	ws "github.com/tomtom215/footfall/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("Footfall exited with error")
		os.Exit(1)
	}
}

//nolint:gocyclo // sequential wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("data_dir", cfg.Storage.DataDir).
		Str("upstream", cfg.Upstream.BaseURL).
		Bool("schedule", cfg.Schedule.Enabled).
		Msg("Starting Footfall")

	store, err := storage.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	manifest, err := storage.OpenManifest(cfg.Storage.ManifestDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := manifest.Close(); err != nil {
			logging.Err(err).Msg("Error closing fetch manifest")
		}
	}()

	pageCache := cache.New("pages", cfg.Cache.TTL)
	defer pageCache.Close()
	pages := analytics.NewService(store, pageCache)

	hub := ws.NewHub()

	client, err := sync.NewClient(sync.ClientConfig{
		BaseURL:           cfg.Upstream.BaseURL,
		Origin:            cfg.Upstream.Origin,
		Timeout:           cfg.Upstream.Timeout,
		MaxRetries:        cfg.Upstream.MaxRetries,
		RetryDelay:        cfg.Upstream.RetryDelay,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
	})
	if err != nil {
		return err
	}
	weather, err := sync.NewWeatherClient(sync.WeatherConfig{
		BaseURL:    cfg.Weather.BaseURL,
		Timeout:    cfg.Upstream.Timeout,
		MaxRetries: cfg.Upstream.MaxRetries,
		RetryDelay: cfg.Upstream.RetryDelay,
	})
	if err != nil {
		return err
	}
	fetcher, err := sync.NewFetcher(sync.FetcherConfig{
		Client:   client,
		Weather:  weather,
		Store:    store,
		Manifest: manifest,
		Defaults: sync.Defaults{
			UserID:   cfg.Upstream.UserID,
			SiteCode: cfg.Upstream.SiteCode,
			Location: cfg.Weather.Location,
			APIKey:   cfg.Weather.APIKey,
		},
		Progress:    hub,
		OnRefreshed: pages.Invalidate,
	})
	if err != nil {
		return err
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(api.HandlerConfig{
		Pages:     pages,
		Refresher: fetcher,
		Store:     store,
		Manifest:  manifest,
		Hub:       hub,
		Cache:     pageCache,
		Origins:   cfg.Security.CORSOrigins,
		Version:   version,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.MiddlewareConfigFrom(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Refreshes stream several reports; the write side gets twice the budget.
		WriteTimeout: 2 * cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddBackgroundService(hub)

	if cfg.Schedule.Enabled {
		scheduler, err := services.NewRefreshScheduler(fetcher, services.RefreshSchedulerConfig{
			Spec:         cfg.Schedule.Spec,
			Token:        cfg.Schedule.Token,
			LookbackDays: cfg.Schedule.LookbackDays,
		})
		if err != nil {
			return err
		}
		tree.AddBackgroundService(scheduler)
		logging.Info().Str("spec", cfg.Schedule.Spec).Msg("Refresh scheduler added to supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Footfall stopped")
	return nil
}
