// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/footfall/internal/cache"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// Query carries the selectors of every page; each page reads its own.
type Query struct {
	WeatherMetric string    `json:"weather_metric,omitempty"`
	Metric        string    `json:"metric,omitempty"`
	K             int       `json:"k,omitempty"`
	Reduction     Reduction `json:"reduction,omitempty"`
}

// normalize keeps only the selectors page reads, so equal pages share a
// cache entry.
func (q Query) normalize(page models.Page) Query {
	switch page {
	case models.PageCustomer:
		return Query{WeatherMetric: q.WeatherMetric}
	case models.PageAssociation:
		return Query{Metric: q.Metric}
	case models.PagePerformance:
		if q.K == 0 {
			q.K = DefaultClusters
		}
		if q.Reduction == "" {
			q.Reduction = ReductionTSNE
		}
		return Query{K: q.K, Reduction: q.Reduction}
	}
	return Query{}
}

// Service computes page results from the data directory and caches them
// until the page is refreshed or the entry expires.
type Service struct {
	store *storage.Store
	cache *cache.Cache
	group singleflight.Group
	build func(models.Page, Query) (*Result, error)

	// gen counts invalidations. A result is cached only if no
	// invalidation happened while it was computed; mu orders that check
	// against Invalidate.
	gen atomic.Uint64
	mu  sync.RWMutex
}

// NewService returns a Service reading store. A nil cache disables
// caching.
func NewService(store *storage.Store, c *cache.Cache) *Service {
	s := &Service{store: store, cache: c}
	s.build = s.compute
	return s
}

// Page returns the result of page for q. Missing report files come back as
// a *storage.MissingFilesError.
func (s *Service) Page(ctx context.Context, page models.Page, q Query) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.normalize(page)
	key := cache.GenerateKey(string(page), q)

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if res, ok := v.(*Result); ok {
				return res, nil
			}
		}
	}

	// Requests arriving after an invalidation start a new flight instead of
	// joining one that read the old files.
	gen := s.gen.Load()
	v, err, shared := s.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		start := time.Now()
		res, err := s.build(page, q)
		metrics.AnalyticsComputeDuration.WithLabelValues(string(page)).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		s.keepResult(key, gen, res)
		logging.Ctx(ctx).Debug().
			Str("page", string(page)).
			Int("charts", len(res.Charts)).
			Dur("took", time.Since(start)).
			Msg("page computed")
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Str("page", string(page)).Msg("page computation shared")
	}
	return v.(*Result), nil
}

// keepResult caches res unless an invalidation happened since gen was read.
func (s *Service) keepResult(key string, gen uint64, res *Result) {
	if s.cache == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen.Load() != gen {
		return
	}
	s.cache.Set(key, res)
}

// Invalidate drops every cached result of page. Computations still running
// will not cache their results.
func (s *Service) Invalidate(page models.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Add(1)
	if s.cache == nil {
		return
	}
	n := s.cache.DeletePrefix(string(page) + ":")
	logging.Debug().Str("page", string(page)).Int("entries", n).Msg("page cache invalidated")
}

func (s *Service) compute(page models.Page, q Query) (*Result, error) {
	if err := s.store.Require(page.Files()...); err != nil {
		return nil, err
	}
	switch page {
	case models.PageCustomer:
		frames, err := s.load(models.FileCustomerProfile, models.FileWeather, models.FileDwellTime)
		if err != nil {
			return nil, err
		}
		return BuildCustomer(frames[0], frames[1], frames[2], CustomerOptions{WeatherMetric: q.WeatherMetric})
	case models.PageAssociation:
		frames, err := s.load(models.FileAssociation)
		if err != nil {
			return nil, err
		}
		return BuildAssociation(frames[0], AssociationOptions{Metric: q.Metric})
	case models.PagePerformance:
		frames, err := s.load(models.FilePerformance)
		if err != nil {
			return nil, err
		}
		return BuildPerformance(frames[0], PerformanceOptions{K: q.K, Reduction: q.Reduction})
	case models.PageTimePeriod:
		frames, err := s.load(models.FileTimeTraffic, models.FileTimeFlowIn, models.FileTimeFlowOut)
		if err != nil {
			return nil, err
		}
		return BuildTimePeriod(frames[0], frames[1], frames[2])
	case models.PageTraffic:
		area, err := s.store.ReadXLSX(models.FileAreaTraffic, TrafficSheet)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", models.FileAreaTraffic, err)
		}
		gate, err := s.store.ReadXLSX(models.FileGateFlow, TrafficSheet)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", models.FileGateFlow, err)
		}
		return BuildTraffic(area, gate)
	}
	return nil, fmt.Errorf("unknown page %q", page)
}

// load reads each file by extension, spreadsheets from their first sheet.
func (s *Service) load(names ...string) ([]dataframe.DataFrame, error) {
	frames := make([]dataframe.DataFrame, len(names))
	for i, name := range names {
		var (
			df  dataframe.DataFrame
			err error
		)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx":
			df, err = s.store.ReadXLSX(name, "")
		default:
			df, err = s.store.ReadCSV(name)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		frames[i] = df
	}
	return frames, nil
}
