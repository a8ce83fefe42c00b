// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/storage"
)

// WeatherConfig configures WeatherClient.
type WeatherConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// WeatherClient reads daily observations from a timeline weather API.
type WeatherClient struct {
	baseURL        string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	breaker        *circuitBreaker
}

// NewWeatherClient builds a WeatherClient.
func NewWeatherClient(cfg WeatherConfig) (*WeatherClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("weather API base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &WeatherClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/") + "/",
		client:         hc,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryDelay,
		breaker:        newCircuitBreaker("weather-api"),
	}, nil
}

// TimelineURL builds the request URL for location between start and end
// (YYYY-MM-DD, inclusive).
func (w *WeatherClient) TimelineURL(location, start, end, apiKey string) string {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("unitGroup", "metric")
	q.Set("include", "days")
	q.Set("contentType", "json")
	return w.baseURL + url.PathEscape(location) + "/" + start + "/" + end + "?" + q.Encode()
}

// emptyWeatherColumns is the header written when the timeline has no days.
var emptyWeatherColumns = []string{"datetime"}

// Days fetches the daily rows. A reply without a "days" key fails with
// ErrNoData; an empty "days" array gives a frame with no rows.
func (w *WeatherClient) Days(ctx context.Context, location, start, end, apiKey string) (dataframe.DataFrame, error) {
	const report = "weather"
	reqURL := w.TimelineURL(location, start, end, apiKey)

	begin := time.Now()
	result, err := w.breaker.execute(func() (interface{}, error) {
		resp, err := doWithRetry(ctx, w.client, nil, w.maxRetries, w.retryBaseDelay, report, func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		})
		if err != nil {
			return nil, err
		}
		return readResponse(report, resp)
	})
	resp, err := castResult[Response](result, err)
	metrics.RecordUpstreamCall(report, outcome(err), time.Since(begin))
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = logging.SanitizeURL(ue.URL)
		}
		return dataframe.DataFrame{}, fmt.Errorf("weather timeline %s: %w", logging.SanitizeURL(reqURL), err)
	}

	var body struct {
		Days *[]Row `json:"days"`
	}
	if err := decodeNumbers(resp.Body, &body); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("decode weather reply: %w", err)
	}
	if body.Days == nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: weather reply has no days: %s", ErrNoData, quoteReply(resp.Body))
	}

	logging.Ctx(ctx).Debug().Int("days", len(*body.Days)).Str("location", location).Msg("Weather timeline fetched")
	if len(*body.Days) == 0 {
		return storage.NewFrame(emptyWeatherColumns, nil)
	}
	return RowsToFrame(*body.Days)
}
