// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/validation"
)

// maxRefreshBody bounds the refresh request body.
const maxRefreshBody = 64 << 10

// RefreshRequest is the body of POST /api/v1/pages/{page}/refresh. Empty
// optional fields take the configured defaults; empty dates mean today.
type RefreshRequest struct {
	Token     string `json:"token"`
	StartDate string `json:"start_date" validate:"omitempty,isodate"`
	EndDate   string `json:"end_date" validate:"omitempty,isodate"`
	SiteCode  string `json:"site_code" validate:"omitempty,max=64"`
	UserID    string `json:"user_id" validate:"omitempty,max=64"`
	Location  string `json:"location" validate:"omitempty,max=128"`
	APIKey    string `json:"api_key" validate:"omitempty,max=128"`
}

// Params validates r and converts it to fetch parameters.
func (r RefreshRequest) Params() (models.FetchParams, error) {
	if err := validation.Struct(r); err != nil {
		return models.FetchParams{}, err
	}
	p := models.FetchParams{
		Token:    strings.TrimSpace(r.Token),
		SiteCode: r.SiteCode,
		UserID:   r.UserID,
		Location: r.Location,
		APIKey:   r.APIKey,
	}
	if r.StartDate != "" {
		p.StartDate, _ = time.Parse(models.DateLayout, r.StartDate)
	}
	if r.EndDate != "" {
		p.EndDate, _ = time.Parse(models.DateLayout, r.EndDate)
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return models.FetchParams{}, &validation.RequestValidationError{Fields: []validation.FieldError{{
			Field:   "end_date",
			Tag:     "gtefield",
			Param:   "start_date",
			Value:   r.EndDate,
			Message: "end_date must not be before start_date",
		}}}
	}
	return p, nil
}

// PageQuery holds the selectors of GET /api/v1/pages/{page}.
type PageQuery struct {
	WeatherMetric string `json:"weather_metric"`
	Metric        string `json:"metric"`
	K             int    `json:"k" validate:"omitempty,min=2,max=8"`
	Method        string `json:"method" validate:"omitempty,reduction"`
}

// parsePageQuery reads and validates the selectors in r's query string.
func parsePageQuery(r *http.Request) (PageQuery, error) {
	v := r.URL.Query()
	q := PageQuery{
		WeatherMetric: v.Get("weather_metric"),
		Metric:        v.Get("metric"),
		Method:        v.Get("method"),
	}
	var fields []validation.FieldError
	if raw := v.Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, validation.FieldError{Field: "k", Tag: "numeric", Value: raw, Message: "k must be a whole number"})
		}
		q.K = k
	}
	if q.WeatherMetric != "" {
		if _, ok := analytics.MetricOption(q.WeatherMetric); !ok {
			fields = append(fields, validation.FieldError{
				Field: "weather_metric", Tag: "oneof", Value: q.WeatherMetric,
				Message: "weather_metric must be one of " + optionLabels(analytics.WeatherMetrics),
			})
		}
	}
	if q.Metric != "" && !analytics.ValidAssociationMetric(q.Metric) {
		fields = append(fields, validation.FieldError{
			Field: "metric", Tag: "oneof", Value: q.Metric,
			Message: "metric must be one of " + strings.Join(analytics.AssociationMetrics, ", "),
		})
	}
	if len(fields) > 0 {
		return q, &validation.RequestValidationError{Fields: fields}
	}
	if err := validation.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// Query converts q for the analytics service.
func (q PageQuery) Query() analytics.Query {
	red, _ := analytics.ParseReduction(q.Method)
	return analytics.Query{
		WeatherMetric: q.WeatherMetric,
		Metric:        q.Metric,
		K:             q.K,
		Reduction:     red,
	}
}

func optionLabels(opts []analytics.Option) string {
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	return strings.Join(labels, ", ")
}

// ImageSize is the optional width and height of a PNG render.
type ImageSize struct {
	Width  int `json:"width" validate:"omitempty,min=64"`
	Height int `json:"height" validate:"omitempty,min=64"`
}

func parseImageSize(r *http.Request) (ImageSize, error) {
	var s ImageSize
	for _, f := range []struct {
		name string
		dst  *int
		max  int
	}{
		{"width", &s.Width, charts.MaxWidth},
		{"height", &s.Height, charts.MaxHeight},
	} {
		raw := r.URL.Query().Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n > f.max {
			return s, &validation.RequestValidationError{Fields: []validation.FieldError{{
				Field: f.name, Tag: "max", Param: strconv.Itoa(f.max), Value: raw,
				Message: fmt.Sprintf("%s must be a whole number up to %d", f.name, f.max),
			}}}
		}
		*f.dst = n
	}
	if err := validation.Struct(s); err != nil {
		return s, err
	}
	return s, nil
}
