// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/footfall/internal/analytics"
	"github.com/tomtom215/footfall/internal/validation"
)

func TestPageQuery_Query(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   analytics.Query
	}{
		{"/x", analytics.Query{Reduction: analytics.ReductionTSNE}},
		{"/x?k=4&method=PCA", analytics.Query{K: 4, Reduction: analytics.ReductionPCA}},
		{"/x?method=t-sne", analytics.Query{Reduction: analytics.ReductionTSNE}},
		{"/x?metric=Lift", analytics.Query{Metric: "Lift", Reduction: analytics.ReductionTSNE}},
	}
	for _, tt := range tests {
		q, err := parsePageQuery(httptest.NewRequest("GET", tt.target, nil))
		if err != nil {
			t.Errorf("%s: %v", tt.target, err)
			continue
		}
		if got := q.Query(); got != tt.want {
			t.Errorf("%s: query = %+v, want %+v", tt.target, got, tt.want)
		}
	}
}

func TestRefreshRequest_Params(t *testing.T) {
	t.Parallel()

	p, err := RefreshRequest{Token: "t", StartDate: "2025-01-02"}.Params()
	if err != nil {
		t.Fatal(err)
	}
	if p.StartDate.Day() != 2 || !p.EndDate.IsZero() {
		t.Errorf("dates = %v..%v", p.StartDate, p.EndDate)
	}

	_, err = RefreshRequest{StartDate: "2025-13-01"}.Params()
	var verr *validation.RequestValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "start_date" {
		t.Errorf("err = %v, want start_date validation error", err)
	}
}

func TestParseImageSize(t *testing.T) {
	t.Parallel()

	s, err := parseImageSize(httptest.NewRequest("GET", "/x?width=800", nil))
	if err != nil || s.Width != 800 || s.Height != 0 {
		t.Errorf("size = %+v, err = %v", s, err)
	}
	for _, target := range []string{"/x?width=abc", "/x?height=5000", "/x?width=10"} {
		if _, err := parseImageSize(httptest.NewRequest("GET", target, nil)); err == nil {
			t.Errorf("%s accepted", target)
		}
	}
}
