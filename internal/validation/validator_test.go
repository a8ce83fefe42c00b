// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Token     string `json:"token" validate:"required"`
	StartDate string `json:"start_date" validate:"omitempty,isodate"`
	Page      string `json:"page" validate:"omitempty,page"`
	Method    string `json:"method" validate:"omitempty,reduction"`
	K         int    `json:"k" validate:"omitempty,gte=2,lte=8"`
	SiteCode  string `json:"site_code" validate:"omitempty,max=8"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        sample
		wantField string
		wantMsg   string
	}{
		{"valid", sample{Token: "Bearer x", StartDate: "2024-06-03", Page: "traffic", Method: "PCA", K: 4}, "", ""},
		{"missing token", sample{}, "token", "token is required"},
		{"bad date", sample{Token: "x", StartDate: "2024/06/03"}, "start_date", "start_date must be a date in YYYY-MM-DD format"},
		{"impossible date", sample{Token: "x", StartDate: "2024-02-30"}, "start_date", ""},
		{"unknown page", sample{Token: "x", Page: "home"}, "page", ""},
		{"unknown method", sample{Token: "x", Method: "umap"}, "method", "method must be pca or tsne"},
		{"k too large", sample{Token: "x", K: 9}, "k", "k must be less than or equal to 8"},
		{"long site code", sample{Token: "x", SiteCode: "123456789"}, "site_code", "site_code must be at most 8 characters"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(&tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *RequestValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *RequestValidationError", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.wantField {
				t.Fatalf("fields = %+v, want %s", verr.Fields, tt.wantField)
			}
			if tt.wantMsg != "" && verr.Fields[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", verr.Fields[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_Multiple(t *testing.T) {
	t.Parallel()

	err := Struct(&sample{StartDate: "bad", K: 1})
	var verr *RequestValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("fields = %+v", verr.Fields)
	}
	if !strings.Contains(verr.Error(), "token is required") || !strings.Contains(verr.Error(), "; ") {
		t.Errorf("Error() = %q", verr.Error())
	}
	if _, ok := verr.Details()["fields"]; !ok {
		t.Error("Details has no fields")
	}
}
