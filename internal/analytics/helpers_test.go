// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/tomtom215/footfall/internal/storage"
)

func newFrame(cols []string, rows ...[]string) dataframe.DataFrame {
	df, err := storage.NewFrame(cols, rows)
	if err != nil {
		panic(err)
	}
	return df
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func assertFloats(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func assertStrings(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %q, want %q", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %q, want %q", name, i, got[i], want[i])
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-06-03", true},
		{"2024/06/03", true},
		{"2024-06-03 08:30:00", true},
		{"2024-06-03T08:30:00Z", true},
		{"45446", true},
		{" 2024-06-03 ", true},
		{"", false},
		{"tomorrow", false},
		{"-5", false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestWeekIndex(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"Monday": 0, "sunday": 6, " Friday ": 4, "Total": -1, "": -1}
	for in, want := range tests {
		if got := weekIndex(in); got != want {
			t.Errorf("weekIndex(%q) = %d, want %d", in, got, want)
		}
	}
	if got := dayIndex(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)); got != 6 {
		t.Errorf("dayIndex(Sunday) = %d, want 6", got)
	}
}

func TestCountKPI_Display(t *testing.T) {
	t.Parallel()

	k := countKPI("x", "X", 1234567.9)
	if k.Display != "1,234,567" {
		t.Errorf("Display = %q, want 1,234,567", k.Display)
	}
}

func TestTitleHeader(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"store area":          "Store Area",
		"  TEND TO BUY ":      "Tend To Buy",
		"avg. attention time": "Avg. Attention Time",
		"Avg. attention (s)":  "Avg. Attention (S)",
	}
	for in, want := range tests {
		if got := titleHeader(in); got != want {
			t.Errorf("titleHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
