// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import (
	"testing"
	"time"
)

func TestParsePage(t *testing.T) {
	t.Parallel()

	for _, info := range Pages() {
		p, err := ParsePage(string(info.Page))
		if err != nil || p != info.Page {
			t.Errorf("ParsePage(%q) = %q, %v", info.Page, p, err)
		}
	}
	if _, err := ParsePage("home"); err == nil {
		t.Error("expected error for unknown page")
	}
}

func TestPages_FilesAndOrder(t *testing.T) {
	t.Parallel()

	got := Pages()
	if len(got) != 5 {
		t.Fatalf("len(Pages()) = %d, want 5", len(got))
	}
	cards := []string{"Customer", "Relation", "Potency", "Period", "Traffic"}
	for i, c := range cards {
		if got[i].Card != c {
			t.Errorf("card %d = %q, want %q", i, got[i].Card, c)
		}
	}
	if files := PageTimePeriod.Files(); len(files) != 3 || files[0] != FileTimeTraffic {
		t.Errorf("timeperiod files = %v", files)
	}

	got[0].Title = "changed"
	if Pages()[0].Title == "changed" {
		t.Error("Pages() exposes internal slice")
	}
}

func TestDateFormats(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	if Norm(d) != "2025-03-07" || Slash(d) != "2025/03/07" {
		t.Errorf("Norm = %s, Slash = %s", Norm(d), Slash(d))
	}
}
