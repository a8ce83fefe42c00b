// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package storage

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func mustFrame(t *testing.T, header []string, rows ...[]string) dataframe.DataFrame {
	t.Helper()
	df, err := NewFrame(header, rows)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return df
}

func TestStore_WriteReadCSV(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	in := mustFrame(t, []string{"countDate", "siteName", "one_Man"},
		[]string{"2025-01-02", "Mall A", "12"},
		[]string{"2025-01-03", "Mall A", ""},
	)
	if err := s.WriteCSV("customer_profile.csv", in); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	out, err := s.ReadCSV("customer_profile.csv")
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if out.Nrow() != 2 {
		t.Fatalf("Nrow = %d, want 2", out.Nrow())
	}
	men := Numeric(out, "one_Man").Col("one_Man")
	if men.Elem(0).Float() != 12 {
		t.Errorf("one_Man[0] = %v, want 12", men.Elem(0).Float())
	}
	if !men.Elem(1).IsNA() {
		t.Error("empty cell parsed as a number")
	}
}

func TestDecodeCSV_TrimsHeaderAndBOM(t *testing.T) {
	t.Parallel()

	df, err := DecodeCSV([]byte("\xef\xbb\xbf Weekly , Total \nMonday,10\nSunday\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !HasColumns(df, "Weekly", "Total") {
		t.Errorf("columns = %q", df.Names())
	}
	if got := df.Col("Total").Records(); len(got) != 2 || got[1] != "" {
		t.Errorf("ragged row not padded: %q", got)
	}
}

func TestStore_Missing(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	if err := s.WriteFile("a.xlsx", []byte("x")); err != nil {
		t.Fatal(err)
	}
	missing := s.Missing("a.xlsx", "b.xlsx", "c.csv")
	if len(missing) != 2 || missing[0] != "b.xlsx" || missing[1] != "c.csv" {
		t.Errorf("Missing = %v", missing)
	}

	err := s.Require("a.xlsx", "b.xlsx")
	if !errors.Is(err, ErrMissingFiles) {
		t.Fatalf("Require error = %v, want ErrMissingFiles", err)
	}
	var mf *MissingFilesError
	if !errors.As(err, &mf) || len(mf.Files) != 1 || mf.Files[0] != "b.xlsx" {
		t.Errorf("MissingFilesError = %+v", mf)
	}

	if _, err := s.ReadCSV("nope.csv"); !errors.Is(err, ErrMissingFiles) {
		t.Errorf("ReadCSV missing error = %v", err)
	}
}

func TestStore_WriteFileLeavesNoTemp(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	for i := 0; i < 3; i++ {
		if err := s.WriteFile("gate_flow.xlsx", []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	in := mustFrame(t, []string{"Site ", "Customer", "Flow (in)", "Flow  (out)"},
		[]string{"Zone A", "120", "60", "58"},
		[]string{"", "", "", ""},
		[]string{"Zone B", "80.5", "40", "39"},
	)

	data, err := EncodeXLSX(in, "Datas")
	if err != nil {
		t.Fatalf("EncodeXLSX() error = %v", err)
	}
	if err := s.WriteFile("area_traffic.xlsx", data); err != nil {
		t.Fatal(err)
	}

	out, err := s.ReadXLSX("area_traffic.xlsx", "Datas")
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if !HasColumns(out, "Site", "Flow  (out)") {
		t.Errorf("columns = %q", out.Names())
	}
	if out.Nrow() != 2 {
		t.Fatalf("Nrow = %d, want 2 (blank row skipped)", out.Nrow())
	}
	if v := Numeric(out, "Customer").Col("Customer").Elem(1).Float(); v != 80.5 {
		t.Errorf("Customer = %v, want 80.5", v)
	}

	if _, err := s.ReadXLSX("area_traffic.xlsx", "Nope"); !errors.Is(err, ErrUnreadable) {
		t.Errorf("unknown sheet err = %v, want ErrUnreadable", err)
	}
	first, err := s.ReadXLSX("area_traffic.xlsx", "")
	if err != nil || first.Nrow() != 2 {
		t.Errorf("first sheet read = %v, %v", first, err)
	}
}

func TestStore_ReadXLSX_NotAWorkbook(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	if err := s.WriteFile("gate_flow.xlsx", []byte(`{"code":401,"msg":"token expired"}`)); err != nil {
		t.Fatal(err)
	}
	_, err := s.ReadXLSX("gate_flow.xlsx", "")
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("err = %v, want ErrUnreadable", err)
	}
	if errors.Is(err, ErrMissingFiles) {
		t.Error("unreadable file reported as missing")
	}
}

func TestRenameAndMissingColumns(t *testing.T) {
	t.Parallel()

	in := mustFrame(t, []string{"countDate", "siteName"}, []string{"2025-01-02", "Mall A"})
	df, err := RenameColumns(in, map[string]string{"countDate": "Date", "siteName": "Site", "other": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !HasColumns(df, "Date", "Site") {
		t.Errorf("columns = %q", df.Names())
	}
	if !HasColumns(in, "countDate") {
		t.Error("rename modified the source frame")
	}
	if m := MissingColumns(df, "Date", "Weather", "Site", "Humidity"); len(m) != 2 || m[0] != "Weather" {
		t.Errorf("MissingColumns = %v", m)
	}
}

func TestNumericAndFillNA(t *testing.T) {
	t.Parallel()

	df := mustFrame(t, []string{"Site", "Customer"},
		[]string{"A", "10"},
		[]string{"B", "n/a"},
		[]string{"C", ""},
	)
	df = Numeric(df, "Customer", "Absent")
	if df.Col("Customer").Type() != series.Float {
		t.Fatalf("Customer type = %v", df.Col("Customer").Type())
	}
	got := df.Col("Customer").Float()
	if got[0] != 10 || !math.IsNaN(got[1]) || !math.IsNaN(got[2]) {
		t.Errorf("Customer = %v", got)
	}

	filled := FillNA(df, 0, "Customer").Col("Customer")
	if filled.Sum() != 10 || filled.Elem(2).IsNA() {
		t.Errorf("filled = %v", filled.Float())
	}
}

func TestFloatSeries_NaNIsNA(t *testing.T) {
	t.Parallel()

	s := FloatSeries("x", []float64{1, math.NaN()})
	if s.Elem(0).IsNA() || !s.Elem(1).IsNA() {
		t.Errorf("NA flags = %v, %v", s.Elem(0).IsNA(), s.Elem(1).IsNA())
	}
}

func TestNewFrame_NoColumns(t *testing.T) {
	t.Parallel()

	if _, err := NewFrame(nil, nil); err == nil {
		t.Error("frame without columns accepted")
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 3.5 ", 3.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNumber(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestManifest_PutGetList(t *testing.T) {
	t.Parallel()

	m, err := OpenManifest("")
	if err != nil {
		t.Fatalf("OpenManifest() error = %v", err)
	}
	defer func() { _ = m.Close() }()
	ctx := context.Background()

	if _, err := m.Get(ctx, "gate_flow.xlsx"); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("Get on empty manifest = %v", err)
	}

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, f := range []string{"gate_flow.xlsx", "area_traffic.xlsx"} {
		rec := &FetchRecord{ID: f, File: f, Page: "traffic", Bytes: 10, FetchedAt: now}
		if err := m.Put(ctx, rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	if err := m.Put(ctx, &FetchRecord{File: "gate_flow.xlsx", Page: "traffic", Bytes: 99, FetchedAt: now}); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get(ctx, "gate_flow.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if got.Bytes != 99 || !got.FetchedAt.Equal(now) {
		t.Errorf("Get = %+v", got)
	}

	all, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].File != "area_traffic.xlsx" {
		t.Errorf("List = %+v", all)
	}
}
