// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package storage

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// NewFrame builds a dataframe of string columns from a header row and data
// rows, the shape a CSV file or a worksheet arrives in. Header names and
// cells are trimmed. Short rows are padded with empty cells and cells past
// the header are dropped.
func NewFrame(header []string, rows [][]string) (dataframe.DataFrame, error) {
	if len(header) == 0 {
		return dataframe.DataFrame{}, errors.New("no columns")
	}
	cols := make([]series.Series, len(header))
	for c, name := range header {
		cells := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				cells[r] = strings.TrimSpace(row[c])
			}
		}
		cols[c] = series.New(cells, series.String, strings.TrimSpace(name))
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

// MissingColumns returns the cols df lacks, in the order given.
func MissingColumns(df dataframe.DataFrame, cols ...string) []string {
	names := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		names[n] = true
	}
	var missing []string
	for _, c := range cols {
		if !names[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// HasColumns reports whether every col is present.
func HasColumns(df dataframe.DataFrame, cols ...string) bool {
	return len(MissingColumns(df, cols...)) == 0
}

// MapColumns returns a copy of df with every header replaced by fn(header).
func MapColumns(df dataframe.DataFrame, fn func(string) string) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, df.Err
	}
	names := df.Names()
	for i, n := range names {
		names[i] = fn(n)
	}
	out := df.Copy()
	if err := out.SetNames(names...); err != nil {
		return df, err
	}
	return out, nil
}

// RenameColumns renames the headers found in mapping; others are kept.
func RenameColumns(df dataframe.DataFrame, mapping map[string]string) (dataframe.DataFrame, error) {
	return MapColumns(df, func(c string) string {
		if n, ok := mapping[c]; ok {
			return n
		}
		return c
	})
}

// Numeric converts the named columns to floats. Empty and non-numeric cells
// become NA; absent columns are skipped.
func Numeric(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	for _, c := range cols {
		if !HasColumns(df, c) {
			continue
		}
		s := df.Col(c)
		if s.Type() == series.Float {
			continue
		}
		vals := make([]float64, s.Len())
		for i := range vals {
			vals[i] = math.NaN()
			if v, ok := ParseNumber(s.Elem(i).String()); ok {
				vals[i] = v
			}
		}
		df = df.Mutate(FloatSeries(c, vals))
	}
	return df
}

// FillNA replaces NA cells of the named float columns with v.
func FillNA(df dataframe.DataFrame, v float64, cols ...string) dataframe.DataFrame {
	for _, c := range cols {
		if !HasColumns(df, c) {
			continue
		}
		vals := df.Col(c).Float()
		for i, x := range vals {
			if math.IsNaN(x) {
				vals[i] = v
			}
		}
		df = df.Mutate(series.New(vals, series.Float, c))
	}
	return df
}

// FloatSeries builds a float column where NaN entries are NA.
func FloatSeries(name string, vals []float64) series.Series {
	cells := make([]interface{}, len(vals))
	for i, v := range vals {
		if !math.IsNaN(v) {
			cells[i] = v
		}
	}
	return series.New(cells, series.Float, name)
}

// ParseNumber converts a cell to float64. Empty, non-numeric and non-finite
// values report ok=false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
