// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/storage"
)

// colRank is a scratch column holding a sort rank.
const colRank = "_rank"

func hasValue(el series.Element) bool {
	return !el.IsNA()
}

func hasText(el series.Element) bool {
	return !el.IsNA() && strings.TrimSpace(el.String()) != ""
}

// keep returns the rows of df for which fn holds on col.
func keep(df dataframe.DataFrame, col string, fn func(series.Element) bool) dataframe.DataFrame {
	if df.Err != nil || df.Nrow() == 0 {
		return df
	}
	return df.Filter(dataframe.F{Colname: col, Comparator: series.CompFunc, Comparando: fn})
}

// aggCol is the column GroupBy aggregation writes for col.
func aggCol(col string, t dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", col, t)
}

// aggregate groups df by keys and applies t to every col. Rows with an
// empty key are dropped first; the result has no rows when none is left.
// Group order is unspecified, so callers arrange the result.
func aggregate(df dataframe.DataFrame, keys []string, t dataframe.AggregationType, cols ...string) (dataframe.DataFrame, error) {
	for _, k := range keys {
		df = keep(df, k, hasText)
	}
	if df.Err != nil {
		return df, df.Err
	}
	if df.Nrow() == 0 {
		return dataframe.DataFrame{}, nil
	}
	typs := make([]dataframe.AggregationType, len(cols))
	for i := range typs {
		typs[i] = t
	}
	out := df.GroupBy(keys...).Aggregation(typs, cols)
	return out, out.Err
}

// arrangeBy sorts df by rank(col) ascending, ties keeping row order.
// Rows ranked below zero are dropped.
func arrangeBy(df dataframe.DataFrame, col string, rank func(string) int) dataframe.DataFrame {
	if df.Nrow() == 0 {
		return df
	}
	keys := df.Col(col).Records()
	ranks := make([]int, len(keys))
	for i, k := range keys {
		ranks[i] = rank(k)
	}
	df = df.Mutate(series.New(ranks, series.Int, colRank))
	df = df.Filter(dataframe.F{Colname: colRank, Comparator: series.GreaterEq, Comparando: 0})
	if df.Nrow() == 0 {
		return df
	}
	return df.Arrange(dataframe.Sort(colRank))
}

// total sums col over the rows holding a value; 0 when there are none.
func total(df dataframe.DataFrame, col string) float64 {
	if !storage.HasColumns(df, col) {
		return 0
	}
	kept := keep(df, col, hasValue)
	if kept.Nrow() == 0 {
		return 0
	}
	return kept.Col(col).Sum()
}

// mean averages col over the rows holding a value.
func mean(df dataframe.DataFrame, col string) (float64, bool) {
	if !storage.HasColumns(df, col) {
		return 0, false
	}
	kept := keep(df, col, hasValue)
	if kept.Nrow() == 0 {
		return 0, false
	}
	return kept.Col(col).Mean(), true
}

// floats returns col as numbers, NA as NaN.
func floatCol(df dataframe.DataFrame, col string) []float64 {
	if df.Nrow() == 0 {
		return nil
	}
	return df.Col(col).Float()
}

// strs returns col as trimmed strings, NA as "".
func strs(df dataframe.DataFrame, col string) []string {
	if df.Nrow() == 0 {
		return nil
	}
	s := df.Col(col)
	out := make([]string, s.Len())
	for i := range out {
		if e := s.Elem(i); !e.IsNA() {
			out[i] = strings.TrimSpace(e.String())
		}
	}
	return out
}

// cellValue is the JSON value of one cell: a number when the cell holds
// one, nil for NA, the text otherwise.
func cellValue(s series.Series, i int) interface{} {
	e := s.Elem(i)
	if e.IsNA() {
		return nil
	}
	if s.Type() == series.Float || s.Type() == series.Int {
		return e.Float()
	}
	if v, ok := storage.ParseNumber(e.String()); ok {
		return v
	}
	return e.String()
}

// frameTable renders df as a table chart. decimals, when set, maps a column to
// the decimals its numbers are rounded to.
func frameTable(id, title string, df dataframe.DataFrame, decimals map[string]int) *charts.Chart {
	cols := df.Names()
	rows := make([][]interface{}, df.Nrow())
	for i := range rows {
		rows[i] = make([]interface{}, len(cols))
	}
	for j, name := range cols {
		s := df.Col(name)
		places, rounded := decimals[name]
		for i := range rows {
			v := cellValue(s, i)
			if f, ok := v.(float64); ok && rounded {
				v = round(f, places)
			}
			rows[i][j] = v
		}
	}
	return charts.NewTable(id, title, cols, rows)
}
