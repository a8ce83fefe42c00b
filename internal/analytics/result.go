// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package analytics turns the report files of the data directory into page
// results: KPIs and chart specifications for the customer, association,
// performance, time period and traffic pages.
//
// Each page has a pure Build function that takes the loaded tables and a
// Service that loads the files, caches results and records timings.
package analytics

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
)

// ErrEmptyData is returned when a page has no rows left to show.
var ErrEmptyData = errors.New("no data to display")

// ColumnError reports required columns absent from a report file.
type ColumnError struct {
	File    string
	Missing []string
	Found   []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing columns %s (found: %s)",
		e.File, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// KPI is one headline number.
type KPI struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// Option is one choice of a page selector.
type Option struct {
	Label  string `json:"label"`
	Column string `json:"column"`
}

// Result is a computed page.
type Result struct {
	Page     models.Page     `json:"page"`
	Title    string          `json:"title"`
	KPIs     []KPI           `json:"kpis"`
	Charts   []*charts.Chart `json:"charts"`
	Options  []Option        `json:"options,omitempty"`
	Selected string          `json:"selected,omitempty"`
	// Notices are non-fatal problems, e.g. a chart skipped for a missing
	// column.
	Notices []string `json:"notices,omitempty"`
}

// Chart returns the chart with id, or nil.
func (r *Result) Chart(id string) *charts.Chart {
	for _, c := range r.Charts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *Result) add(c *charts.Chart) {
	if c != nil {
		r.Charts = append(r.Charts, c)
	}
}

func (r *Result) notice(format string, args ...interface{}) {
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

var printer = message.NewPrinter(language.English)

// countKPI builds a KPI shown as a whole number with thousands separators.
func countKPI(id, label string, v float64) KPI {
	return KPI{ID: id, Label: label, Value: v, Display: printer.Sprintf("%d", int64(v))}
}

// titleCaser upper-cases the first letter of every word and lowers the
// rest, so "store area" and "STORE AREA" both read "Store Area".
var titleCaser = cases.Title(language.Und)

// titleHeader trims and title-cases an export header.
func titleHeader(h string) string {
	return titleCaser.String(strings.TrimSpace(h))
}
