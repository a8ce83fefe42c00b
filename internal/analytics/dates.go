// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/footfall/internal/storage"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// parseDate reads a date cell. Spreadsheet cells arrive as Excel serial
// numbers, CSV cells as text. The result is midnight UTC; ok is false for
// anything unparseable.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	if serial, ok := storage.ParseNumber(s); ok && serial > 0 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DayOrder is the customer page day order, Senin (Monday) to Minggu.
var DayOrder = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}

// dayIndex is the position of t's weekday in DayOrder, Monday first.
func dayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekOrder is the English day order of the time period exports.
var WeekOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekIndex(day string) int {
	day = strings.TrimSpace(day)
	for i, d := range WeekOrder {
		if strings.EqualFold(d, day) {
			return i
		}
	}
	return -1
}
