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
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// Time period columns.
const (
	ColWeekly = "Weekly"
	ColTotal  = "Total"

	// colWeekDay holds the English day name of Weekly, "" when Weekly is
	// not a day.
	colWeekDay = "_weekday"
	colFlowIn  = "Flow In"
	colFlowOut = "Flow Out"
)

// Series colours of the time period lines.
const (
	colorWeekday = "#00b4d8"
	colorWeekend = "#f77f00"
)

// HourColumns returns the hour-range headers of df ("00:00~00:59" and so
// on) in file order.
func HourColumns(df dataframe.DataFrame) []string {
	var hours []string
	for _, c := range df.Names() {
		if strings.Contains(c, "~") {
			hours = append(hours, c)
		}
	}
	return hours
}

// TimePeriodData is the three time period exports with their numeric
// columns converted.
type TimePeriodData struct {
	Traffic dataframe.DataFrame
	FlowIn  dataframe.DataFrame
	FlowOut dataframe.DataFrame
	Hours   []string
}

// LoadTimePeriod checks the Weekly and Total columns. Headers arrive
// trimmed from storage.
func LoadTimePeriod(traffic, flowIn, flowOut dataframe.DataFrame) (*TimePeriodData, error) {
	if missing := storage.MissingColumns(traffic, ColWeekly, ColTotal); len(missing) > 0 {
		return nil, &ColumnError{File: models.FileTimeTraffic, Missing: missing, Found: traffic.Names()}
	}
	if missing := storage.MissingColumns(flowIn, ColTotal); len(missing) > 0 {
		return nil, &ColumnError{File: models.FileTimeFlowIn, Missing: missing, Found: flowIn.Names()}
	}
	if missing := storage.MissingColumns(flowOut, ColTotal); len(missing) > 0 {
		return nil, &ColumnError{File: models.FileTimeFlowOut, Missing: missing, Found: flowOut.Names()}
	}
	if traffic.Nrow() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrEmptyData, models.FileTimeTraffic)
	}

	hours := HourColumns(traffic)
	traffic = storage.Numeric(traffic, append([]string{ColTotal}, hours...)...)
	days := make([]string, traffic.Nrow())
	for i, w := range strs(traffic, ColWeekly) {
		if idx := weekIndex(w); idx >= 0 {
			days[i] = WeekOrder[idx]
		}
	}
	traffic = traffic.Mutate(series.New(days, series.String, colWeekDay))
	if traffic.Err != nil {
		return nil, traffic.Err
	}
	return &TimePeriodData{
		Traffic: traffic,
		FlowIn:  storage.Numeric(flowIn, ColTotal),
		FlowOut: storage.Numeric(flowOut, ColTotal),
		Hours:   hours,
	}, nil
}

// KPIs are the Total sums of the three files.
func (d *TimePeriodData) KPIs() []KPI {
	return []KPI{
		countKPI("total_traffic", "Total Traffic (Customer)", total(d.Traffic, ColTotal)),
		countKPI("total_flow_in", "Total Flow In", total(d.FlowIn, ColTotal)),
		countKPI("total_flow_out", "Total Flow Out", total(d.FlowOut, ColTotal)),
	}
}

// byDay sums cols per day name, days in week order. Rows whose Weekly is
// not a day name are left out.
func byDay(df dataframe.DataFrame, cols ...string) (dataframe.DataFrame, error) {
	df = storage.FillNA(df, 0, cols...)
	sums, err := aggregate(df, []string{colWeekDay}, dataframe.Aggregation_SUM, cols...)
	if err != nil {
		return sums, err
	}
	sums = arrangeBy(sums, colWeekDay, weekIndex)
	return sums, sums.Err
}

// Heatmap sums visitors per day and hour.
func (d *TimePeriodData) Heatmap() (*charts.Chart, error) {
	if len(d.Hours) == 0 {
		return nil, nil
	}
	sums, err := byDay(d.Traffic, d.Hours...)
	if err != nil || sums.Nrow() == 0 {
		return nil, err
	}
	h := &charts.Heatmap{
		X: append([]string(nil), d.Hours...),
		Y: strs(sums, colWeekDay),
		Z: make([][]float64, sums.Nrow()),
	}
	for i := range h.Z {
		h.Z[i] = make([]float64, len(d.Hours))
	}
	for j, hour := range d.Hours {
		for i, v := range floatCol(sums, aggCol(hour, dataframe.Aggregation_SUM)) {
			h.Z[i][j] = v
		}
	}
	c := charts.NewHeatmap("heatmap", "Distribusi Kepadatan Pengunjung per Hari & Jam", h)
	c.XLabel = "Jam"
	c.YLabel = "Hari"
	c.ColorScale = "YlOrRd"
	return c, nil
}

// hourMeans averages each hour column of rows. Blank cells are skipped; ok
// is false when rows is empty.
func (d *TimePeriodData) hourMeans(rows dataframe.DataFrame) (means []float64, ok bool) {
	means = make([]float64, len(d.Hours))
	for j, hour := range d.Hours {
		means[j], _ = mean(rows, hour)
	}
	return means, rows.Nrow() > 0
}

// HourlyAverage is the mean of every hour column over all rows.
func (d *TimePeriodData) HourlyAverage() *charts.Chart {
	if len(d.Hours) == 0 {
		return nil
	}
	means, _ := d.hourMeans(d.Traffic)
	c := charts.NewLine("hourly_average", "Rata-rata Pengunjung per Jam (Agregasi Mingguan)", d.Hours,
		charts.Series{Name: "Visitors", Color: colorWeekday, Values: means})
	c.XLabel = "Hour"
	c.YLabel = "Visitors"
	return c
}

// positional returns the Total column of flow aligned to n traffic rows:
// extra rows are dropped and missing ones read 0.
func positional(flow dataframe.DataFrame, n int, name string) series.Series {
	vals := make([]float64, n)
	copy(vals, storage.FillNA(flow, 0, ColTotal).Col(ColTotal).Float())
	return series.New(vals, series.Float, name)
}

// DailyTotals compares Total per day across the three files. Flow rows are
// matched to traffic rows by position.
func (d *TimePeriodData) DailyTotals() (*charts.Chart, error) {
	n := d.Traffic.Nrow()
	df := d.Traffic.Select([]string{colWeekDay, ColTotal}).
		Mutate(positional(d.FlowIn, n, colFlowIn)).
		Mutate(positional(d.FlowOut, n, colFlowOut))
	if df.Err != nil {
		return nil, df.Err
	}
	sums, err := byDay(df, ColTotal, colFlowIn, colFlowOut)
	if err != nil || sums.Nrow() == 0 {
		return nil, err
	}
	c := charts.NewMultiBar("daily_totals", "Total Kunjungan per Hari (Perbandingan Metrik)", false, strs(sums, colWeekDay),
		charts.Series{Name: "Traffic (Customer)", Values: floatCol(sums, aggCol(ColTotal, dataframe.Aggregation_SUM))},
		charts.Series{Name: colFlowIn, Values: floatCol(sums, aggCol(colFlowIn, dataframe.Aggregation_SUM))},
		charts.Series{Name: colFlowOut, Values: floatCol(sums, aggCol(colFlowOut, dataframe.Aggregation_SUM))},
	)
	c.XLabel = ColWeekly
	c.YLabel = "Jumlah"
	return c, nil
}

// WeekdayWeekend overlays the hourly means of Monday to Friday against
// Saturday and Sunday. A side with no rows is left out.
func (d *TimePeriodData) WeekdayWeekend() *charts.Chart {
	if len(d.Hours) == 0 {
		return nil
	}
	weekday := keep(d.Traffic, colWeekDay, func(el series.Element) bool {
		w := weekIndex(el.String())
		return w >= 0 && w < 5
	})
	weekend := keep(d.Traffic, colWeekDay, func(el series.Element) bool {
		return weekIndex(el.String()) >= 5
	})
	var lines []charts.Series
	if means, ok := d.hourMeans(weekday); ok {
		lines = append(lines, charts.Series{Name: "Weekday", Color: colorWeekday, Values: means})
	}
	if means, ok := d.hourMeans(weekend); ok {
		lines = append(lines, charts.Series{Name: "Weekend", Color: colorWeekend, Values: means})
	}
	if len(lines) == 0 {
		return nil
	}
	c := charts.NewLine("weekday_weekend", "Pola Kunjungan Customer: Weekday vs Weekend", d.Hours, lines...)
	c.XLabel = "Hour"
	c.YLabel = "Visitors"
	return c
}

// BuildTimePeriod computes the time period page.
func BuildTimePeriod(traffic, flowIn, flowOut dataframe.DataFrame) (*Result, error) {
	d, err := LoadTimePeriod(traffic, flowIn, flowOut)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Page:  models.PageTimePeriod,
		Title: "Time Period & Flow Analysis",
		KPIs:  d.KPIs(),
	}
	if len(d.Hours) == 0 {
		res.notice("Kolom jam (cth: '00:00~00:59') tidak ditemukan di file traffic.")
	}
	heat, err := d.Heatmap()
	if err != nil {
		return nil, err
	}
	daily, err := d.DailyTotals()
	if err != nil {
		return nil, err
	}
	res.add(heat)
	res.add(d.HourlyAverage())
	res.add(daily)
	res.add(d.WeekdayWeekend())
	return res, nil
}
