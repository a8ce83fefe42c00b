// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// AgeBand is one age group with its male and female count columns.
type AgeBand struct {
	Label string
	Man   string
	Woman string
}

// AgeBands lists the age groups of the customer profile export.
var AgeBands = []AgeBand{
	{"Child(0~6 Age)", "one_Man", "one_Woman"},
	{"Young person(7~15 Age)", "two_Man", "two_Woman"},
	{"Teenager(16~35 Age)", "three_Man", "three_Woman"},
	{"Middle age(36~60 Age)", "four_Man", "four_Woman"},
	{"Senility(60< Age)", "five_Man", "five_Woman"},
}

// DwellBins are the dwell histogram columns after renaming.
var DwellBins = []string{"Dwell_≤30s", "Dwell_31~60s", "Dwell_1~2min", "Dwell_2~5min", "Dwell_5~10min", "Dwell_>10min"}

var dwellRenames = map[string]string{
	"Avg. dwell time": "Avg_dwell_time_sec",
	"≤30s":            "Dwell_≤30s",
	"31~60s":          "Dwell_31~60s",
	"1~2min":          "Dwell_1~2min",
	"2~5min":          "Dwell_2~5min",
	"5~10min":         "Dwell_5~10min",
	">10min":          "Dwell_>10min",
}

var weatherRenames = map[string]string{
	"datetime":   "Date",
	"conditions": "Weather",
	"temp":       "Temperature",
	"tempmax":    "Temp_Max",
	"tempmin":    "Temp_Min",
	"humidity":   "Humidity",
	"precip":     "Precipitation",
}

var weatherNumeric = []string{"Temperature", "Temp_Max", "Temp_Min", "Humidity", "Precipitation"}

// WeatherMetrics are the selectable metrics of the weather chart, label to
// column, in display order.
var WeatherMetrics = []Option{
	{"Family Index", "Family_Index"},
	{"Total Pengunjung", "Customer"},
	{"Total Pria", "Male_Total"},
	{"Total Wanita", "Female_Total"},
	{"Anak (0-6 thn)", "Child(0~6 Age)"},
	{"Remaja (7-15 thn)", "Young person(7~15 Age)"},
	{"Dewasa (16-35 thn)", "Teenager(16~35 Age)"},
	{"Paruh Baya (36-60 thn)", "Middle age(36~60 Age)"},
	{"Lansia (>60 thn)", "Senility(60< Age)"},
}

// FamilyCategories bins Family_Index; each category covers (Low, High].
var FamilyCategories = []struct {
	Label     string
	Low, High float64
}{
	{"Low (Sedikit Keluarga)", -0.1, 0.5},
	{"Medium (Campuran)", 0.5, 0.75},
	{"High (Dominasi Keluarga)", 0.75, 1.1},
}

// Customer frame columns.
const (
	colDate           = "Date"
	colSite           = "Site"
	colDayOfWeek      = "DayOfWeek"
	colMaleTotal      = "Male_Total"
	colFemaleTotal    = "Female_Total"
	colWeather        = "Weather"
	colTemperature    = "Temperature"
	colAvgDwellSec    = "Avg_dwell_time_sec"
	colAvgDwellMin    = "Avg_dwell_time_min"
	colTotalDwell     = "Total_Dwell_Counted"
	colBounceRate     = "Bounce_Rate"
	colEngagementRate = "Engagement_Rate"
	colFamilyIndex    = "Family_Index"
	colFamilyCategory = "_family_category"
)

// CustomerData is the customer profile joined with weather and dwell time,
// one row per customer row and matching weather and dwell row. Dates are
// YYYY-MM-DD, "" where the export held no date.
type CustomerData struct {
	Frame dataframe.DataFrame

	// Column presence, as read from the source files.
	ManPresent   [5]bool
	WomanPresent [5]bool
	HasWeather   bool
	HasAvgDwell  bool
	HasRates     bool
}

// isoDates rewrites col as YYYY-MM-DD, "" where the cell is not a date.
func isoDates(df dataframe.DataFrame, col string) dataframe.DataFrame {
	vals := strs(df, col)
	for i, v := range vals {
		vals[i] = ""
		if t, ok := parseDate(v); ok {
			vals[i] = t.Format(models.DateLayout)
		}
	}
	return df.Mutate(series.New(vals, series.String, col))
}

// present returns the cols df holds, in the order given.
func present(df dataframe.DataFrame, cols ...string) []string {
	var out []string
	for _, c := range cols {
		if storage.HasColumns(df, c) {
			out = append(out, c)
		}
	}
	return out
}

// LoadCustomer joins the customer profile, weather and dwell frames and
// derives the customer features. Both joins are left joins: weather on
// Date, dwell on Date and Site.
func LoadCustomer(customer, weather, dwell dataframe.DataFrame) (*CustomerData, error) {
	customer, err := storage.RenameColumns(customer, map[string]string{"countDate": colDate, "siteName": colSite})
	if err != nil {
		return nil, err
	}
	if weather, err = storage.RenameColumns(weather, weatherRenames); err != nil {
		return nil, err
	}
	if dwell, err = storage.RenameColumns(dwell, dwellRenames); err != nil {
		return nil, err
	}

	if missing := storage.MissingColumns(dwell, colDate, colSite); len(missing) > 0 {
		return nil, &ColumnError{File: models.FileDwellTime, Missing: missing, Found: dwell.Names()}
	}
	if missing := storage.MissingColumns(customer, colDate, colSite); len(missing) > 0 {
		return nil, &ColumnError{File: models.FileCustomerProfile, Missing: missing, Found: customer.Names()}
	}
	if customer.Nrow() == 0 {
		return nil, fmt.Errorf("%w: customer profile has no rows", ErrEmptyData)
	}

	d := &CustomerData{
		HasWeather:  storage.HasColumns(weather, colWeather),
		HasAvgDwell: storage.HasColumns(dwell, colAvgDwellSec),
		HasRates:    storage.HasColumns(dwell, DwellBins[0], DwellBins[5]),
	}
	for i, b := range AgeBands {
		d.ManPresent[i] = storage.HasColumns(customer, b.Man)
		d.WomanPresent[i] = storage.HasColumns(customer, b.Woman)
	}

	df := addCounts(isoDates(customer, colDate))
	if storage.HasColumns(weather, colDate) {
		w := keep(isoDates(weather, colDate), colDate, hasText)
		w = storage.Numeric(w.Select(present(w, append([]string{colDate, colWeather}, weatherNumeric...)...)), weatherNumeric...)
		if w.Nrow() > 0 {
			df = df.LeftJoin(w, colDate)
		}
	}

	bins := present(dwell, DwellBins...)
	dw := keep(isoDates(dwell, colDate), colDate, hasText)
	dw = dw.Select(present(dw, append([]string{colDate, colSite, colAvgDwellSec}, bins...)...))
	dw = storage.Numeric(dw, append([]string{colAvgDwellSec}, bins...)...)
	if dw.Nrow() > 0 {
		df = df.LeftJoin(dw, colDate, colSite)
	}
	df = storage.FillNA(df, 0, bins...)
	if df.Err != nil {
		return nil, df.Err
	}

	d.Frame, err = d.derive(df, bins)
	return d, err
}

// addCounts zero-fills the age and gender counts and adds the per-band,
// per-gender and overall totals.
func addCounts(df dataframe.DataFrame) dataframe.DataFrame {
	n := df.Nrow()
	men, women, all := make([]float64, n), make([]float64, n), make([]float64, n)
	column := func(col string) []float64 {
		if !storage.HasColumns(df, col) {
			return make([]float64, n)
		}
		df = zeroFill(df, col)
		return floatCol(df, col)
	}
	for _, b := range AgeBands {
		m, w := column(b.Man), column(b.Woman)
		band := make([]float64, n)
		for i := range band {
			band[i] = m[i] + w[i]
			men[i] += m[i]
			women[i] += w[i]
			all[i] += band[i]
		}
		df = df.Mutate(series.New(band, series.Float, b.Label))
	}
	return df.Mutate(series.New(men, series.Float, colMaleTotal)).
		Mutate(series.New(women, series.Float, colFemaleTotal)).
		Mutate(series.New(all, series.Float, ColCustomer))
}

// derive adds DayOfWeek, Avg_dwell_time_min, Total_Dwell_Counted,
// Bounce_Rate, Engagement_Rate and the max-normalised Family_Index.
func (d *CustomerData) derive(df dataframe.DataFrame, bins []string) (dataframe.DataFrame, error) {
	n := df.Nrow()

	days := strs(df, colDate)
	for i, v := range days {
		days[i] = ""
		if t, ok := parseDate(v); ok {
			days[i] = DayOrder[dayIndex(t)]
		}
	}
	df = df.Mutate(series.New(days, series.String, colDayOfWeek))

	if storage.HasColumns(df, colAvgDwellSec) {
		mins := floatCol(df, colAvgDwellSec)
		for i := range mins {
			mins[i] /= 60
		}
		df = df.Mutate(storage.FloatSeries(colAvgDwellMin, mins))
	}

	bounce, engagement := make([]float64, n), make([]float64, n)
	if d.HasRates {
		totals := make([]float64, n)
		for _, b := range bins {
			for i, v := range floatCol(df, b) {
				totals[i] += v
			}
		}
		first, last := floatCol(df, DwellBins[0]), floatCol(df, DwellBins[5])
		for i, t := range totals {
			if t > 0 {
				bounce[i] = first[i] / t * 100
				engagement[i] = last[i] / t * 100
			}
		}
		df = df.Mutate(series.New(totals, series.Float, colTotalDwell))
	}
	df = df.Mutate(series.New(bounce, series.Float, colBounceRate)).
		Mutate(series.New(engagement, series.Float, colEngagementRate))

	customers := floatCol(df, ColCustomer)
	child, young := floatCol(df, AgeBands[0].Label), floatCol(df, AgeBands[1].Label)
	teen, middle := floatCol(df, AgeBands[2].Label), floatCol(df, AgeBands[3].Label)
	family := make([]float64, n)
	maxFamily := 0.0
	for i, c := range customers {
		if c > 0 {
			family[i] = (child[i] + young[i]) / c * (teen[i] + middle[i]) / c
		}
		if family[i] > maxFamily {
			maxFamily = family[i]
		}
	}
	if maxFamily > 0 {
		for i := range family {
			family[i] /= maxFamily
		}
	}
	df = df.Mutate(series.New(family, series.Float, colFamilyIndex))
	return df, df.Err
}

// CustomerKPIs returns total customers, distinct sites and the date range.
func (d *CustomerData) CustomerKPIs() ([]KPI, error) {
	sites, err := aggregate(d.Frame, []string{colSite}, dataframe.Aggregation_COUNT, ColCustomer)
	if err != nil {
		return nil, err
	}

	rangeStr := "-"
	if dated := keep(d.Frame, colDate, hasText); dated.Nrow() > 0 {
		dates := strs(dated.Arrange(dataframe.Sort(colDate)), colDate)
		lo, _ := parseDate(dates[0])
		hi, _ := parseDate(dates[len(dates)-1])
		rangeStr = lo.Format("02 Jan 06")
		if !lo.Equal(hi) {
			rangeStr += " - " + hi.Format("02 Jan 06")
		}
	}

	return []KPI{
		countKPI("total_customer", "Total Customer", total(d.Frame, ColCustomer)),
		{ID: "total_site", Label: "Total Site", Value: float64(sites.Nrow()), Display: fmt.Sprintf("%d lokasi", sites.Nrow())},
		{ID: "date_range", Label: "Rentang Tanggal (Data)", Display: rangeStr},
	}, nil
}

// dayRank is the position of an Indonesian day name in DayOrder.
func dayRank(day string) int {
	for i, d := range DayOrder {
		if d == day {
			return i
		}
	}
	return -1
}

// perDay aggregates cols per day of week, days in DayOrder.
func (d *CustomerData) perDay(t dataframe.AggregationType, cols ...string) (dataframe.DataFrame, error) {
	out, err := aggregate(d.Frame, []string{colDayOfWeek}, t, cols...)
	if err != nil {
		return out, err
	}
	out = arrangeBy(out, colDayOfWeek, dayRank)
	return out, out.Err
}

// AgeGenderChart is the age band share of visitors per day, one facet per
// gender. Days without visitors are left out.
func (d *CustomerData) AgeGenderChart() (*charts.Chart, error) {
	var bands []int
	cols := []string{ColCustomer}
	for j, b := range AgeBands {
		if d.ManPresent[j] && d.WomanPresent[j] {
			bands = append(bands, j)
			cols = append(cols, b.Man, b.Woman)
		}
	}
	if len(bands) == 0 {
		return nil, nil
	}

	sums, err := d.perDay(dataframe.Aggregation_SUM, cols...)
	if err != nil {
		return nil, err
	}
	totalCol := aggCol(ColCustomer, dataframe.Aggregation_SUM)
	if sums.Nrow() > 0 {
		sums = sums.Filter(dataframe.F{Colname: totalCol, Comparator: series.Greater, Comparando: 0.0})
	}
	if sums.Err != nil {
		return nil, sums.Err
	}
	if sums.Nrow() == 0 {
		return nil, nil
	}

	totals := floatCol(sums, totalCol)
	share := func(col string) []float64 {
		vals := floatCol(sums, aggCol(col, dataframe.Aggregation_SUM))
		for i := range vals {
			vals[i] = vals[i] / totals[i] * 100
		}
		return vals
	}
	manFacet := charts.Facet{Name: "Man"}
	womanFacet := charts.Facet{Name: "Woman"}
	for _, j := range bands {
		b := AgeBands[j]
		col := charts.PaletteColor(blues, j)
		manFacet.Series = append(manFacet.Series, charts.Series{Name: b.Label, Color: col, Values: share(b.Man)})
		womanFacet.Series = append(womanFacet.Series, charts.Series{Name: b.Label, Color: col, Values: share(b.Woman)})
	}

	return &charts.Chart{
		ID:         "age_gender",
		Kind:       charts.KindFacetedBar,
		Title:      "Proporsi (%) Pengunjung Berdasarkan Usia dan Gender per Hari",
		XLabel:     "Hari",
		YLabel:     "Proporsi (%)",
		Categories: strs(sums, colDayOfWeek),
		Facets:     []charts.Facet{manFacet, womanFacet},
	}, nil
}

// blues runs light to dark for the stacked age bands.
var blues = []string{"#C6DBEF", "#9ECAE1", "#6BAED6", "#3182BD", "#08519C"}

// FamilyIndexChart is the mean Family_Index per day of week.
func (d *CustomerData) FamilyIndexChart() (*charts.Chart, error) {
	means, err := d.perDay(dataframe.Aggregation_MEAN, colFamilyIndex)
	if err != nil || means.Nrow() == 0 {
		return nil, err
	}
	c := charts.NewBar("family_index", "Rata-rata Family Index per Hari dalam Seminggu",
		strs(means, colDayOfWeek), floatCol(means, aggCol(colFamilyIndex, dataframe.Aggregation_MEAN)))
	c.XLabel = "Hari"
	c.YLabel = "Rata-rata Family Index (0–1)"
	c.ValueFormat = ".2f"
	c.ColorScale = "Blues"
	return c, nil
}

// MetricOption resolves a weather metric by label or column name. An empty
// name selects the first metric.
func MetricOption(name string) (Option, bool) {
	if name == "" {
		return WeatherMetrics[0], true
	}
	for _, o := range WeatherMetrics {
		if o.Label == name || o.Column == name {
			return o, true
		}
	}
	return Option{}, false
}

// WeatherChart is the mean of metric per weather condition, highest first
// with ties in name order. Rows without a weather condition are dropped.
func (d *CustomerData) WeatherChart(metric Option) (*charts.Chart, error) {
	if !d.HasWeather || !storage.HasColumns(d.Frame, colWeather) {
		return nil, nil
	}
	means, err := aggregate(d.Frame, []string{colWeather}, dataframe.Aggregation_MEAN, metric.Column)
	if err != nil || means.Nrow() == 0 {
		return nil, err
	}
	meanCol := aggCol(metric.Column, dataframe.Aggregation_MEAN)
	means = means.Arrange(dataframe.RevSort(meanCol), dataframe.Sort(colWeather))
	if means.Err != nil {
		return nil, means.Err
	}

	c := charts.NewBar("weather_metric", fmt.Sprintf("Rata-rata %s per Kondisi Cuaca", metric.Label),
		strs(means, colWeather), floatCol(means, meanCol))
	c.XLabel = "Weather"
	c.YLabel = "Rata-rata " + metric.Label
	c.ValueFormat = ".2f"
	c.ColorScale = "Blues"
	return c, nil
}

// familyCategory is the FamilyCategories label covering v, "" for none.
func familyCategory(v float64) string {
	for _, fc := range FamilyCategories {
		if v > fc.Low && v <= fc.High {
			return fc.Label
		}
	}
	return ""
}

// FamilyDwellChart is the mean Avg_dwell_time_min per family category. All
// three categories are present; one without dwell data shows 0.
func (d *CustomerData) FamilyDwellChart() (*charts.Chart, error) {
	if !d.HasAvgDwell || !storage.HasColumns(d.Frame, colAvgDwellMin) {
		return nil, nil
	}
	rows := keep(d.Frame, colAvgDwellMin, hasValue)
	cats := make([]string, rows.Nrow())
	for i, v := range floatCol(rows, colFamilyIndex) {
		cats[i] = familyCategory(v)
	}
	if rows.Nrow() > 0 {
		rows = rows.Mutate(series.New(cats, series.String, colFamilyCategory))
	}
	means, err := aggregate(rows, []string{colFamilyCategory}, dataframe.Aggregation_MEAN, colAvgDwellMin)
	if err != nil {
		return nil, err
	}
	byLabel := make(map[string]float64, means.Nrow())
	meanCol := floatCol(means, aggCol(colAvgDwellMin, dataframe.Aggregation_MEAN))
	for i, label := range strs(means, colFamilyCategory) {
		byLabel[label] = meanCol[i]
	}

	labels := make([]string, len(FamilyCategories))
	values := make([]float64, len(FamilyCategories))
	for i, fc := range FamilyCategories {
		labels[i] = fc.Label
		values[i] = byLabel[fc.Label]
	}
	c := charts.NewBar("family_dwell", "Hubungan Kepadatan Keluarga vs Durasi Kunjungan", labels, values)
	c.XLabel = "Kategori Family Index"
	c.YLabel = "Rata-rata Durasi (Menit)"
	c.ValueFormat = ".1f"
	c.ColorScale = "Blues"
	return c, nil
}

// dailyColumns are the DailyTable columns, shown when present.
var dailyColumns = []string{
	colDate, colDayOfWeek, colSite, ColCustomer, colMaleTotal, colFemaleTotal, colWeather, colTemperature,
	colAvgDwellMin, colBounceRate, colEngagementRate, colFamilyIndex,
}

// DailyTable lists the joined rows with their derived metrics.
func (d *CustomerData) DailyTable() *charts.Chart {
	return frameTable("daily", "Data Harian", d.Frame.Select(present(d.Frame, dailyColumns...)), map[string]int{
		colAvgDwellMin:    2,
		colBounceRate:     2,
		colEngagementRate: 2,
		colFamilyIndex:    4,
	})
}

// CustomerOptions selects the weather metric.
type CustomerOptions struct {
	WeatherMetric string
}

// BuildCustomer computes the customer page.
func BuildCustomer(customer, weather, dwell dataframe.DataFrame, opts CustomerOptions) (*Result, error) {
	metric, ok := MetricOption(opts.WeatherMetric)
	if !ok {
		return nil, fmt.Errorf("unknown weather metric %q", opts.WeatherMetric)
	}
	d, err := LoadCustomer(customer, weather, dwell)
	if err != nil {
		return nil, err
	}

	kpis, err := d.CustomerKPIs()
	if err != nil {
		return nil, err
	}
	res := &Result{
		Page:     models.PageCustomer,
		Title:    "Customer Profile Analysis",
		KPIs:     kpis,
		Options:  WeatherMetrics,
		Selected: metric.Label,
	}

	ageGender, err := d.AgeGenderChart()
	if err != nil {
		return nil, err
	}
	family, err := d.FamilyIndexChart()
	if err != nil {
		return nil, err
	}
	res.add(ageGender)
	res.add(family)

	c, err := d.WeatherChart(metric)
	if err != nil {
		return nil, err
	}
	if c != nil {
		res.add(c)
	} else {
		res.notice("Kolom 'Weather' tidak ditemukan untuk plot cuaca.")
	}
	if c, err = d.FamilyDwellChart(); err != nil {
		return nil, err
	}
	if c != nil {
		res.add(c)
	} else {
		res.notice("Kolom 'Avg. dwell time' tidak ditemukan; grafik Family Index vs durasi dilewati.")
	}
	res.add(d.DailyTable())
	return res, nil
}
