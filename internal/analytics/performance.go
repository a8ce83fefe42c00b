// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// Performance column names after loading.
const (
	ColPerfArea      = "Store Area"
	ColAttendance    = "Area Attendance"
	ColAttentionTime = "Avg. Attention Time (S)"
	ColDwell         = "Dwell"
	ColInterest      = "Interest"
	ColTendToBuy     = "Tend To Buy"
)

// Cluster count bounds.
const (
	MinClusters     = 2
	MaxClusters     = 8
	DefaultClusters = 3
)

var performanceColumns = []string{ColPerfArea, ColAttendance, ColAttentionTime, ColDwell, ColInterest, ColTendToBuy}

// clusterFeatures are the behaviour counts clustered on, in radar order.
var clusterFeatures = []string{ColDwell, ColInterest, ColTendToBuy}

// Funnel series colours.
const (
	colorDwellRate    = "#CCCCCC"
	colorInterestRate = "#FFB703"
	colorBuyingRate   = "#02C39A"
)

// AreaPerformance is one store area of the performance export.
type AreaPerformance struct {
	Area          string  `json:"area"`
	Attendance    float64 `json:"attendance"`
	AttentionTime float64 `json:"attention_time"`
	Dwell         float64 `json:"dwell"`
	Interest      float64 `json:"interest"`
	TendToBuy     float64 `json:"tend_to_buy"`
	DwellRate     float64 `json:"dwell_rate"`
	InterestRate  float64 `json:"interest_rate"`
	BuyingRate    float64 `json:"buying_rate"`
	Cluster       int     `json:"cluster"`
}

func (a *AreaPerformance) features() []float64 {
	return []float64{a.Dwell, a.Interest, a.TendToBuy}
}

// Rate columns added by LoadPerformance.
const (
	ColDwellRate    = "Dwell Rate"
	ColInterestRate = "Interest Rate"
	ColBuyingRate   = "Buying Rate"

	colCluster = "Cluster"
)

// LoadPerformance title-cases the headers, applies the attendance and
// attention renames and keeps rows where every expected column holds a
// value. Numeric columns that do not parse count as missing. The rate
// columns are each count over attendance, 0 where attendance is 0.
func LoadPerformance(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	df, err := storage.MapColumns(df, titleHeader)
	if err != nil {
		return df, err
	}
	if df, err = storage.RenameColumns(df, map[string]string{
		"Attendance":          ColAttendance,
		"Avg. Attention Time": ColAttentionTime,
	}); err != nil {
		return df, err
	}
	if missing := storage.MissingColumns(df, performanceColumns...); len(missing) > 0 {
		return df, &ColumnError{File: models.FilePerformance, Missing: missing, Found: df.Names()}
	}

	df = keep(df.Select(performanceColumns), ColPerfArea, hasText)
	df = storage.Numeric(df, performanceColumns[1:]...)
	for _, col := range performanceColumns[1:] {
		df = keep(df, col, hasValue)
	}
	if df.Err != nil {
		return df, df.Err
	}
	if df.Nrow() == 0 {
		return df, fmt.Errorf("%w: no complete rows in %s", ErrEmptyData, models.FilePerformance)
	}

	attendance := floatCol(df, ColAttendance)
	rate := func(name, col string) series.Series {
		vals := floatCol(df, col)
		for i := range vals {
			vals[i] = finite(vals[i] / attendance[i])
		}
		return series.New(vals, series.Float, name)
	}
	df = df.Mutate(rate(ColDwellRate, ColDwell)).
		Mutate(rate(ColInterestRate, ColInterest)).
		Mutate(rate(ColBuyingRate, ColTendToBuy))
	return df, df.Err
}

// performanceAreas converts the rows of a loaded frame, in file order.
func performanceAreas(df dataframe.DataFrame) []AreaPerformance {
	names := strs(df, ColPerfArea)
	cols := make([][]float64, 0, 8)
	for _, c := range []string{ColAttendance, ColAttentionTime, ColDwell, ColInterest, ColTendToBuy, ColDwellRate, ColInterestRate, ColBuyingRate} {
		cols = append(cols, floatCol(df, c))
	}
	areas := make([]AreaPerformance, len(names))
	for i, name := range names {
		areas[i] = AreaPerformance{
			Area:          name,
			Attendance:    cols[0][i],
			AttentionTime: cols[1][i],
			Dwell:         cols[2][i],
			Interest:      cols[3][i],
			TendToBuy:     cols[4][i],
			DwellRate:     cols[5][i],
			InterestRate:  cols[6][i],
			BuyingRate:    cols[7][i],
		}
	}
	return areas
}

// FunnelChart stacks the three rates per area, best buying rate first.
func FunnelChart(df dataframe.DataFrame) (*charts.Chart, error) {
	sorted := df.Arrange(dataframe.RevSort(ColBuyingRate))
	if sorted.Err != nil {
		return nil, sorted.Err
	}
	c := charts.NewMultiBar("funnel", "Komposisi Perilaku Pengunjung di Setiap Area", true, strs(sorted, ColPerfArea),
		charts.Series{Name: ColDwellRate, Color: colorDwellRate, Values: floatCol(sorted, ColDwellRate)},
		charts.Series{Name: ColInterestRate, Color: colorInterestRate, Values: floatCol(sorted, ColInterestRate)},
		charts.Series{Name: ColBuyingRate, Color: colorBuyingRate, Values: floatCol(sorted, ColBuyingRate)},
	)
	c.XLabel = "Store Area"
	c.YLabel = "Rate"
	c.ValueFormat = ".0%"
	return c, nil
}

// ClusterLabel names cluster i for display.
func ClusterLabel(i int) string {
	return fmt.Sprintf("Cluster %d", i+1)
}

// Clustering is the outcome of clustering the areas.
type Clustering struct {
	K         int
	Reduction Reduction
	Areas     []AreaPerformance
	// Coords is the 2-D projection of each area.
	Coords [][2]float64
	// Means[c][f] is the raw mean of clusterFeatures[f] in cluster c.
	Means [][]float64
}

// ClusterAreas scales the behaviour counts, runs k-means with k clusters
// and projects the scaled features to two dimensions.
func ClusterAreas(areas []AreaPerformance, k int, r Reduction) (*Clustering, error) {
	if k < MinClusters || k > MaxClusters {
		return nil, fmt.Errorf("cluster count %d outside %d..%d", k, MinClusters, MaxClusters)
	}
	if len(areas) < 2 || len(areas) < k {
		return nil, fmt.Errorf("%w: %d areas cannot form %d clusters", ErrEmptyData, len(areas), k)
	}

	raw := make([][]float64, len(areas))
	for i := range areas {
		raw[i] = areas[i].features()
	}
	scaled := StandardScale(raw)

	km, err := KMeans(scaled, KMeansConfig{K: k, Seed: ClusterSeed})
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}
	coords, err := Reduce(scaled, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Label(), err)
	}

	out := &Clustering{K: k, Reduction: r, Coords: coords}
	out.Areas = append([]AreaPerformance(nil), areas...)
	for i, l := range km.Labels {
		out.Areas[i].Cluster = l
	}
	if out.Means, err = clusterMeans(out.Areas, k); err != nil {
		return nil, err
	}
	return out, nil
}

// clusterMeans averages the raw features per cluster. A cluster without
// members keeps zero means.
func clusterMeans(areas []AreaPerformance, k int) ([][]float64, error) {
	labels := make([]int, len(areas))
	feats := make([][]float64, len(clusterFeatures))
	for f := range feats {
		feats[f] = make([]float64, len(areas))
	}
	for i, a := range areas {
		labels[i] = a.Cluster
		for f, v := range a.features() {
			feats[f][i] = v
		}
	}
	cols := []series.Series{series.New(labels, series.Int, colCluster)}
	for f, name := range clusterFeatures {
		cols = append(cols, series.New(feats[f], series.Float, name))
	}

	agg, err := aggregate(dataframe.New(cols...), []string{colCluster}, dataframe.Aggregation_MEAN, clusterFeatures...)
	if err != nil {
		return nil, fmt.Errorf("cluster means: %w", err)
	}
	means := make([][]float64, k)
	for c := range means {
		means[c] = make([]float64, len(clusterFeatures))
	}
	ids := floatCol(agg, colCluster)
	for f, name := range clusterFeatures {
		for i, v := range floatCol(agg, aggCol(name, dataframe.Aggregation_MEAN)) {
			if c := int(ids[i]); c >= 0 && c < k {
				means[c][f] = v
			}
		}
	}
	return means, nil
}

// ScatterChart places each area at its projection, sized by attendance and
// coloured by cluster.
func (cl *Clustering) ScatterChart() *charts.Chart {
	points := make([]charts.Point, len(cl.Areas))
	for i, a := range cl.Areas {
		points[i] = charts.Point{
			X:     cl.Coords[i][0],
			Y:     cl.Coords[i][1],
			Size:  a.Attendance,
			Label: a.Area,
			Group: ClusterLabel(a.Cluster),
			Color: charts.PaletteColor(charts.Bold, a.Cluster),
			Extra: map[string]float64{ColDwell: a.Dwell, ColInterest: a.Interest, ColTendToBuy: a.TendToBuy},
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Group < points[j].Group })
	return &charts.Chart{
		ID:     "clusters",
		Kind:   charts.KindScatter,
		Title:  fmt.Sprintf("Peta Klaster Area (%s)", cl.Reduction.Label()),
		XLabel: cl.Reduction.Label() + " Dimensi 1",
		YLabel: cl.Reduction.Label() + " Dimensi 2",
		Points: points,
	}
}

// RadarChart compares clusters on their feature means, each feature
// min-max scaled across clusters into [0.2, 1]. A feature equal in every
// cluster sits at 0.2.
func (cl *Clustering) RadarChart() *charts.Chart {
	const lo, span = 0.2, 0.8
	k := len(cl.Means)
	series := make([]charts.Series, k)
	for c := range series {
		series[c] = charts.Series{Name: ClusterLabel(c), Color: charts.PaletteColor(charts.Bold, c), Values: make([]float64, len(clusterFeatures))}
	}
	for f := range clusterFeatures {
		fmin, fmax := cl.Means[0][f], cl.Means[0][f]
		for c := 1; c < k; c++ {
			if v := cl.Means[c][f]; v < fmin {
				fmin = v
			} else if v > fmax {
				fmax = v
			}
		}
		for c := 0; c < k; c++ {
			if fmax == fmin {
				series[c].Values[f] = lo
				continue
			}
			series[c].Values[f] = lo + (cl.Means[c][f]-fmin)/(fmax-fmin)*span
		}
	}
	return &charts.Chart{
		ID:         "radar",
		Kind:       charts.KindRadar,
		Title:      "Profil Perilaku Tiap Klaster",
		Categories: append([]string(nil), clusterFeatures...),
		Series:     series,
	}
}

// TreemapChart nests "Semua Area" → cluster → area, sized by attendance.
func (cl *Clustering) TreemapChart() *charts.Chart {
	root := &charts.TreeNode{ID: "root", Label: "Semua Area"}
	order := make([]int, len(cl.Areas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return cl.Areas[order[i]].Cluster < cl.Areas[order[j]].Cluster })
	for _, i := range order {
		a := cl.Areas[i]
		root.Add(a.Attendance, ClusterLabel(a.Cluster), a.Area)
		root.Child(ClusterLabel(a.Cluster)).Color = charts.PaletteColor(charts.Bold, a.Cluster)
	}
	return charts.NewTreemap("cluster_treemap", "Komposisi Area per Klaster (Ukuran = Attendance)", root)
}

// MeansTable lists the raw feature means per cluster, rounded to two
// decimals.
func (cl *Clustering) MeansTable() *charts.Chart {
	cols := append([]string{"Cluster"}, clusterFeatures...)
	rows := make([][]interface{}, len(cl.Means))
	for c, means := range cl.Means {
		row := []interface{}{ClusterLabel(c)}
		for _, v := range means {
			row = append(row, round(v, 2))
		}
		rows[c] = row
	}
	return charts.NewTable("cluster_means", "Rata-rata Perilaku per Klaster", cols, rows)
}

// PerformanceOptions selects the cluster count and projection.
type PerformanceOptions struct {
	K         int
	Reduction Reduction
}

// BuildPerformance computes the performance page. A clustering failure,
// such as too few areas, leaves the funnel in place and adds a notice.
func BuildPerformance(df dataframe.DataFrame, opts PerformanceOptions) (*Result, error) {
	if opts.K == 0 {
		opts.K = DefaultClusters
	}
	if opts.K < MinClusters || opts.K > MaxClusters {
		return nil, fmt.Errorf("cluster count %d outside %d..%d", opts.K, MinClusters, MaxClusters)
	}
	if opts.Reduction == "" {
		opts.Reduction = ReductionTSNE
	}

	df, err := LoadPerformance(df)
	if err != nil {
		return nil, err
	}
	funnel, err := FunnelChart(df)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Page:  models.PagePerformance,
		Title: "Area Performance Analysis",
		KPIs: []KPI{
			countKPI("total_attendance", "Total Attendance", total(df, ColAttendance)),
			countKPI("total_dwell", "Total Dwell", total(df, ColDwell)),
			countKPI("total_interest", "Total Interest", total(df, ColInterest)),
			countKPI("total_tend_to_buy", "Total Tend To Buy", total(df, ColTendToBuy)),
		},
		Options: []Option{
			{Label: ReductionTSNE.Label(), Column: string(ReductionTSNE)},
			{Label: ReductionPCA.Label(), Column: string(ReductionPCA)},
		},
		Selected: string(opts.Reduction),
	}
	res.add(funnel)

	cl, err := ClusterAreas(performanceAreas(df), opts.K, opts.Reduction)
	if err != nil {
		res.notice("Clustering tidak dapat dijalankan: %v", err)
		return res, nil
	}
	res.add(cl.ScatterChart())
	res.add(cl.RadarChart())
	res.add(cl.TreemapChart())
	res.add(cl.MeansTable())
	return res, nil
}
