// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// Association column names after loading.
const (
	ColStoreArea      = "Store area"
	ColAssociatedArea = "Associated area"
	ColSharedTraffic  = "Shared traffic"
)

// Treemap metrics of the association page.
const (
	MetricSharedTraffic = "Shared traffic"
	MetricLift          = "Lift"
	MetricConfident     = "Confident"
	MetricSupport       = "Support"
)

// AssociationMetrics lists the treemap metrics in display order.
var AssociationMetrics = []string{MetricSharedTraffic, MetricLift, MetricConfident, MetricSupport}

// treemapFloor excludes rows whose metric is effectively zero.
const treemapFloor = 0.00001

// AssociationRule is one store area to associated area edge with its
// association metrics.
type AssociationRule struct {
	StoreArea      string  `json:"store_area"`
	AssociatedArea string  `json:"associated_area"`
	SharedTraffic  float64 `json:"shared_traffic"`
	PA             float64 `json:"p_a"`
	PB             float64 `json:"p_b"`
	Support        float64 `json:"support"`
	Confidence     float64 `json:"confident"`
	Lift           float64 `json:"lift"`
}

// Metric returns the named metric of r.
func (r AssociationRule) Metric(name string) float64 {
	switch name {
	case MetricLift:
		return r.Lift
	case MetricConfident:
		return r.Confidence
	case MetricSupport:
		return r.Support
	default:
		return r.SharedTraffic
	}
}

// Per-row shares of the store and associated area, joined onto the rules.
const (
	colStoreShare = "_store_share"
	colAssocShare = "_assoc_share"
	colPA         = "P(A)"
	colPB         = "P(B)"
)

// LoadAssociation title-cases the headers and renames them to the
// association columns. Shared traffic that is missing or non-numeric
// counts as 0.
func LoadAssociation(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	df, err := storage.MapColumns(df, titleHeader)
	if err != nil {
		return df, err
	}
	if df, err = storage.RenameColumns(df, map[string]string{
		"Store Area":      ColStoreArea,
		"Associated Area": ColAssociatedArea,
		"Shared Traffic":  ColSharedTraffic,
	}); err != nil {
		return df, err
	}
	if missing := storage.MissingColumns(df, ColStoreArea, ColAssociatedArea, ColSharedTraffic); len(missing) > 0 {
		return df, &ColumnError{File: models.FileAssociation, Missing: missing, Found: df.Names()}
	}
	df = df.Select([]string{ColStoreArea, ColAssociatedArea, ColSharedTraffic})
	return zeroFill(df, ColSharedTraffic), df.Err
}

// joinShare adds name to every row: the shared traffic summed over all
// rows with the same key.
func joinShare(df dataframe.DataFrame, key, name string) (dataframe.DataFrame, error) {
	sums, err := aggregate(df, []string{key}, dataframe.Aggregation_SUM, ColSharedTraffic)
	if err != nil {
		return df, err
	}
	if sums, err = storage.RenameColumns(sums, map[string]string{aggCol(ColSharedTraffic, dataframe.Aggregation_SUM): name}); err != nil {
		return df, err
	}
	joined := df.LeftJoin(sums, key)
	return joined, joined.Err
}

// ComputeAssociation derives Support, Confidence and Lift for the rows of a
// loaded frame and returns them as rules sorted by Lift, highest first.
// Non-finite results become 0.
//
//	total      = Σ shared
//	P(A)       = Σ shared of the store area / total
//	P(B)       = Σ shared of the associated area / total
//	Support    = shared / total
//	Confidence = Support / P(A)
//	Lift       = Confidence / P(B)
func ComputeAssociation(df dataframe.DataFrame) ([]AssociationRule, error) {
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%w: association table is empty", ErrEmptyData)
	}
	sum := total(df, ColSharedTraffic)

	df, err := joinShare(df, ColStoreArea, colStoreShare)
	if err != nil {
		return nil, err
	}
	if df, err = joinShare(df, ColAssociatedArea, colAssocShare); err != nil {
		return nil, err
	}

	shared := floatCol(df, ColSharedTraffic)
	storeShare := floatCol(df, colStoreShare)
	assocShare := floatCol(df, colAssocShare)
	n := len(shared)
	pa, pb := make([]float64, n), make([]float64, n)
	support, confidence, lift := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range shared {
		pa[i] = finite(storeShare[i] / sum)
		pb[i] = finite(assocShare[i] / sum)
		support[i] = finite(shared[i] / sum)
		confidence[i] = finite(support[i] / pa[i])
		lift[i] = finite(confidence[i] / pb[i])
	}
	df = df.Mutate(series.New(pa, series.Float, colPA)).
		Mutate(series.New(pb, series.Float, colPB)).
		Mutate(series.New(support, series.Float, MetricSupport)).
		Mutate(series.New(confidence, series.Float, MetricConfident)).
		Mutate(series.New(lift, series.Float, MetricLift)).
		Arrange(dataframe.RevSort(MetricLift))
	if df.Err != nil {
		return nil, df.Err
	}

	stores, assocs := strs(df, ColStoreArea), strs(df, ColAssociatedArea)
	cols := [][]float64{
		floatCol(df, ColSharedTraffic), floatCol(df, colPA), floatCol(df, colPB),
		floatCol(df, MetricSupport), floatCol(df, MetricConfident), floatCol(df, MetricLift),
	}
	rules := make([]AssociationRule, n)
	for i := range rules {
		rules[i] = AssociationRule{
			StoreArea:      stores[i],
			AssociatedArea: assocs[i],
			SharedTraffic:  cols[0][i],
			PA:             cols[1][i],
			PB:             cols[2][i],
			Support:        cols[3][i],
			Confidence:     cols[4][i],
			Lift:           cols[5][i],
		}
	}
	return rules, nil
}

// AssociationTreemap nests "Semua Relasi" → store area → associated area,
// sized by metric. Rules with metric ≤ 0.00001 are left out; nil means none
// is left.
func AssociationTreemap(rules []AssociationRule, metric string) *charts.Chart {
	root := &charts.TreeNode{ID: "root", Label: "Semua Relasi"}
	for _, r := range rules {
		v := r.Metric(metric)
		if v <= treemapFloor {
			continue
		}
		root.Add(v, r.StoreArea, r.AssociatedArea)
	}
	if len(root.Children) == 0 {
		return nil
	}
	c := charts.NewTreemap("treemap", fmt.Sprintf("Treemap Hubungan Area Berdasarkan '%s'", metric), root)
	c.ColorScale = "YlOrRd"
	return c
}

// AssociationTable is the processed rules as a table.
func AssociationTable(rules []AssociationRule) *charts.Chart {
	rows := make([][]interface{}, len(rules))
	for i, r := range rules {
		rows[i] = []interface{}{r.StoreArea, r.AssociatedArea, r.SharedTraffic, r.Support, r.Confidence, r.Lift}
	}
	return charts.NewTable("metrics", "Data Mentah yang Telah Diproses (Metrics)",
		[]string{ColStoreArea, ColAssociatedArea, ColSharedTraffic, MetricSupport, MetricConfident, MetricLift}, rows)
}

// ValidAssociationMetric reports whether m names a treemap metric.
func ValidAssociationMetric(m string) bool {
	for _, v := range AssociationMetrics {
		if v == m {
			return true
		}
	}
	return false
}

// AssociationOptions selects the treemap metric.
type AssociationOptions struct {
	Metric string
}

// BuildAssociation computes the association page.
func BuildAssociation(df dataframe.DataFrame, opts AssociationOptions) (*Result, error) {
	metric := opts.Metric
	if metric == "" {
		metric = MetricSharedTraffic
	}
	if !ValidAssociationMetric(metric) {
		return nil, fmt.Errorf("unknown association metric %q", metric)
	}

	df, err := LoadAssociation(df)
	if err != nil {
		return nil, err
	}
	rules, err := ComputeAssociation(df)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Page:  models.PageAssociation,
		Title: "Associated Area Analysis",
		KPIs: []KPI{
			countKPI("total_shared_traffic", "Total Shared Traffic", total(df, ColSharedTraffic)),
			countKPI("relations", "Relasi", float64(len(rules))),
		},
		Selected: metric,
	}
	for _, m := range AssociationMetrics {
		res.Options = append(res.Options, Option{Label: m, Column: m})
	}
	if c := AssociationTreemap(rules, metric); c != nil {
		res.add(c)
	} else {
		res.notice("Tidak ada data untuk ditampilkan dengan metrik '%s' > 0.", metric)
	}
	res.add(AssociationTable(rules))
	return res, nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
