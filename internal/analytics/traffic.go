// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/tomtom215/footfall/internal/charts"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/storage"
)

// TrafficSheet is the worksheet holding the area and gate exports.
const TrafficSheet = "Datas"

// Area and gate columns after loading.
const (
	ColArea        = "Area"
	ColGate        = "Gate"
	ColCustomer    = "Customer"
	ColFlowIn      = "Flow(in)"
	ColFlowOut     = "Flow(out)"
	ColGateFlowIn  = "Gate Flow(in)"
	ColGateFlowOut = "Gate Flow(out)"
)

// The exports spell the outflow header with two spaces.
var (
	areaRenames = map[string]string{
		"Site":        ColArea,
		"Flow (in)":   ColFlowIn,
		"Flow  (out)": ColFlowOut,
	}
	gateRenames = map[string]string{
		"Site":        ColGate,
		"Flow (in)":   ColGateFlowIn,
		"Flow  (out)": ColGateFlowOut,
	}
)

// LoadAreaTraffic renames the area export headers and zero-fills the
// numeric columns.
func LoadAreaTraffic(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	df, err := storage.RenameColumns(df, areaRenames)
	if err != nil {
		return df, err
	}
	if missing := storage.MissingColumns(df, ColArea, ColCustomer); len(missing) > 0 {
		return df, &ColumnError{File: models.FileAreaTraffic, Missing: missing, Found: df.Names()}
	}
	return zeroFill(df, ColCustomer, ColFlowIn, ColFlowOut), nil
}

// LoadGateFlow renames the gate export headers and zero-fills the numeric
// columns.
func LoadGateFlow(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	df, err := storage.RenameColumns(df, gateRenames)
	if err != nil {
		return df, err
	}
	if missing := storage.MissingColumns(df, ColGate, ColGateFlowIn, ColGateFlowOut); len(missing) > 0 {
		return df, &ColumnError{File: models.FileGateFlow, Missing: missing, Found: df.Names()}
	}
	return zeroFill(df, ColGateFlowIn, ColGateFlowOut, ColCustomer), nil
}

// zeroFill converts the present cols to numbers, unparseable cells as 0.
func zeroFill(df dataframe.DataFrame, cols ...string) dataframe.DataFrame {
	return storage.FillNA(storage.Numeric(df, cols...), 0, cols...)
}

// AreaCustomerChart is the customer total per area, largest first with ties
// in name order. Areas with no customers are left out; nil when none
// remains.
func AreaCustomerChart(df dataframe.DataFrame) (*charts.Chart, error) {
	sums, err := aggregate(df, []string{ColArea}, dataframe.Aggregation_SUM, ColCustomer)
	if err != nil {
		return nil, err
	}
	sum := aggCol(ColCustomer, dataframe.Aggregation_SUM)
	if sums.Nrow() > 0 {
		sums = sums.Filter(dataframe.F{Colname: sum, Comparator: series.Greater, Comparando: 0.0})
	}
	if sums.Nrow() == 0 {
		return nil, nil
	}
	sums = sums.Arrange(dataframe.RevSort(sum), dataframe.Sort(ColArea))
	if sums.Err != nil {
		return nil, sums.Err
	}
	c := charts.NewBar("area_customer", "Total Customer (AccNum) Berdasarkan Area", strs(sums, ColArea), floatCol(sums, sum))
	c.Series[0].Name = ColCustomer
	c.XLabel = ColArea
	c.YLabel = ColCustomer
	c.ColorScale = "Blues"
	return c, nil
}

// GateFlowChart groups flow in and flow out per gate, gates in name order.
func GateFlowChart(df dataframe.DataFrame) (*charts.Chart, error) {
	sums, err := aggregate(df, []string{ColGate}, dataframe.Aggregation_SUM, ColGateFlowIn, ColGateFlowOut)
	if err != nil || sums.Nrow() == 0 {
		return nil, err
	}
	sums = sums.Arrange(dataframe.Sort(ColGate))
	if sums.Err != nil {
		return nil, sums.Err
	}
	c := charts.NewMultiBar("gate_flow", "Total Flow In vs Flow Out Berdasarkan Gate", false, strs(sums, ColGate),
		charts.Series{Name: ColGateFlowIn, Values: floatCol(sums, aggCol(ColGateFlowIn, dataframe.Aggregation_SUM))},
		charts.Series{Name: ColGateFlowOut, Values: floatCol(sums, aggCol(ColGateFlowOut, dataframe.Aggregation_SUM))},
	)
	c.XLabel = ColGate
	c.YLabel = "Jumlah"
	return c, nil
}

// BuildTraffic computes the area traffic and gate flow page.
func BuildTraffic(area, gate dataframe.DataFrame) (*Result, error) {
	area, err := LoadAreaTraffic(area)
	if err != nil {
		return nil, err
	}
	if gate, err = LoadGateFlow(gate); err != nil {
		return nil, err
	}

	res := &Result{
		Page:  models.PageTraffic,
		Title: "Area Traffic & Gate Flow",
		KPIs: []KPI{
			countKPI("total_area_customer", "Total Area Traffic (Customer)", total(area, ColCustomer)),
			countKPI("total_gate_flow_in", "Total Gate Flow In", total(gate, ColGateFlowIn)),
			countKPI("total_gate_flow_out", "Total Gate Flow Out", total(gate, ColGateFlowOut)),
		},
	}
	c, err := AreaCustomerChart(area)
	if err != nil {
		return nil, err
	}
	if c != nil {
		res.add(c)
	} else {
		res.notice("Tidak ada data 'Customer' yang ditemukan di file Area Traffic.")
	}
	if c, err = GateFlowChart(gate); err != nil {
		return nil, err
	}
	if c != nil {
		res.add(c)
	} else {
		res.notice("Tidak ada data 'Gate Flow' yang ditemukan di file Gate Flow.")
	}
	res.add(frameTable("area_raw", "Data Mentah Area Traffic", area, nil))
	res.add(frameTable("gate_raw", "Data Mentah Gate Flow", gate, nil))
	return res, nil
}
