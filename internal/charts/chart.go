// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package charts holds the chart specifications returned by the page
// endpoints and renders the plottable kinds to PNG.
//
// A Chart is plain data: categories, series, heatmap grids, treemap nodes,
// scatter points or table rows, depending on Kind. Clients draw the JSON
// form themselves; RenderPNG draws bar, line, scatter and heatmap charts
// server side.
package charts

import "errors"

// Kind names the chart type.
type Kind string

// Chart kinds.
const (
	KindBar        Kind = "bar"
	KindGroupedBar Kind = "grouped_bar"
	KindStackedBar Kind = "stacked_bar"
	KindFacetedBar Kind = "faceted_bar"
	KindLine       Kind = "line"
	KindHeatmap    Kind = "heatmap"
	KindTreemap    Kind = "treemap"
	KindRadar      Kind = "radar"
	KindScatter    Kind = "scatter"
	KindTable      Kind = "table"
)

// ErrNotRenderable is returned by RenderPNG for kinds that are JSON only.
var ErrNotRenderable = errors.New("chart kind has no PNG rendering")

// ErrEmptyChart is returned by RenderPNG when there is nothing to draw.
var ErrEmptyChart = errors.New("chart has no data")

// Chart is one chart specification.
type Chart struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`
	// ValueFormat is a printf-style hint for value labels, e.g. ".2f".
	ValueFormat string `json:"value_format,omitempty"`
	// ColorScale names a continuous scale for single-series colouring.
	ColorScale string `json:"color_scale,omitempty"`

	// Categories are the x values of bar and line charts and the axes of
	// a radar chart.
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series,omitempty"`
	Facets     []Facet   `json:"facets,omitempty"`
	Heatmap    *Heatmap  `json:"heatmap,omitempty"`
	Treemap    *TreeNode `json:"treemap,omitempty"`
	Points     []Point   `json:"points,omitempty"`
	Table      *Table    `json:"table,omitempty"`
}

// Series is a named run of values aligned with Chart.Categories.
type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color,omitempty"`
	Values []float64 `json:"values"`
}

// Facet is one panel of a faceted chart; all facets share the chart's
// categories.
type Facet struct {
	Name   string   `json:"name"`
	Series []Series `json:"series"`
}

// Heatmap is a Y by X grid. Z[i][j] is the cell at Y[i], X[j].
type Heatmap struct {
	X []string    `json:"x"`
	Y []string    `json:"y"`
	Z [][]float64 `json:"z"`
}

// TreeNode is a treemap node. Value on an inner node is the sum of its
// children.
type TreeNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Value    float64     `json:"value"`
	Color    string      `json:"color,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Point is one scatter point. Size scales the marker when set.
type Point struct {
	X     float64            `json:"x"`
	Y     float64            `json:"y"`
	Size  float64            `json:"size,omitempty"`
	Label string             `json:"label,omitempty"`
	Group string             `json:"group,omitempty"`
	Color string             `json:"color,omitempty"`
	Extra map[string]float64 `json:"extra,omitempty"`
}

// Table is tabular chart data.
type Table struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// NewBar builds a single-series bar chart.
func NewBar(id, title string, categories []string, values []float64) *Chart {
	return &Chart{
		ID:         id,
		Kind:       KindBar,
		Title:      title,
		Categories: categories,
		Series:     []Series{{Name: title, Values: values}},
	}
}

// NewMultiBar builds a grouped or stacked bar chart.
func NewMultiBar(id, title string, stacked bool, categories []string, series ...Series) *Chart {
	kind := KindGroupedBar
	if stacked {
		kind = KindStackedBar
	}
	return &Chart{ID: id, Kind: kind, Title: title, Categories: categories, Series: series}
}

// NewLine builds a line chart with one or more series.
func NewLine(id, title string, categories []string, series ...Series) *Chart {
	return &Chart{ID: id, Kind: KindLine, Title: title, Categories: categories, Series: series}
}

// NewHeatmap builds a heatmap chart.
func NewHeatmap(id, title string, h *Heatmap) *Chart {
	return &Chart{ID: id, Kind: KindHeatmap, Title: title, Heatmap: h}
}

// NewTreemap builds a treemap chart rooted at root.
func NewTreemap(id, title string, root *TreeNode) *Chart {
	return &Chart{ID: id, Kind: KindTreemap, Title: title, Treemap: root}
}

// NewTable builds a table chart.
func NewTable(id, title string, columns []string, rows [][]interface{}) *Chart {
	return &Chart{ID: id, Kind: KindTable, Title: title, Table: &Table{Columns: columns, Rows: rows}}
}

// Renderable reports whether RenderPNG supports the chart's kind.
func (c *Chart) Renderable() bool {
	switch c.Kind {
	case KindBar, KindGroupedBar, KindStackedBar, KindLine, KindScatter, KindHeatmap:
		return true
	}
	return false
}

// Child returns the child of n labelled label, adding it when absent.
func (n *TreeNode) Child(label string) *TreeNode {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	c := &TreeNode{ID: n.ID + "/" + label, Label: label}
	n.Children = append(n.Children, c)
	return c
}

// Add adds v to n and every node on path below it, creating nodes as
// needed, and returns the leaf.
func (n *TreeNode) Add(v float64, path ...string) *TreeNode {
	n.Value += v
	node := n
	for _, p := range path {
		node = node.Child(p)
		node.Value += v
	}
	return node
}
