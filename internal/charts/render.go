// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package charts

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default PNG size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 576

	MaxWidth  = 4096
	MaxHeight = 4096
)

// RenderPNG draws c as a width by height PNG. Zero sizes take the defaults.
// Single-series bars and lines are drawn with go-chart; grouped and stacked
// bars, scatter plots and heatmaps with gonum/plot.
func RenderPNG(w io.Writer, c *Chart, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if width > MaxWidth || height > MaxHeight {
		return fmt.Errorf("image size %dx%d exceeds %dx%d", width, height, MaxWidth, MaxHeight)
	}

	switch c.Kind {
	case KindBar:
		if err := checkSeries(c); err != nil {
			return err
		}
		if len(c.Series) == 1 {
			return renderBar(w, c, width, height)
		}
		return renderBars(w, c, width, height, false)
	case KindGroupedBar, KindStackedBar:
		if err := checkSeries(c); err != nil {
			return err
		}
		return renderBars(w, c, width, height, c.Kind == KindStackedBar)
	case KindLine:
		if err := checkSeries(c); err != nil {
			return err
		}
		return renderLine(w, c, width, height)
	case KindScatter:
		if len(c.Points) == 0 {
			return ErrEmptyChart
		}
		return renderScatter(w, c, width, height)
	case KindHeatmap:
		if c.Heatmap == nil || len(c.Heatmap.X) == 0 || len(c.Heatmap.Y) == 0 {
			return ErrEmptyChart
		}
		return renderHeatmap(w, c, width, height)
	default:
		return fmt.Errorf("%w: %s", ErrNotRenderable, c.Kind)
	}
}

func checkSeries(c *Chart) error {
	if len(c.Categories) == 0 || len(c.Series) == 0 {
		return ErrEmptyChart
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Values), len(c.Categories))
		}
	}
	return nil
}

func toDrawing(hex string, fallback int) drawing.Color {
	c := seriesColor(Series{Color: hex}, fallback)
	r, g, b, a := c.RGBA()
	return drawing.Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// valueRange spans values with a little headroom and always includes zero,
// go-chart refuses a zero-width range.
func valueRange(values ...[]float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, vs := range values {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func renderBar(w io.Writer, c *Chart, width, height int) error {
	s := c.Series[0]
	fill := toDrawing(s.Color, 0)

	bars := make([]chart.Value, len(c.Categories))
	for i, cat := range c.Categories {
		bars[i] = chart.Value{
			Label: cat,
			Value: s.Values[i],
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
	}

	const spacing = 8
	barWidth := (width-120)/len(bars) - spacing
	if barWidth < 4 {
		barWidth = 4
	}
	if barWidth > 80 {
		barWidth = 80
	}

	bc := chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{TextRotationDegrees: rotation(c.Categories)},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: valueRange(s.Values)},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart %s: %w", c.ID, err)
	}
	return nil
}

func renderLine(w io.Writer, c *Chart, width, height int) error {
	xs := make([]float64, len(c.Categories))
	ticks := make([]chart.Tick, len(c.Categories))
	for i, cat := range c.Categories {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: cat}
	}

	series := make([]chart.Series, 0, len(c.Series))
	all := make([][]float64, 0, len(c.Series))
	for i, s := range c.Series {
		col := toDrawing(s.Color, i)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: s.Values,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
		all = append(all, s.Values)
	}

	maxX := float64(len(c.Categories) - 1)
	if maxX < 1 {
		maxX = 1
	}
	ch := chart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  c.XLabel,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: maxX},
			Style: chart.Style{TextRotationDegrees: rotation(c.Categories)},
		},
		YAxis:  chart.YAxis{Name: c.YLabel, Range: valueRange(all...)},
		Series: series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render line chart %s: %w", c.ID, err)
	}
	return nil
}

// rotation tilts crowded or long x labels.
func rotation(categories []string) float64 {
	longest := 0
	for _, c := range categories {
		if len(c) > longest {
			longest = len(c)
		}
	}
	if len(categories) > 12 || longest > 10 {
		return 45
	}
	return 0
}
