// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package charts

import (
	"fmt"
	"image/color"
	"io"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pixels converts a pixel size to vg lengths at the 96 dpi gonum/plot
// renders PNGs with.
func pixels(px int) vg.Length {
	return vg.Length(float64(px) * 72 / 96)
}

func newPlot(c *Chart) *plot.Plot {
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true
	return p
}

func savePlot(w io.Writer, p *plot.Plot, c *Chart, width, height int) error {
	wt, err := p.WriterTo(pixels(width), pixels(height), "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", c.ID, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", c.ID, err)
	}
	return nil
}

func renderBars(w io.Writer, c *Chart, width, height int, stacked bool) error {
	p := newPlot(c)

	groups := len(c.Series)
	slot := pixels(width-160) / vg.Length(len(c.Categories))
	barWidth := slot * 0.8
	if !stacked {
		barWidth = slot * 0.8 / vg.Length(groups)
	}

	var below *plotter.BarChart
	for i, s := range c.Series {
		vals := make(plotter.Values, len(s.Values))
		copy(vals, s.Values)
		bars, err := plotter.NewBarChart(vals, barWidth)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.Color = seriesColor(s, i)
		bars.LineStyle.Width = 0
		if stacked {
			if below != nil {
				bars.StackOn(below)
			}
			below = bars
		} else {
			bars.Offset = barWidth * (vg.Length(i) - vg.Length(groups-1)/2)
		}
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(c.Categories...)
	if rotation(c.Categories) != 0 {
		p.X.Tick.Label.Rotation = 0.785
		p.X.Tick.Label.XAlign = draw.XRight
	}
	p.Add(plotter.NewGrid())
	return savePlot(w, p, c, width, height)
}

func renderScatter(w io.Writer, c *Chart, width, height int) error {
	p := newPlot(c)

	type group struct {
		xys   plotter.XYs
		sizes []float64
		color string
	}
	groups := make(map[string]*group)
	var names []string
	maxSize := 0.0
	for _, pt := range c.Points {
		g, ok := groups[pt.Group]
		if !ok {
			g = &group{color: pt.Color}
			groups[pt.Group] = g
			names = append(names, pt.Group)
		}
		g.xys = append(g.xys, plotter.XY{X: pt.X, Y: pt.Y})
		g.sizes = append(g.sizes, pt.Size)
		if pt.Size > maxSize {
			maxSize = pt.Size
		}
	}
	sort.Strings(names)

	for i, name := range names {
		g := groups[name]
		sc, err := plotter.NewScatter(g.xys)
		if err != nil {
			return fmt.Errorf("scatter group %q: %w", name, err)
		}
		col := seriesColor(Series{Color: g.color}, i)
		sizes := g.sizes
		sc.GlyphStyleFunc = func(j int) draw.GlyphStyle {
			r := vg.Points(4)
			if maxSize > 0 && sizes[j] > 0 {
				r = vg.Points(4 + 14*sizes[j]/maxSize)
			}
			return draw.GlyphStyle{Color: col, Radius: r, Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
		if name != "" {
			p.Legend.Add(name, sc)
		}
	}
	p.Add(plotter.NewGrid())
	return savePlot(w, p, c, width, height)
}

// heatGrid adapts Heatmap to plotter.GridXYZ with cells at integer
// coordinates, so nominal axis labels line up.
type heatGrid struct {
	h *Heatmap
}

func (g heatGrid) Dims() (c, r int) { return len(g.h.X), len(g.h.Y) }

func (g heatGrid) Z(c, r int) float64 { return g.h.Z[r][c] }

func (g heatGrid) X(c int) float64 { return float64(c) }

func (g heatGrid) Y(r int) float64 { return float64(r) }

func renderHeatmap(w io.Writer, c *Chart, width, height int) error {
	h := c.Heatmap
	if len(h.X) < 2 || len(h.Y) < 2 {
		return fmt.Errorf("heatmap %s needs at least two rows and two columns", c.ID)
	}
	if len(h.Z) != len(h.Y) {
		return fmt.Errorf("heatmap %s has %d rows for %d y labels", c.ID, len(h.Z), len(h.Y))
	}
	for i, row := range h.Z {
		if len(row) != len(h.X) {
			return fmt.Errorf("heatmap %s row %d has %d cells for %d x labels", c.ID, i, len(row), len(h.X))
		}
	}

	p := newPlot(c)
	hm := plotter.NewHeatMap(heatGrid{h: h}, reversed(palette.Heat(64, 1)))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	p.NominalX(h.X...)
	p.NominalY(h.Y...)
	p.X.Tick.Label.Rotation = 0.785
	p.X.Tick.Label.XAlign = draw.XRight
	return savePlot(w, p, c, width, height)
}

// reversed runs pal from light to dark, so busier cells read hotter.
type reversedPalette []color.Color

func (r reversedPalette) Colors() []color.Color { return r }

func reversed(pal palette.Palette) palette.Palette {
	cols := pal.Colors()
	out := make(reversedPalette, len(cols))
	for i, c := range cols {
		out[len(cols)-1-i] = c
	}
	return out
}
