// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package charts

import (
	"image/color"
	"strconv"
	"strings"
)

// Bold is the qualitative palette used for cluster colours.
var Bold = []string{
	"#7F3C8D", "#11A579", "#3969AC", "#F2B701", "#E73F74", "#80BA5A",
	"#E68310", "#008695", "#CF1C90", "#F97B72", "#A5AA99",
}

// Default series colours when a series has none.
var defaultSeries = []string{
	"#00B4D8", "#F77F00", "#02C39A", "#FFB703", "#8E7DBE", "#E63946",
}

// PaletteColor returns the i-th colour of palette, wrapping around.
func PaletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[i%len(palette)]
}

// seriesColor is s.Color, or the i-th default when unset.
func seriesColor(s Series, i int) color.Color {
	if c, ok := ParseHex(s.Color); ok {
		return c
	}
	c, _ := ParseHex(PaletteColor(defaultSeries, i))
	return c
}

// ParseHex parses #RRGGBB (the leading # is optional).
func ParseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}
