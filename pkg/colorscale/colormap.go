// Package colorscale builds the color machinery for connectivity pattern
// tables: sequential colormaps derived from a single base color, two fixed
// diverging colormaps for signed aggregated fields, and a zero-centered
// normalization that pins the value 0 to the colormap midpoint.
package colorscale

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/connplot/connplot/pkg/errors"
)

// BadColor is the sentinel used for masked ("invalid") cells, independent
// of the colormap and value range. Pale yellow so excluded regions are
// visually distinct from any mapped value.
var BadColor = colorful.Color{R: 1, G: 1, B: 0.9375} // #fffff0, ivory

type stop struct {
	pos   float64
	color colorful.Color
}

// Map is a piecewise-linear colormap over [0, 1]. Out-of-range inputs are
// clamped. Masked cells render as [BadColor] regardless of the stops.
type Map struct {
	Name  string
	stops []stop
}

// At returns the color for a normalized value in [0, 1].
func (m Map) At(v float64) colorful.Color {
	if len(m.stops) == 0 {
		return BadColor
	}
	if v <= m.stops[0].pos {
		return m.stops[0].color
	}
	last := m.stops[len(m.stops)-1]
	if v >= last.pos {
		return last.color
	}
	for i := 1; i < len(m.stops); i++ {
		if v > m.stops[i].pos {
			continue
		}
		lo, hi := m.stops[i-1], m.stops[i]
		t := (v - lo.pos) / (hi.pos - lo.pos)
		return lo.color.BlendRgb(hi.color, t)
	}
	return last.color
}

// Sequential builds a colormap interpolating linearly from white at 0 to
// base at 1.
func Sequential(name string, base colorful.Color) Map {
	return Map{
		Name: name,
		stops: []stop{
			{0, colorful.Color{R: 1, G: 1, B: 1}},
			{1, base},
		},
	}
}

// SequentialSpec builds a sequential colormap from a color specification
// (a known color name or a #rrggbb hex string).
func SequentialSpec(spec string) (Map, error) {
	base, err := ParseColor(spec)
	if err != nil {
		return Map{}, err
	}
	return Sequential(spec, base), nil
}

// BlueWhiteRed is the fixed diverging colormap for signed fields: blue at
// 0, white at the midpoint, red at 1. Combined with [ZeroCenterNorm], the
// white band always sits at value zero.
var BlueWhiteRed = Map{
	Name: "bluewhitered",
	stops: []stop{
		{0, colorful.Color{R: 0, G: 0, B: 1}},
		{0.5, colorful.Color{R: 1, G: 1, B: 1}},
		{1, colorful.Color{R: 1, G: 0, B: 0}},
	},
}

// RedWhiteBlue is the mirror of [BlueWhiteRed].
var RedWhiteBlue = Map{
	Name: "redwhiteblue",
	stops: []stop{
		{0, colorful.Color{R: 1, G: 0, B: 0}},
		{0.5, colorful.Color{R: 1, G: 1, B: 1}},
		{1, colorful.Color{R: 0, G: 0, B: 1}},
	},
}

// namedColors is the small set of base-color names accepted in synapse
// type declarations. Anything else must be given as #rrggbb.
var namedColors = map[string]string{
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"magenta": "#ff00ff",
	"cyan":    "#00ffff",
	"yellow":  "#ffff00",
	"black":   "#000000",
	"gray":    "#808080",
	"brown":   "#a52a2a",
}

// ParseColor resolves a color specification: a #rrggbb hex string or one
// of the known color names. Unknown specifications are a config error.
func ParseColor(spec string) (colorful.Color, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if hex, ok := namedColors[s]; ok {
		s = hex
	}
	if !strings.HasPrefix(s, "#") {
		return colorful.Color{}, errors.New(errors.ErrCodeBadColor, "unknown color %q", spec)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, errors.Wrap(errors.ErrCodeBadColor, err, "invalid color %q", spec)
	}
	return c, nil
}
