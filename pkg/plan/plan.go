// Package plan resolves the numeric and color decisions of a figure: it
// joins aggregation items with their layout rectangles, picks a colormap
// and limits per patch, and emits legend entries with tick positions. The
// result is backend-agnostic; render sinks only paint it.
package plan

import (
	"github.com/emer/etable/v2/minmax"
	"github.com/google/uuid"

	"github.com/connplot/connplot/pkg/aggregate"
	"github.com/connplot/connplot/pkg/colorscale"
	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/layout"
	"github.com/connplot/connplot/pkg/model"
	"github.com/connplot/connplot/pkg/styles"
	"github.com/lucasb-eyer/go-colorful"
)

// Options control color-limit resolution.
type Options struct {
	// Limits forces explicit (vmin, vmax) on every patch. Explicit limits
	// always win over the other settings.
	Limits *[2]float64
	// Global shares the figure-wide field range across all patches
	// instead of normalizing each patch locally.
	Global bool
	// Symmetric forces limits symmetric around zero even when they were
	// supplied explicitly. Without explicit limits, shared limits become
	// symmetric automatically whenever synapse types are aggregated away
	// and the field minimum is negative.
	Symmetric bool
	// Ticks overrides the computed legend tick values.
	Ticks []float64
}

// Patch is one paintable rectangle: field, colormap and resolved limits.
type Patch struct {
	Key  model.Key
	Rect layout.Rect

	Field      *kernel.Field
	CMap       colorscale.Map
	VMin, VMax float64
	// Diverging pins value zero to the colormap midpoint; sequential
	// patches map the limits linearly instead.
	Diverging bool
}

// Norm returns the value-to-colormap mapping for the patch's limits.
func (p Patch) Norm() colorscale.Normalizer {
	if p.Diverging {
		return colorscale.NewZeroCenterNorm(p.VMin, p.VMax)
	}
	return colorscale.NewLinearNorm(p.VMin, p.VMax)
}

// Color maps one field value to a color under the patch's limits.
func (p Patch) Color(v float64) colorful.Color {
	return p.CMap.At(p.Norm().Norm(v))
}

// LegendEntry is one colorbar with its scale and tick values.
type LegendEntry struct {
	Rect    layout.Rect
	Synapse string // empty for a shared bar

	CMap       colorscale.Map
	VMin, VMax float64
	Ticks      []float64
	Diverging  bool
}

// Norm returns the value-to-colormap mapping for tick placement along
// the bar.
func (lg LegendEntry) Norm() colorscale.Normalizer {
	if lg.Diverging {
		return colorscale.NewZeroCenterNorm(lg.VMin, lg.VMax)
	}
	return colorscale.NewLinearNorm(lg.VMin, lg.VMax)
}

// Plan is the complete render-ready figure description.
type Plan struct {
	ID   string
	Mode aggregate.Mode

	Bounds  layout.Rect
	Content layout.Rect
	Patches []Patch
	Blanks  []layout.Rect
	Legends []LegendEntry

	// FieldMin and FieldMax span all emitted fields, clamped so that
	// FieldMin <= 0 <= FieldMax.
	FieldMin, FieldMax float64
}

// Build resolves a plan from aggregation items and their layout.
func Build(m *model.Model, items []*aggregate.Item, l *layout.Layout, p styles.Params, opts Options) (*Plan, error) {
	if opts.Limits != nil && opts.Limits[0] >= opts.Limits[1] {
		return nil, errors.New(errors.ErrCodeBadLimits,
			"explicit limits (%v, %v) must satisfy min < max", opts.Limits[0], opts.Limits[1])
	}

	// Figure-wide field range. The zero value already spans zero, which
	// every color scale must include.
	var rng minmax.F64
	for _, it := range items {
		if lo, hi, ok := it.Field.Range(); ok {
			rng.FitValInRange(lo)
			rng.FitValInRange(hi)
		}
	}
	gMin, gMax := rng.Min, rng.Max

	diverging := l.Mode == aggregate.ModeTotals || l.Mode == aggregate.ModePopulation

	pl := &Plan{
		ID:       uuid.NewString(),
		Mode:     l.Mode,
		Bounds:   l.Bounds(),
		Content:  l.Content(),
		Blanks:   l.Blanks(),
		FieldMin: gMin,
		FieldMax: gMax,
	}

	sharedMin, sharedMax := gMin, gMax
	if diverging && sharedMin < 0 {
		sharedMax = max(sharedMax, -sharedMin)
		sharedMin = -sharedMax
	}

	for _, it := range items {
		r, ok := l.Patch(it.Key())
		if !ok {
			return nil, errors.New(errors.ErrCodeGeometryFault,
				"aggregation item %+v has no layout patch", it.Key())
		}

		cmap := colorscale.BlueWhiteRed
		if !diverging {
			st, ok := m.Syn.ByName(it.Synapse)
			if !ok {
				return nil, errors.New(errors.ErrCodeInternal,
					"item synapse %q missing from type grid", it.Synapse)
			}
			cmap = st.CMap
		}

		vmin, vmax := resolveLimits(it.Field, sharedMin, sharedMax, opts)
		pl.Patches = append(pl.Patches, Patch{
			Key:       it.Key(),
			Rect:      r,
			Field:     it.Field,
			CMap:      cmap,
			VMin:      vmin,
			VMax:      vmax,
			Diverging: diverging,
		})
	}

	for _, lg := range l.Legends {
		cmap := colorscale.BlueWhiteRed
		if lg.Synapse != "" {
			st, ok := m.Syn.ByName(lg.Synapse)
			if !ok {
				return nil, errors.New(errors.ErrCodeInternal,
					"legend synapse %q missing from type grid", lg.Synapse)
			}
			cmap = st.CMap
		}
		vmin, vmax := sharedMin, sharedMax
		if opts.Limits != nil {
			vmin, vmax = explicitLimits(opts)
		}
		pl.Legends = append(pl.Legends, LegendEntry{
			Rect:      lg.Rect,
			Synapse:   lg.Synapse,
			CMap:      cmap,
			VMin:      vmin,
			VMax:      vmax,
			Ticks:     legendTicks(vmin, vmax, p.LegendTicks, opts.Ticks),
			Diverging: diverging,
		})
	}
	return pl, nil
}

func explicitLimits(opts Options) (float64, float64) {
	vmin, vmax := opts.Limits[0], opts.Limits[1]
	if opts.Symmetric {
		vmax = max(vmax, -vmin)
		vmin = -vmax
	}
	return vmin, vmax
}

// resolveLimits applies the limit policy: explicit wins, then shared
// figure-wide limits, then the patch's own range.
func resolveLimits(f *kernel.Field, sharedMin, sharedMax float64, opts Options) (float64, float64) {
	if opts.Limits != nil {
		return explicitLimits(opts)
	}
	if opts.Global {
		return sharedMin, sharedMax
	}
	vmin, vmax := 0.0, 0.0
	if lo, hi, ok := f.Range(); ok {
		vmin, vmax = min(lo, 0), max(hi, 0)
	}
	return vmin, vmax
}

// legendTicks places at most maxTicks values evenly across the data
// range, so a (0, 3) bar labels 0, 1, 2, 3 rather than bunching at zero.
func legendTicks(vmin, vmax float64, maxTicks int, explicit []float64) []float64 {
	if len(explicit) > 0 {
		return explicit
	}
	if vmax <= vmin {
		return []float64{vmin}
	}
	ticks := make([]float64, 0, maxTicks)
	for i := 0; i < maxTicks; i++ {
		u := float64(i) / float64(maxTicks-1)
		ticks = append(ticks, vmin+u*(vmax-vmin))
	}
	return ticks
}
