package colorscale

import (
	"math"

	"github.com/emer/etable/v2/minmax"

	"github.com/connplot/connplot/pkg/errors"
)

// Normalizer maps data values into [0, 1] colormap coordinates.
type Normalizer interface {
	Norm(v float64) float64
}

// LinearNorm maps [vmin, vmax] linearly onto [0, 1], clamping values
// outside the range. It suits sequential colormaps, where the low end
// of the map belongs to the low end of the data rather than to zero.
type LinearNorm struct {
	lim minmax.F64
}

// NewLinearNorm creates a linear norm over [vmin, vmax].
func NewLinearNorm(vmin, vmax float64) *LinearNorm {
	n := &LinearNorm{}
	n.lim.Set(vmin, vmax)
	return n
}

// Norm maps a value to [0, 1]. A degenerate range maps everything to 0.
func (n *LinearNorm) Norm(v float64) float64 {
	if n.lim.Max <= n.lim.Min {
		return 0
	}
	v = math.Max(n.lim.Min, math.Min(n.lim.Max, v))
	return (v - n.lim.Min) / (n.lim.Max - n.lim.Min)
}

// ZeroCenterNorm maps values to [0, 1] so that 0 always lands on 0.5,
// aligning the white band of a diverging colormap with value zero even
// when the data range is asymmetric. The lower limit is clamped to <= 0
// and the upper limit to >= 0.
//
// The zero value is usable: limits are established by [ZeroCenterNorm.SetLimits]
// or grown from data via [ZeroCenterNorm.Autoscale]. Normalizing or
// inverting before any limits exist is an error.
type ZeroCenterNorm struct {
	lim minmax.F64
	set bool
}

// NewZeroCenterNorm creates a norm with explicit limits.
// vmin is clamped to <= 0 and vmax to >= 0.
func NewZeroCenterNorm(vmin, vmax float64) *ZeroCenterNorm {
	n := &ZeroCenterNorm{}
	n.SetLimits(vmin, vmax)
	return n
}

// SetLimits establishes the value range, clamping vmin <= 0 <= vmax.
func (n *ZeroCenterNorm) SetLimits(vmin, vmax float64) {
	n.lim.Set(math.Min(vmin, 0), math.Max(vmax, 0))
	n.set = true
}

// Autoscale grows the limits to cover every value in vals. Zero stays
// inside the range by construction.
func (n *ZeroCenterNorm) Autoscale(vals []float64) {
	vmin, vmax := 0.0, 0.0
	if n.set {
		vmin, vmax = n.lim.Min, n.lim.Max
	}
	for _, v := range vals {
		vmin = math.Min(vmin, v)
		vmax = math.Max(vmax, v)
	}
	n.SetLimits(vmin, vmax)
}

// Limits returns the established range. ok is false before any limits
// have been set.
func (n *ZeroCenterNorm) Limits() (lim minmax.F64, ok bool) {
	return n.lim, n.set
}

// Norm maps a value to [0, 1] with 0 pinned to 0.5. Values outside the
// limits are clamped. Norm panics if no limits have been established;
// use NormChecked when the caller cannot guarantee that.
func (n *ZeroCenterNorm) Norm(v float64) float64 {
	if !n.set {
		panic("colorscale: ZeroCenterNorm used before limits were established")
	}
	v = math.Max(n.lim.Min, math.Min(n.lim.Max, v))
	switch {
	case v < 0:
		// n.lim.Min < 0 is guaranteed here: v was clamped to >= Min and
		// Min <= 0, so v < 0 implies Min < 0.
		return 0.5 * (n.lim.Min - v) / n.lim.Min
	case v > 0:
		return 0.5 + 0.5*v/n.lim.Max
	}
	return 0.5
}

// NormSlice maps a vector of values through [ZeroCenterNorm.Norm].
func (n *ZeroCenterNorm) NormSlice(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = n.Norm(v)
	}
	return out
}

// Inverse maps a normalized value in [0, 1] back to the data range.
// It is the exact inverse of Norm on {vmin, 0, vmax} and the numeric
// inverse elsewhere. Inverting before limits exist is an error.
func (n *ZeroCenterNorm) Inverse(u float64) (float64, error) {
	if !n.set {
		return 0, errors.New(errors.ErrCodeBadLimits, "cannot invert zero-centered norm before limits are established")
	}
	switch {
	case u < 0.5:
		return n.lim.Min - 2*n.lim.Min*u, nil
	case u > 0.5:
		return 2 * (u - 0.5) * n.lim.Max, nil
	}
	return 0, nil
}
