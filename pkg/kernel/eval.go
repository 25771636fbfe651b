package kernel

import (
	"math"

	"github.com/connplot/connplot/pkg/errors"
)

// DefaultResolution is the number of samples along the longer side of the
// target extent when no explicit resolution is configured.
const DefaultResolution = 100

// Intensity selects how kernel probability and synaptic weight combine into
// the displayed cell value.
type Intensity int

const (
	// IntensityWP displays |weight| * probability.
	IntensityWP Intensity = iota
	// IntensityP displays the bare connection probability.
	IntensityP
	// IntensityTCD displays |charge| * |weight| * probability
	// (total charge deposited). Requires a charge for the target model.
	IntensityTCD
)

// String returns the flag spelling of the intensity mode.
func (im Intensity) String() string {
	switch im {
	case IntensityWP:
		return "wp"
	case IntensityP:
		return "p"
	case IntensityTCD:
		return "tcd"
	}
	return "unknown"
}

// ParseIntensity converts a flag value into an [Intensity].
func ParseIntensity(s string) (Intensity, error) {
	switch s {
	case "wp", "":
		return IntensityWP, nil
	case "p":
		return IntensityP, nil
	case "tcd":
		return IntensityTCD, nil
	}
	return 0, errors.New(errors.ErrCodeBadMode, "unknown intensity mode %q (want wp, p or tcd)", s)
}

// EvalParams bundles the per-connection inputs of [Evaluate].
type EvalParams struct {
	// Extent is the (width, height) of the target layer. Both must be
	// positive; singular layers are never evaluated.
	Extent [2]float64
	// Resolution is the sample count along the longer extent side.
	// Zero selects DefaultResolution.
	Resolution int
	// Intensity selects the weight/probability combination policy.
	Intensity Intensity
	// MeanWeight is the mean of the connection's weight spec.
	MeanWeight float64
	// Charge is the charge magnitude of the target neuron model,
	// consulted only in IntensityTCD mode.
	Charge float64
}

// GridSize returns the sample counts (nx, ny) for an extent at a given
// resolution: the longer side gets res samples, the shorter side a
// proportionally reduced count so cells stay square.
func GridSize(extent [2]float64, res int) (nx, ny int) {
	w, h := extent[0], extent[1]
	dx := math.Max(w, h) / float64(res)
	nx = int(math.Ceil(w / dx))
	ny = int(math.Ceil(h / dx))
	return nx, ny
}

// Evaluate samples mask and kernel over a regular grid covering
// [-w/2, w/2] x [-h/2, h/2] and returns the masked intensity field.
// Cells outside the mask are masked, not zero. The result is a pure
// function of the inputs and safe to memoize.
func Evaluate(mask Mask, k Kernel, p EvalParams) (*Field, error) {
	res := p.Resolution
	if res == 0 {
		res = DefaultResolution
	}
	if res < 0 {
		return nil, errors.New(errors.ErrCodeBadResolution, "kernel resolution must be positive, got %d", res)
	}
	w, h := p.Extent[0], p.Extent[1]
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeBadResolution,
			"cannot sample kernel over non-positive extent (%g, %g)", w, h)
	}

	var factor float64
	switch p.Intensity {
	case IntensityWP:
		factor = math.Abs(p.MeanWeight)
	case IntensityP:
		factor = 1
	case IntensityTCD:
		if p.Charge == 0 {
			return nil, errors.New(errors.ErrCodeBadCharge, "tcd intensity mode needs a charge for the target model")
		}
		factor = math.Abs(p.Charge) * math.Abs(p.MeanWeight)
	default:
		return nil, errors.New(errors.ErrCodeBadMode, "unknown intensity mode %d", p.Intensity)
	}

	nx, ny := GridSize(p.Extent, res)
	f := NewField(nx, ny)

	// Sample at cell centers so every point lies strictly inside the extent.
	cw, ch := w/float64(nx), h/float64(ny)
	for iy := 0; iy < ny; iy++ {
		y := -h/2 + (float64(iy)+0.5)*ch
		for ix := 0; ix < nx; ix++ {
			x := -w/2 + (float64(ix)+0.5)*cw
			if !mask.Contains(x, y) {
				continue
			}
			f.SetValue(ix, iy, factor*k.Eval(x, y))
		}
	}

	if !f.finite() {
		return nil, errors.New(errors.ErrCodeBadKernelSpec, "kernel produced a non-finite value")
	}
	return f, nil
}
