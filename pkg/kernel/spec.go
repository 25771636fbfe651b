// Package kernel evaluates spatial connection kernels over sampled 2-D grids.
//
// A connection in the network description carries three declarative pieces:
// a mask (spatial predicate limiting valid target offsets), a kernel
// (connection probability as a function of offset) and a weight. This
// package represents each as a small closed set of concrete types, parsed
// from the single-key dictionaries of the input schema, and combines them
// into a masked numeric [Field].
package kernel

import (
	"fmt"
	"math"

	"github.com/connplot/connplot/pkg/errors"
)

// Mask is a spatial predicate restricting which offsets from the sender are
// valid connection targets. Implementations are [CircularMask],
// [DoughnutMask] and [RectangularMask].
type Mask interface {
	// Contains reports whether the offset (x, y) lies inside the mask.
	Contains(x, y float64) bool
	// Summary returns a short human-readable description for reports.
	Summary() string
}

// CircularMask admits offsets within Radius of the sender.
type CircularMask struct {
	Radius float64
}

func (m CircularMask) Contains(x, y float64) bool {
	return x*x+y*y <= m.Radius*m.Radius
}

func (m CircularMask) Summary() string { return fmt.Sprintf("circular(r=%g)", m.Radius) }

// DoughnutMask admits offsets with distance in [Inner, Outer].
type DoughnutMask struct {
	Inner, Outer float64
}

func (m DoughnutMask) Contains(x, y float64) bool {
	d2 := x*x + y*y
	return d2 >= m.Inner*m.Inner && d2 <= m.Outer*m.Outer
}

func (m DoughnutMask) Summary() string {
	return fmt.Sprintf("doughnut(r=%g..%g)", m.Inner, m.Outer)
}

// RectangularMask admits offsets within the axis-aligned rectangle spanned
// by LowerLeft and UpperRight.
type RectangularMask struct {
	LowerLeft  [2]float64
	UpperRight [2]float64
}

func (m RectangularMask) Contains(x, y float64) bool {
	return x >= m.LowerLeft[0] && x <= m.UpperRight[0] &&
		y >= m.LowerLeft[1] && y <= m.UpperRight[1]
}

func (m RectangularMask) Summary() string {
	return fmt.Sprintf("rect(%g,%g..%g,%g)", m.LowerLeft[0], m.LowerLeft[1], m.UpperRight[0], m.UpperRight[1])
}

// Kernel is a connection intensity as a function of target offset.
// Implementations are [ConstantKernel] and [GaussianKernel].
type Kernel interface {
	Eval(x, y float64) float64
	Summary() string
}

// ConstantKernel is a flat connection probability.
type ConstantKernel struct {
	Value float64
}

func (k ConstantKernel) Eval(x, y float64) float64 { return k.Value }

func (k ConstantKernel) Summary() string { return fmt.Sprintf("const(%g)", k.Value) }

// GaussianKernel is a radially symmetric gaussian profile with peak PCenter
// at zero offset and standard deviation Sigma.
type GaussianKernel struct {
	PCenter float64
	Sigma   float64
}

func (k GaussianKernel) Eval(x, y float64) float64 {
	return k.PCenter * math.Exp(-(x*x+y*y)/(2*k.Sigma*k.Sigma))
}

func (k GaussianKernel) Summary() string {
	return fmt.Sprintf("gaussian(p=%g, sigma=%g)", k.PCenter, k.Sigma)
}

// Weight is a synaptic weight specification. Only its mean is used by the
// evaluator; the mean's sign disambiguates excitatory vs. inhibitory when
// the synapse model alone cannot. Implementations are [ScalarWeight],
// [UniformWeight] and [GaussianWeight].
type Weight interface {
	Mean() float64
	Summary() string
}

// ScalarWeight is a fixed weight value.
type ScalarWeight struct {
	Value float64
}

func (w ScalarWeight) Mean() float64 { return w.Value }

func (w ScalarWeight) Summary() string { return fmt.Sprintf("%g", w.Value) }

// UniformWeight draws weights uniformly from [Min, Max].
type UniformWeight struct {
	Min, Max float64
}

func (w UniformWeight) Mean() float64 { return (w.Min + w.Max) / 2 }

func (w UniformWeight) Summary() string { return fmt.Sprintf("uniform(%g..%g)", w.Min, w.Max) }

// GaussianWeight draws weights from a normal distribution.
type GaussianWeight struct {
	Mu    float64
	Sigma float64
}

func (w GaussianWeight) Mean() float64 { return w.Mu }

func (w GaussianWeight) Summary() string { return fmt.Sprintf("gaussian(mu=%g, sigma=%g)", w.Mu, w.Sigma) }

// singleKey extracts the single top-level key of a spec dictionary.
// Zero or more than one key is a schema error: the input dispatches on
// exactly one spec kind at a time.
func singleKey(spec map[string]any, code errors.Code, what string) (string, any, error) {
	if len(spec) != 1 {
		return "", nil, errors.New(code, "%s spec must have exactly one key, got %d", what, len(spec))
	}
	for k, v := range spec {
		return k, v, nil
	}
	panic("unreachable")
}

// param reads a required finite numeric parameter from a spec dictionary.
func param(params map[string]any, name string, code errors.Code, what string) (float64, error) {
	raw, ok := params[name]
	if !ok {
		return 0, errors.New(code, "%s spec missing parameter %q", what, name)
	}
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(code, "%s parameter %q is not a finite number: %v", what, name, raw)
	}
	return v, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toParams(v any, code errors.Code, what string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New(code, "%s spec parameters must be a table", what)
	}
	return m, nil
}

func toPoint(v any, code errors.Code, what, name string) ([2]float64, error) {
	var p [2]float64
	s, ok := v.([]any)
	if !ok || len(s) != 2 {
		return p, errors.New(code, "%s parameter %q must be a pair of numbers", what, name)
	}
	for i, e := range s {
		f, ok := toFloat(e)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return p, errors.New(code, "%s parameter %q is not a finite pair", what, name)
		}
		p[i] = f
	}
	return p, nil
}

// ParseMask converts a raw single-key mask dictionary into a [Mask].
// Recognized shapes: circular{radius}, doughnut{inner_radius, outer_radius},
// rectangular{lower_left, upper_right}.
func ParseMask(spec map[string]any) (Mask, error) {
	kind, raw, err := singleKey(spec, errors.ErrCodeBadMaskSpec, "mask")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "circular":
		params, err := toParams(raw, errors.ErrCodeBadMaskSpec, "circular mask")
		if err != nil {
			return nil, err
		}
		r, err := param(params, "radius", errors.ErrCodeBadMaskSpec, "circular mask")
		if err != nil {
			return nil, err
		}
		if r <= 0 {
			return nil, errors.New(errors.ErrCodeBadMaskSpec, "circular mask radius must be positive, got %g", r)
		}
		return CircularMask{Radius: r}, nil

	case "doughnut":
		params, err := toParams(raw, errors.ErrCodeBadMaskSpec, "doughnut mask")
		if err != nil {
			return nil, err
		}
		inner, err := param(params, "inner_radius", errors.ErrCodeBadMaskSpec, "doughnut mask")
		if err != nil {
			return nil, err
		}
		outer, err := param(params, "outer_radius", errors.ErrCodeBadMaskSpec, "doughnut mask")
		if err != nil {
			return nil, err
		}
		if inner < 0 || outer <= inner {
			return nil, errors.New(errors.ErrCodeBadMaskSpec,
				"doughnut mask needs 0 <= inner_radius < outer_radius, got %g, %g", inner, outer)
		}
		return DoughnutMask{Inner: inner, Outer: outer}, nil

	case "rectangular":
		params, err := toParams(raw, errors.ErrCodeBadMaskSpec, "rectangular mask")
		if err != nil {
			return nil, err
		}
		llRaw, ok := params["lower_left"]
		if !ok {
			return nil, errors.New(errors.ErrCodeBadMaskSpec, "rectangular mask missing parameter %q", "lower_left")
		}
		urRaw, ok := params["upper_right"]
		if !ok {
			return nil, errors.New(errors.ErrCodeBadMaskSpec, "rectangular mask missing parameter %q", "upper_right")
		}
		ll, err := toPoint(llRaw, errors.ErrCodeBadMaskSpec, "rectangular mask", "lower_left")
		if err != nil {
			return nil, err
		}
		ur, err := toPoint(urRaw, errors.ErrCodeBadMaskSpec, "rectangular mask", "upper_right")
		if err != nil {
			return nil, err
		}
		if ur[0] < ll[0] || ur[1] < ll[1] {
			return nil, errors.New(errors.ErrCodeBadMaskSpec, "rectangular mask upper_right must not be below lower_left")
		}
		return RectangularMask{LowerLeft: ll, UpperRight: ur}, nil
	}
	return nil, errors.New(errors.ErrCodeBadMaskSpec, "unknown mask kind %q", kind)
}

// ParseKernel converts a raw kernel specification into a [Kernel].
// A bare number is a constant kernel; a single-key dictionary selects
// gaussian{p_center, sigma}.
func ParseKernel(spec any) (Kernel, error) {
	if v, ok := toFloat(spec); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New(errors.ErrCodeBadKernelSpec, "constant kernel is not finite: %v", spec)
		}
		return ConstantKernel{Value: v}, nil
	}

	m, ok := spec.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeBadKernelSpec, "kernel spec must be a number or a table")
	}
	kind, raw, err := singleKey(m, errors.ErrCodeBadKernelSpec, "kernel")
	if err != nil {
		return nil, err
	}
	if kind != "gaussian" {
		return nil, errors.New(errors.ErrCodeBadKernelSpec, "unknown kernel kind %q", kind)
	}
	params, err := toParams(raw, errors.ErrCodeBadKernelSpec, "gaussian kernel")
	if err != nil {
		return nil, err
	}
	pc, err := param(params, "p_center", errors.ErrCodeBadKernelSpec, "gaussian kernel")
	if err != nil {
		return nil, err
	}
	sigma, err := param(params, "sigma", errors.ErrCodeBadKernelSpec, "gaussian kernel")
	if err != nil {
		return nil, err
	}
	if sigma <= 0 {
		return nil, errors.New(errors.ErrCodeBadKernelSpec, "gaussian kernel sigma must be positive, got %g", sigma)
	}
	return GaussianKernel{PCenter: pc, Sigma: sigma}, nil
}

// ParseWeight converts a raw weight specification into a [Weight].
// A bare number is a scalar weight; a single-key dictionary selects
// uniform{min, max} or gaussian{mu, sigma}.
func ParseWeight(spec any) (Weight, error) {
	if v, ok := toFloat(spec); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New(errors.ErrCodeBadWeightSpec, "scalar weight is not finite: %v", spec)
		}
		return ScalarWeight{Value: v}, nil
	}

	m, ok := spec.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeBadWeightSpec, "weight spec must be a number or a table")
	}
	kind, raw, err := singleKey(m, errors.ErrCodeBadWeightSpec, "weight")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "uniform":
		params, err := toParams(raw, errors.ErrCodeBadWeightSpec, "uniform weight")
		if err != nil {
			return nil, err
		}
		lo, err := param(params, "min", errors.ErrCodeBadWeightSpec, "uniform weight")
		if err != nil {
			return nil, err
		}
		hi, err := param(params, "max", errors.ErrCodeBadWeightSpec, "uniform weight")
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, errors.New(errors.ErrCodeBadWeightSpec, "uniform weight needs min <= max, got %g, %g", lo, hi)
		}
		return UniformWeight{Min: lo, Max: hi}, nil

	case "gaussian":
		params, err := toParams(raw, errors.ErrCodeBadWeightSpec, "gaussian weight")
		if err != nil {
			return nil, err
		}
		mu, err := param(params, "mu", errors.ErrCodeBadWeightSpec, "gaussian weight")
		if err != nil {
			return nil, err
		}
		sigma, err := param(params, "sigma", errors.ErrCodeBadWeightSpec, "gaussian weight")
		if err != nil {
			return nil, err
		}
		if sigma < 0 {
			return nil, errors.New(errors.ErrCodeBadWeightSpec, "gaussian weight sigma must not be negative, got %g", sigma)
		}
		return GaussianWeight{Mu: mu, Sigma: sigma}, nil
	}
	return nil, errors.New(errors.ErrCodeBadWeightSpec, "unknown weight kind %q", kind)
}
