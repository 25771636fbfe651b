package kernel

import (
	"math"
	"testing"

	"github.com/connplot/connplot/pkg/errors"
)

func TestParseMask(t *testing.T) {
	tests := []struct {
		name    string
		spec    map[string]any
		want    string
		wantErr bool
	}{
		{"circular", map[string]any{"circular": map[string]any{"radius": 1.5}}, "circular(r=1.5)", false},
		{"doughnut", map[string]any{"doughnut": map[string]any{"inner_radius": 0.5, "outer_radius": 1.0}}, "doughnut(r=0.5..1)", false},
		{"rectangular", map[string]any{"rectangular": map[string]any{
			"lower_left":  []any{-1.0, -1.0},
			"upper_right": []any{1.0, 1.0},
		}}, "rect(-1,-1..1,1)", false},
		{"int radius", map[string]any{"circular": map[string]any{"radius": int64(2)}}, "circular(r=2)", false},

		{"empty", map[string]any{}, "", true},
		{"two keys", map[string]any{"circular": map[string]any{"radius": 1.0}, "doughnut": map[string]any{}}, "", true},
		{"unknown kind", map[string]any{"hexagonal": map[string]any{"radius": 1.0}}, "", true},
		{"negative radius", map[string]any{"circular": map[string]any{"radius": -1.0}}, "", true},
		{"inverted doughnut", map[string]any{"doughnut": map[string]any{"inner_radius": 1.0, "outer_radius": 0.5}}, "", true},
		{"missing radius", map[string]any{"circular": map[string]any{}}, "", true},
		{"nan radius", map[string]any{"circular": map[string]any{"radius": math.NaN()}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMask(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMask error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.IsSchema(err) {
					t.Errorf("error is not a schema error: %v", err)
				}
				return
			}
			if got := m.Summary(); got != tt.want {
				t.Errorf("Summary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseKernel(t *testing.T) {
	k, err := ParseKernel(0.75)
	if err != nil {
		t.Fatalf("scalar kernel: %v", err)
	}
	if got := k.Eval(3, -2); got != 0.75 {
		t.Errorf("constant Eval = %v, want 0.75", got)
	}

	k, err = ParseKernel(map[string]any{"gaussian": map[string]any{"p_center": 1.0, "sigma": 1.0}})
	if err != nil {
		t.Fatalf("gaussian kernel: %v", err)
	}
	if got := k.Eval(0, 0); got != 1.0 {
		t.Errorf("gaussian Eval(0,0) = %v, want 1", got)
	}
	want := math.Exp(-0.5)
	if got := k.Eval(1, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("gaussian Eval(1,0) = %v, want %v", got, want)
	}

	for name, spec := range map[string]any{
		"zero sigma":   map[string]any{"gaussian": map[string]any{"p_center": 1.0, "sigma": 0.0}},
		"unknown kind": map[string]any{"lorentzian": map[string]any{"gamma": 1.0}},
		"string":       "1.0",
	} {
		if _, err := ParseKernel(spec); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseWeight_Means(t *testing.T) {
	tests := []struct {
		name string
		spec any
		mean float64
	}{
		{"scalar", 2.0, 2.0},
		{"negative scalar", -1.5, -1.5},
		{"uniform", map[string]any{"uniform": map[string]any{"min": 1.0, "max": 3.0}}, 2.0},
		{"gaussian", map[string]any{"gaussian": map[string]any{"mu": -0.5, "sigma": 0.1}}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWeight(tt.spec)
			if err != nil {
				t.Fatalf("ParseWeight: %v", err)
			}
			if got := w.Mean(); got != tt.mean {
				t.Errorf("Mean = %v, want %v", got, tt.mean)
			}
		})
	}

	if _, err := ParseWeight(map[string]any{"uniform": map[string]any{"min": 3.0, "max": 1.0}}); err == nil {
		t.Error("inverted uniform range: expected error")
	}
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		extent [2]float64
		res    int
		nx, ny int
	}{
		{[2]float64{2, 2}, 100, 100, 100},
		{[2]float64{2, 1}, 100, 100, 50},
		{[2]float64{1, 2}, 100, 50, 100},
		{[2]float64{3, 1}, 90, 90, 30},
	}
	for _, tt := range tests {
		nx, ny := GridSize(tt.extent, tt.res)
		if nx != tt.nx || ny != tt.ny {
			t.Errorf("GridSize(%v, %d) = (%d, %d), want (%d, %d)",
				tt.extent, tt.res, nx, ny, tt.nx, tt.ny)
		}
	}
}

// Gaussian kernel inside a unit circular mask over a 2x2 extent: the center
// must be close to the peak and the corners (distance > 1) must be masked.
func TestEvaluate_GaussianCircular(t *testing.T) {
	mask := CircularMask{Radius: 1.0}
	k := GaussianKernel{PCenter: 1.0, Sigma: 1.0}
	f, err := Evaluate(mask, k, EvalParams{
		Extent:     [2]float64{2, 2},
		Intensity:  IntensityWP,
		MeanWeight: 1.0,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if f.Nx != 100 || f.Ny != 100 {
		t.Fatalf("grid = %dx%d, want 100x100", f.Nx, f.Ny)
	}

	cx, cy := f.Nx/2, f.Ny/2
	if f.IsMasked(cx, cy) {
		t.Fatal("center cell is masked")
	}
	if got := f.At(cx, cy); math.Abs(got-1.0) > 1e-3 {
		t.Errorf("center value = %v, want ~1.0", got)
	}

	for _, c := range [][2]int{{0, 0}, {0, f.Ny - 1}, {f.Nx - 1, 0}, {f.Nx - 1, f.Ny - 1}} {
		if !f.IsMasked(c[0], c[1]) {
			t.Errorf("corner cell (%d,%d) is not masked", c[0], c[1])
		}
	}

	// No NaN/Inf escapes on unmasked cells.
	for i, v := range f.Values {
		if !f.Masked[i] && (math.IsNaN(v) || math.IsInf(v, 0)) {
			t.Fatalf("non-finite cell value %v at %d", v, i)
		}
	}
}

func TestEvaluate_IntensityModes(t *testing.T) {
	mask := CircularMask{Radius: 10}
	k := ConstantKernel{Value: 0.5}
	base := EvalParams{Extent: [2]float64{1, 1}, Resolution: 4, MeanWeight: -2.0}

	wp := base
	wp.Intensity = IntensityWP
	f, err := Evaluate(mask, k, wp)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.At(0, 0); got != 1.0 { // |w| * k = 2 * 0.5
		t.Errorf("wp value = %v, want 1", got)
	}

	p := base
	p.Intensity = IntensityP
	f, err = Evaluate(mask, k, p)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.At(0, 0); got != 0.5 {
		t.Errorf("p value = %v, want 0.5", got)
	}

	tcd := base
	tcd.Intensity = IntensityTCD
	tcd.Charge = 3.0
	f, err = Evaluate(mask, k, tcd)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.At(0, 0); got != 3.0 { // |q| * |w| * k = 3 * 2 * 0.5
		t.Errorf("tcd value = %v, want 3", got)
	}

	tcd.Charge = 0
	if _, err := Evaluate(mask, k, tcd); !errors.Is(err, errors.ErrCodeBadCharge) {
		t.Errorf("tcd without charge: error = %v, want %v", err, errors.ErrCodeBadCharge)
	}
}

func TestCombine(t *testing.T) {
	f := NewField(2, 2)
	f.SetValue(0, 0, 1.0)
	f.SetValue(1, 0, 2.0)
	// (0,1) and (1,1) stay masked.

	out, err := Combine([]*Field{f})
	if err != nil {
		t.Fatal(err)
	}
	if out == f {
		t.Fatal("Combine returned an aliased field")
	}
	if out.At(0, 0) != 1.0 || out.At(1, 0) != 2.0 {
		t.Error("single-field combine changed values")
	}
	if !out.IsMasked(0, 1) || !out.IsMasked(1, 1) {
		t.Error("single-field combine changed mask")
	}

	// Doubled field: same mask, doubled values at unmasked cells.
	out2, err := Combine([]*Field{f, f})
	if err != nil {
		t.Fatal(err)
	}
	if got := out2.At(0, 0); got != 2.0 {
		t.Errorf("combined value = %v, want 2", got)
	}
	for i := range f.Masked {
		if out2.Masked[i] != f.Masked[i] {
			t.Fatalf("mask of f+f differs from f at cell %d", i)
		}
	}

	// Disjoint masks: union of valid cells, masked cells contribute 0.
	g := NewField(2, 2)
	g.SetValue(0, 1, 5.0)
	out3, err := Combine([]*Field{f, g})
	if err != nil {
		t.Fatal(err)
	}
	if out3.IsMasked(0, 0) || out3.IsMasked(0, 1) {
		t.Error("cell valid in one input must be valid in the sum")
	}
	if !out3.IsMasked(1, 1) {
		t.Error("cell masked in every input must stay masked")
	}
	if got := out3.At(0, 1); got != 5.0 {
		t.Errorf("value = %v, want 5", got)
	}

	if _, err := Combine(nil); err == nil {
		t.Error("empty combine: expected error")
	}
	if _, err := Combine([]*Field{f, NewField(3, 2)}); err == nil {
		t.Error("size mismatch: expected error")
	}
}

func TestScaled_DoesNotMutate(t *testing.T) {
	f := NewField(1, 1)
	f.SetValue(0, 0, 2.0)
	s := f.Scaled(-1.5)
	if got := s.At(0, 0); got != -3.0 {
		t.Errorf("scaled value = %v, want -3", got)
	}
	if got := f.At(0, 0); got != 2.0 {
		t.Errorf("original mutated: %v", got)
	}
}
