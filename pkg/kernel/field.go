package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/connplot/connplot/pkg/errors"
)

// Field is a 2-D sampled numeric grid. Cells marked in Masked are excluded
// ("invalid") rather than zero: they lay outside every contributing mask.
// Values is row-major with Ny rows of Nx columns; row 0 is the bottom of
// the sampled extent (y = -h/2).
type Field struct {
	Nx, Ny int
	Values []float64
	Masked []bool
}

// NewField allocates a field of nx columns by ny rows with every cell masked.
func NewField(nx, ny int) *Field {
	f := &Field{
		Nx:     nx,
		Ny:     ny,
		Values: make([]float64, nx*ny),
		Masked: make([]bool, nx*ny),
	}
	for i := range f.Masked {
		f.Masked[i] = true
	}
	return f
}

func (f *Field) idx(ix, iy int) int { return iy*f.Nx + ix }

// At returns the value at column ix, row iy.
func (f *Field) At(ix, iy int) float64 { return f.Values[f.idx(ix, iy)] }

// IsMasked reports whether the cell at column ix, row iy is excluded.
func (f *Field) IsMasked(ix, iy int) bool { return f.Masked[f.idx(ix, iy)] }

// SetValue stores a value at column ix, row iy and marks the cell valid.
func (f *Field) SetValue(ix, iy int, v float64) {
	i := f.idx(ix, iy)
	f.Values[i] = v
	f.Masked[i] = false
}

// Clone returns an independent deep copy of the field.
func (f *Field) Clone() *Field {
	c := &Field{
		Nx:     f.Nx,
		Ny:     f.Ny,
		Values: make([]float64, len(f.Values)),
		Masked: make([]bool, len(f.Masked)),
	}
	copy(c.Values, f.Values)
	copy(c.Masked, f.Masked)
	return c
}

// Scaled returns a fresh field with every value multiplied by c.
// The mask is unchanged. The receiver is never mutated, so memoized
// fields stay safe to share.
func (f *Field) Scaled(c float64) *Field {
	s := f.Clone()
	floats.Scale(c, s.Values)
	return s
}

// Range returns the minimum and maximum over unmasked cells.
// ok is false when every cell is masked.
func (f *Field) Range() (min, max float64, ok bool) {
	vals := f.unmasked(nil)
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// unmasked appends the values of unmasked cells to dst and returns it.
func (f *Field) unmasked(dst []float64) []float64 {
	for i, v := range f.Values {
		if !f.Masked[i] {
			dst = append(dst, v)
		}
	}
	return dst
}

// Combine sums fields element-wise. A masked cell contributes 0 to the sum;
// the result cell is masked if and only if it is masked in every input
// (mask intersection). The result is always a fresh field, even for a
// single input.
func Combine(fields []*Field) (*Field, error) {
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "combine called with no fields")
	}
	nx, ny := fields[0].Nx, fields[0].Ny
	out := NewField(nx, ny)
	for _, f := range fields {
		if f.Nx != nx || f.Ny != ny {
			return nil, errors.New(errors.ErrCodeInternal,
				"combine size mismatch: %dx%d vs %dx%d", f.Nx, f.Ny, nx, ny)
		}
		for i, v := range f.Values {
			if f.Masked[i] {
				continue
			}
			out.Values[i] += v
			out.Masked[i] = false
		}
	}
	return out, nil
}

// finite reports whether every unmasked cell holds a finite number.
func (f *Field) finite() bool {
	for i, v := range f.Values {
		if !f.Masked[i] && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return false
		}
	}
	return true
}
