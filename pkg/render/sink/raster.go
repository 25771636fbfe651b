package sink

import (
	"image"
	"image/color"

	"github.com/connplot/connplot/pkg/colorscale"
	"github.com/connplot/connplot/pkg/kernel"
)

// fieldImage rasterizes a kernel field to the given pixel size with
// nearest-neighbor sampling, mapping values through the patch's norm.
// Field row 0 is the bottom of the extent, so rows are flipped into the
// image's top-down order. Masked cells get the sentinel bad color.
func fieldImage(f *kernel.Field, cmap colorscale.Map, norm colorscale.Normalizer, pw, ph int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for py := 0; py < ph; py++ {
		fy := f.Ny - 1 - py*f.Ny/ph
		for px := 0; px < pw; px++ {
			fx := px * f.Nx / pw
			c := colorscale.BadColor
			if !f.IsMasked(fx, fy) {
				c = cmap.At(norm.Norm(f.At(fx, fy)))
			}
			r, g, b := c.RGB255()
			img.SetNRGBA(px, py, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// gradientImage paints a horizontal left-to-right sweep of the colormap.
func gradientImage(cmap colorscale.Map, pw, ph int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for px := 0; px < pw; px++ {
		u := 0.0
		if pw > 1 {
			u = float64(px) / float64(pw-1)
		}
		r, g, b := cmap.At(u).RGB255()
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		for py := 0; py < ph; py++ {
			img.SetNRGBA(px, py, c)
		}
	}
	return img
}
