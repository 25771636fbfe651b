package sink

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"

	"github.com/connplot/connplot/pkg/plan"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	pxPerMM float64
	labels  bool
}

// WithPNGPixelsPerMM sets the raster density (default 4).
func WithPNGPixelsPerMM(s float64) PNGOption {
	return func(r *pngRenderer) { r.pxPerMM = s }
}

// WithoutPNGLabels suppresses legend names and tick labels.
func WithoutPNGLabels() PNGOption {
	return func(r *pngRenderer) { r.labels = false }
}

// RenderPNG paints the plan into a raster image.
func RenderPNG(p *plan.Plan, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{pxPerMM: 4, labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	w := max(1, int(p.Bounds.Width*r.pxPerMM))
	h := max(1, int(p.Bounds.Height*r.pxPerMM))
	ox, oy := -p.Bounds.Left, -p.Bounds.Top
	px := func(mm float64) float64 { return mm * r.pxPerMM }

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for _, b := range p.Blanks {
		dc.SetRGB(0.8, 0.8, 0.8)
		dc.SetLineWidth(1)
		dc.DrawRectangle(px(b.Left+ox), px(b.Top+oy), px(b.Width), px(b.Height))
		dc.Stroke()
	}

	for _, pt := range p.Patches {
		pw := max(1, int(px(pt.Rect.Width)))
		ph := max(1, int(px(pt.Rect.Height)))
		img := fieldImage(pt.Field, pt.CMap, pt.Norm(), pw, ph)
		dc.DrawImage(img, int(px(pt.Rect.Left+ox)), int(px(pt.Rect.Top+oy)))

		dc.SetRGB(0.27, 0.27, 0.27)
		dc.SetLineWidth(1)
		dc.DrawRectangle(px(pt.Rect.Left+ox), px(pt.Rect.Top+oy), px(pt.Rect.Width), px(pt.Rect.Height))
		dc.Stroke()
	}

	for _, lg := range p.Legends {
		pw := max(1, int(px(lg.Rect.Width)))
		ph := max(1, int(px(lg.Rect.Height)))
		dc.DrawImage(gradientImage(lg.CMap, pw, ph), int(px(lg.Rect.Left+ox)), int(px(lg.Rect.Top+oy)))

		dc.SetRGB(0.27, 0.27, 0.27)
		dc.SetLineWidth(1)
		dc.DrawRectangle(px(lg.Rect.Left+ox), px(lg.Rect.Top+oy), px(lg.Rect.Width), px(lg.Rect.Height))
		dc.Stroke()

		if !r.labels {
			continue
		}
		if lg.Synapse != "" {
			dc.DrawStringAnchored(lg.Synapse, px(lg.Rect.Left+ox), px(lg.Rect.Top+oy)-3, 0, 1)
		}
		if lg.VMax-lg.VMin > 0 {
			norm := lg.Norm()
			for _, tick := range lg.Ticks {
				x := px(lg.Rect.Left+ox) + norm.Norm(tick)*px(lg.Rect.Width)
				y := px(lg.Rect.Bottom() + oy)
				dc.DrawLine(x, y, x, y+3)
				dc.Stroke()
				dc.DrawStringAnchored(fmt.Sprintf("%.3g", tick), x, y+5, 0.5, 1)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
