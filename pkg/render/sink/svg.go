package sink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/connplot/connplot/pkg/plan"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	pxPerMM    float64
	background string
	labels     bool
}

// WithPixelsPerMM sets the raster density for embedded patch images
// (default 4).
func WithPixelsPerMM(s float64) SVGOption {
	return func(r *svgRenderer) { r.pxPerMM = s }
}

// WithBackground sets the background fill color (default white).
func WithBackground(c string) SVGOption {
	return func(r *svgRenderer) { r.background = c }
}

// WithoutLabels suppresses legend names and tick labels.
func WithoutLabels() SVGOption {
	return func(r *svgRenderer) { r.labels = false }
}

// RenderSVG renders the plan as an SVG document. Patch fields are
// embedded as base64 PNG images so the vector output stays small while
// the fields keep their exact sampled values.
func RenderSVG(p *plan.Plan, opts ...SVGOption) []byte {
	r := svgRenderer{pxPerMM: 4, background: "#ffffff", labels: true}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := p.Bounds.Width, p.Bounds.Height
	ox, oy := -p.Bounds.Left, -p.Bounds.Top

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0fmm" height="%.0fmm">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, `<rect x="0" y="0" width="%.2f" height="%.2f" fill="%s"/>`+"\n", w, h, r.background)

	buf.WriteString("<defs>\n")
	for i, lg := range p.Legends {
		fmt.Fprintf(&buf, `<linearGradient id="cb%d" x1="0" y1="0" x2="1" y2="0">`+"\n", i)
		const stops = 9
		for s := 0; s <= stops; s++ {
			u := float64(s) / stops
			cr, cg, cb := lg.CMap.At(u).RGB255()
			fmt.Fprintf(&buf, `<stop offset="%.3f" stop-color="#%02x%02x%02x"/>`+"\n", u, cr, cg, cb)
		}
		buf.WriteString("</linearGradient>\n")
	}
	buf.WriteString("</defs>\n")

	for _, b := range p.Blanks {
		fmt.Fprintf(&buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="#cccccc" stroke-width="0.2"/>`+"\n",
			b.Left+ox, b.Top+oy, b.Width, b.Height)
	}

	for _, pt := range p.Patches {
		pw := max(1, int(pt.Rect.Width*r.pxPerMM))
		ph := max(1, int(pt.Rect.Height*r.pxPerMM))
		img := fieldImage(pt.Field, pt.CMap, pt.Norm(), pw, ph)

		var enc bytes.Buffer
		if err := png.Encode(&enc, img); err != nil {
			continue // in-memory encode of a valid image cannot fail
		}
		fmt.Fprintf(&buf, `<image x="%.2f" y="%.2f" width="%.2f" height="%.2f" preserveAspectRatio="none" href="data:image/png;base64,%s"/>`+"\n",
			pt.Rect.Left+ox, pt.Rect.Top+oy, pt.Rect.Width, pt.Rect.Height,
			base64.StdEncoding.EncodeToString(enc.Bytes()))
		fmt.Fprintf(&buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="#444444" stroke-width="0.2"/>`+"\n",
			pt.Rect.Left+ox, pt.Rect.Top+oy, pt.Rect.Width, pt.Rect.Height)
	}

	for i, lg := range p.Legends {
		fmt.Fprintf(&buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="url(#cb%d)" stroke="#444444" stroke-width="0.2"/>`+"\n",
			lg.Rect.Left+ox, lg.Rect.Top+oy, lg.Rect.Width, lg.Rect.Height, i)
		if !r.labels {
			continue
		}
		if lg.Synapse != "" {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="2.5">%s</text>`+"\n",
				lg.Rect.Left+ox, lg.Rect.Top+oy-1, lg.Synapse)
		}
		renderTicks(&buf, lg, ox, oy)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderTicks(buf *bytes.Buffer, lg plan.LegendEntry, ox, oy float64) {
	if lg.VMax-lg.VMin <= 0 {
		return
	}
	// The bar sweeps normalized values, so ticks are placed through the
	// bar's own norm rather than by raw value.
	norm := lg.Norm()
	for _, tick := range lg.Ticks {
		x := lg.Rect.Left + ox + norm.Norm(tick)*lg.Rect.Width
		y := lg.Rect.Bottom() + oy
		fmt.Fprintf(buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#444444" stroke-width="0.2"/>`+"\n",
			x, y, x, y+1)
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="2" text-anchor="middle">%.3g</text>`+"\n",
			x, y+3.5, tick)
	}
}
