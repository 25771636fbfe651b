package sink

import (
	"encoding/json"

	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/layout"
	"github.com/connplot/connplot/pkg/plan"
)

type jsonRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Box holds (x, y, w, h) axes fractions for a bottom-left-origin
	// backend.
	Box [4]float64 `json:"box"`
}

type jsonField struct {
	Nx int `json:"nx"`
	Ny int `json:"ny"`
	// Values are row-major starting at the bottom row; masked cells are
	// null.
	Values []*float64 `json:"values"`
}

type jsonPatch struct {
	SenderLayer string    `json:"sender_layer"`
	SenderPop   string    `json:"sender_pop,omitempty"`
	TargetLayer string    `json:"target_layer"`
	TargetPop   string    `json:"target_pop,omitempty"`
	Synapse     string    `json:"synapse,omitempty"`
	Rect        jsonRect  `json:"rect"`
	CMap        string    `json:"cmap"`
	VMin        float64   `json:"vmin"`
	VMax        float64   `json:"vmax"`
	Diverging   bool      `json:"diverging,omitempty"`
	Field       jsonField `json:"field"`
}

type jsonLegend struct {
	Synapse   string    `json:"synapse,omitempty"`
	Rect      jsonRect  `json:"rect"`
	CMap      string    `json:"cmap"`
	VMin      float64   `json:"vmin"`
	VMax      float64   `json:"vmax"`
	Diverging bool      `json:"diverging,omitempty"`
	Ticks     []float64 `json:"ticks"`
}

type jsonOutput struct {
	ID       string       `json:"id"`
	Mode     string       `json:"mode"`
	Width    float64      `json:"width_mm"`
	Height   float64      `json:"height_mm"`
	FieldMin float64      `json:"field_min"`
	FieldMax float64      `json:"field_max"`
	Patches  []jsonPatch  `json:"patches"`
	Blanks   []jsonRect   `json:"blanks,omitempty"`
	Legends  []jsonLegend `json:"legends"`
}

// RenderJSON serializes the plan for an external renderer. Rectangles
// carry both absolute millimeter coordinates and axes-fraction boxes.
func RenderJSON(p *plan.Plan) ([]byte, error) {
	out := jsonOutput{
		ID:       p.ID,
		Mode:     p.Mode.String(),
		Width:    p.Bounds.Width,
		Height:   p.Bounds.Height,
		FieldMin: p.FieldMin,
		FieldMax: p.FieldMax,
	}
	for _, pt := range p.Patches {
		out.Patches = append(out.Patches, jsonPatch{
			SenderLayer: pt.Key.SenderLayer,
			SenderPop:   pt.Key.SenderPop,
			TargetLayer: pt.Key.TargetLayer,
			TargetPop:   pt.Key.TargetPop,
			Synapse:     pt.Key.Synapse,
			Rect:        rect(pt.Rect, p.Bounds),
			CMap:        pt.CMap.Name,
			VMin:        pt.VMin,
			VMax:        pt.VMax,
			Diverging:   pt.Diverging,
			Field:       field(pt.Field),
		})
	}
	for _, b := range p.Blanks {
		out.Blanks = append(out.Blanks, rect(b, p.Bounds))
	}
	for _, lg := range p.Legends {
		out.Legends = append(out.Legends, jsonLegend{
			Synapse:   lg.Synapse,
			Rect:      rect(lg.Rect, p.Bounds),
			CMap:      lg.CMap.Name,
			VMin:      lg.VMin,
			VMax:      lg.VMax,
			Diverging: lg.Diverging,
			Ticks:     lg.Ticks,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func rect(r, total layout.Rect) jsonRect {
	x, y, w, h := layout.ScaledBox(r, total)
	return jsonRect{
		Left:   r.Left,
		Top:    r.Top,
		Width:  r.Width,
		Height: r.Height,
		Box:    [4]float64{x, y, w, h},
	}
}

func field(f *kernel.Field) jsonField {
	out := jsonField{Nx: f.Nx, Ny: f.Ny, Values: make([]*float64, len(f.Values))}
	for i := range f.Values {
		if f.Masked[i] {
			continue
		}
		v := f.Values[i]
		out.Values[i] = &v
	}
	return out
}
