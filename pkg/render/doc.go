// Package render holds the output side of the figure pipeline.
//
// # Overview
//
// Rendering is split from planning: the plan package resolves every
// geometric and color decision into a backend-agnostic description, and
// the [sink] subpackage turns that description into concrete bytes.
// Nothing below this directory recomputes layout or normalization; a
// plan renders identically through every sink.
//
//	p, err := plan.Build(m, items, l, params, opts)
//	svg := sink.RenderSVG(p)
//	png, err := sink.RenderPNG(p)
//	raw, err := sink.RenderJSON(p)
//
// The table report in [sink.RenderTable] is the one exception: it reads
// the model's connection records directly, since it lists inputs rather
// than drawing the figure.
package render
