// Package sink renders a resolved plot plan into concrete output formats.
//
// # Formats
//
//   - [RenderSVG] produces a vector figure with rasterized patch fields
//     embedded as images and gradient colorbars.
//   - [RenderPNG] paints the same figure into a raster image.
//   - [RenderJSON] serializes the plan for external renderers, with both
//     millimeter rectangles and axes-fraction boxes.
//   - [RenderTable] formats the raw connection table as an aligned text
//     report, one row per record.
//
// All sinks are pure: they read the plan and return bytes.
package sink
