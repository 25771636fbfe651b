// Package pkg provides the core libraries for connectivity pattern plotting.
//
// # Overview
//
// Connplot renders the connectivity of layered neuronal networks as a
// table of kernel patches, one patch per sender/target/synapse
// combination. The pkg directory is organized into four main areas:
//
//  1. Domain logic: [netdesc], [model], [kernel], [aggregate]
//  2. Figure construction: [layout], [colorscale], [plan], [styles]
//  3. Output: [render/sink]
//  4. Orchestration and infrastructure: [pipeline], [cache], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	network description file (TOML/JSON)
//	         ↓
//	    [netdesc] package (decode raw lists)
//	         ↓
//	    [model] package (validate, classify synapses, evaluate kernels)
//	         ↓
//	    [aggregate] package (sum away populations and/or synapse types)
//	         ↓
//	    [layout] + [plan] packages (mm geometry, color limits, legends)
//	         ↓
//	    [render/sink] package (SVG/PNG/JSON/table output)
//
// The [pipeline] package wires these stages together behind a single
// Runner with artifact caching; the CLI and the preview server both go
// through it.
package pkg
