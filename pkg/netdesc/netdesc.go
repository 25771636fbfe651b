// Package netdesc reads declarative network descriptions.
//
// A network description lists layers, connections and (optionally) explicit
// synapse-type groups, plus display options. The canonical on-disk format is
// TOML; JSON is accepted as well. This package only decodes the file into
// raw lists — it is the already-validated external schema of the core, and
// all semantic validation (unknown layers, duplicate names, spec shapes)
// happens when the model is built from it.
//
// # Example
//
//	[[layers]]
//	name   = "retina"
//	extent = [2.0, 2.0]
//
//	[[connections]]
//	from          = "retina"
//	to            = "cortex"
//	synapse_model = "AMPA"
//	targets       = { model = "pyr" }
//	mask          = { circular = { radius = 0.5 } }
//	kernel        = { gaussian = { p_center = 1.0, sigma = 0.25 } }
//	weights       = 2.0
package netdesc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/connplot/connplot/pkg/errors"
)

// Layer is a named spatial region. Extent is (width, height); an extent of
// (0, 0) marks a singular layer (valid sender, skipped as target).
type Layer struct {
	Name   string    `toml:"name" json:"name"`
	Extent []float64 `toml:"extent" json:"extent"`
}

// Connection is one raw (sender, target, properties) triple. Mask, Kernel
// and Weights keep the single-key dictionary shape of the input schema;
// they are parsed into typed specs by the kernel package.
type Connection struct {
	From         string         `toml:"from" json:"from"`
	To           string         `toml:"to" json:"to"`
	SynapseModel string         `toml:"synapse_model" json:"synapse_model"`
	Sources      map[string]any `toml:"sources,omitempty" json:"sources,omitempty"`
	Targets      map[string]any `toml:"targets,omitempty" json:"targets,omitempty"`
	Mask         map[string]any `toml:"mask" json:"mask"`
	Kernel       any            `toml:"kernel" json:"kernel"`
	Weights      any            `toml:"weights" json:"weights"`
}

// SynapseDef declares one synapse type: its model name, relative weight
// (sign encodes excitatory/inhibitory) and base color for the sequential
// colormap.
type SynapseDef struct {
	Name   string  `toml:"name" json:"name"`
	Weight float64 `toml:"weight" json:"weight"`
	Color  string  `toml:"color" json:"color"`
}

// SynapseGroup is one row of the synapse display grid. A sender uses the
// types of exactly one group (a modeling convention, not enforced here).
type SynapseGroup struct {
	Types []SynapseDef `toml:"types" json:"types"`
}

// Options carries display options that travel with the description.
type Options struct {
	// Intensity is the wp/p/tcd intensity mode ("" = wp).
	Intensity string `toml:"intensity,omitempty" json:"intensity,omitempty"`
	// PopRank overrides the alphabetical population sort order.
	PopRank map[string]int `toml:"pop_rank,omitempty" json:"pop_rank,omitempty"`
	// Charges maps neuron model names to charge magnitudes (tcd mode).
	Charges map[string]float64 `toml:"charges,omitempty" json:"charges,omitempty"`
}

// Description is a complete decoded network description.
type Description struct {
	Layers      []Layer        `toml:"layers" json:"layers"`
	Connections []Connection   `toml:"connections" json:"connections"`
	Synapses    []SynapseGroup `toml:"synapses,omitempty" json:"synapses,omitempty"`
	Options     Options        `toml:"options,omitempty" json:"options,omitempty"`
}

// Load reads a network description file, selecting the format by file
// extension (.toml or .json).
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBadNetworkFile, err, "reading %s", path)
	}
	return Parse(data, FormatForPath(path))
}

// FormatForPath selects the wire format by file extension. Unknown
// extensions map to an invalid format that Parse rejects.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}
	return Format(strings.ToLower(filepath.Ext(path)))
}

// Format selects the wire format of a network description.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Parse decodes a network description from raw bytes.
func Parse(data []byte, format Format) (*Description, error) {
	var d Description
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBadNetworkFile, err, "decoding TOML network description")
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBadNetworkFile, err, "decoding JSON network description")
		}
	default:
		return nil, errors.New(errors.ErrCodeBadNetworkFile, "unknown network description format %q", format)
	}
	if len(d.Layers) == 0 {
		return nil, errors.New(errors.ErrCodeBadNetworkFile, "network description declares no layers")
	}
	return &d, nil
}
