// Package model builds the canonical in-memory representation of a network
// description: layers, synapse-type groups, resolved connection records,
// and the population set. All schema validation happens here, eagerly, so
// downstream components (aggregation, layout, planning) operate on a
// structure that cannot be partially invalid.
package model

import (
	"sort"

	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/netdesc"
)

// Layer is a named spatial region with a 2-D extent.
type Layer struct {
	Name   string
	Extent [2]float64
}

// Singular reports whether the layer has zero extent. Singular layers are
// valid senders but are skipped entirely as targets.
func (l Layer) Singular() bool { return l.Extent[0] == 0 && l.Extent[1] == 0 }

// Key identifies one slot of the connection table. Pop fields are empty
// when the connection carries no population restriction; Synapse is the
// resolved synapse type name.
type Key struct {
	SenderLayer string
	SenderPop   string
	TargetLayer string
	TargetPop   string
	Synapse     string
}

// Population identifies a neuron group within a layer. Pop is empty for
// the unrestricted ("whole layer") population.
type Population struct {
	Layer string
	Pop   string
}

// Config bundles the evaluation settings fixed at model construction.
// Kernel fields are memoized per record, so these cannot change afterwards.
type Config struct {
	// Intensity selects the wp/p/tcd combination policy.
	Intensity kernel.Intensity
	// Resolution is the sample count along the longer extent side
	// (0 = kernel.DefaultResolution).
	Resolution int
	// Charges maps neuron model names to charge magnitudes, consulted in
	// tcd mode: first by target population model, then by target layer.
	Charges map[string]float64
	// PopRank overrides the alphabetical population sort order.
	PopRank map[string]int
}

// Model is the canonical representation of a network description.
type Model struct {
	Layers []Layer
	Syn    *SynapseGrid

	Records []*Record

	table map[Key][]*Record
	keys  []Key // table iteration order (insertion order, deterministic)

	senderPops map[string][]string // layer -> ordered sender population names
	targetPops map[string][]string // layer -> ordered target population names

	cfg Config
}

// Build constructs a Model from a decoded network description. All
// schema errors (unknown layers, duplicate names, bad spec shapes,
// unknown synapse models, bad restrictions) abort eagerly with no
// partial result.
func Build(d *netdesc.Description, cfg Config) (*Model, error) {
	m := &Model{
		table:      make(map[Key][]*Record),
		senderPops: make(map[string][]string),
		targetPops: make(map[string][]string),
		cfg:        cfg,
	}

	layerByName := make(map[string]Layer, len(d.Layers))
	for _, raw := range d.Layers {
		if raw.Name == "" {
			return nil, errors.New(errors.ErrCodeUnknownLayer, "layer with empty name")
		}
		if _, dup := layerByName[raw.Name]; dup {
			return nil, errors.New(errors.ErrCodeDuplicateLayer, "duplicate layer %q", raw.Name)
		}
		if len(raw.Extent) != 2 {
			return nil, errors.New(errors.ErrCodeBadNetworkFile,
				"layer %q extent must be a (width, height) pair", raw.Name)
		}
		if raw.Extent[0] < 0 || raw.Extent[1] < 0 {
			return nil, errors.New(errors.ErrCodeBadNetworkFile,
				"layer %q extent must not be negative", raw.Name)
		}
		l := Layer{Name: raw.Name, Extent: [2]float64{raw.Extent[0], raw.Extent[1]}}
		layerByName[raw.Name] = l
		m.Layers = append(m.Layers, l)
	}

	// Parse the spec dictionaries of every connection up front: weight
	// means are needed both for synapse-type inference and for records.
	type parsedConn struct {
		raw    netdesc.Connection
		mask   kernel.Mask
		kern   kernel.Kernel
		weight kernel.Weight
	}
	parsed := make([]parsedConn, 0, len(d.Connections))
	var observed []ObservedSynapse
	for i, c := range d.Connections {
		mask, err := kernel.ParseMask(c.Mask)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d (%s -> %s)", i, c.From, c.To)
		}
		kern, err := kernel.ParseKernel(c.Kernel)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d (%s -> %s)", i, c.From, c.To)
		}
		weight, err := kernel.ParseWeight(c.Weights)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d (%s -> %s)", i, c.From, c.To)
		}
		parsed = append(parsed, parsedConn{raw: c, mask: mask, kern: kern, weight: weight})
		observed = append(observed, ObservedSynapse{
			Model: c.SynapseModel,
			Sign:  sign(weight.Mean()),
		})
	}

	if len(d.Synapses) > 0 {
		g, err := NewSynapseGrid(d.Synapses)
		if err != nil {
			return nil, err
		}
		m.Syn = g
	} else {
		g, err := InferSynapseGrid(observed)
		if err != nil {
			return nil, err
		}
		m.Syn = g
	}

	for i, pc := range parsed {
		c := pc.raw
		sender, ok := layerByName[c.From]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownLayer,
				"connection %d references unknown sender layer %q", i, c.From)
		}
		target, ok := layerByName[c.To]
		if !ok {
			return nil, errors.New(errors.ErrCodeUnknownLayer,
				"connection %d references unknown target layer %q", i, c.To)
		}
		senderPop, err := restrictionModel(c.Sources)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d sources", i)
		}
		targetPop, err := restrictionModel(c.Targets)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d targets", i)
		}

		st, err := m.Syn.Classify(c.SynapseModel, pc.weight.Mean())
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "connection %d (%s -> %s)", i, c.From, c.To)
		}

		// Records targeting a singular layer carry no displayable kernel.
		if target.Singular() {
			continue
		}

		charge := 0.0
		if cfg.Intensity == kernel.IntensityTCD {
			charge, ok = lookupCharge(cfg.Charges, targetPop, target.Name)
			if !ok {
				return nil, errors.New(errors.ErrCodeBadCharge,
					"tcd intensity mode: no charge for target %q of connection %d", target.Name, i)
			}
		}

		r := &Record{
			SenderLayer:  sender.Name,
			SenderPop:    senderPop,
			TargetLayer:  target.Name,
			TargetPop:    targetPop,
			Synapse:      st.Name,
			Mask:         pc.mask,
			Kernel:       pc.kern,
			Weight:       pc.weight,
			TargetExtent: target.Extent,
			eval: kernel.EvalParams{
				Extent:     target.Extent,
				Resolution: cfg.Resolution,
				Intensity:  cfg.Intensity,
				MeanWeight: pc.weight.Mean(),
				Charge:     charge,
			},
		}
		m.Records = append(m.Records, r)

		key := Key{
			SenderLayer: r.SenderLayer,
			SenderPop:   r.SenderPop,
			TargetLayer: r.TargetLayer,
			TargetPop:   r.TargetPop,
			Synapse:     r.Synapse,
		}
		if _, seen := m.table[key]; !seen {
			m.keys = append(m.keys, key)
		}
		m.table[key] = append(m.table[key], r)

		m.addPop(m.senderPops, r.SenderLayer, r.SenderPop)
		m.addPop(m.targetPops, r.TargetLayer, r.TargetPop)
	}

	m.sortPops()
	return m, nil
}

// restrictionModel extracts the population name from an optional
// {"model": name} restriction dictionary. Any other shape is a schema error.
func restrictionModel(restriction map[string]any) (string, error) {
	if restriction == nil {
		return "", nil
	}
	if len(restriction) != 1 {
		return "", errors.New(errors.ErrCodeBadRestriction,
			"restriction must be exactly {model: name}, got %d keys", len(restriction))
	}
	raw, ok := restriction["model"]
	if !ok {
		return "", errors.New(errors.ErrCodeBadRestriction, "restriction must be exactly {model: name}")
	}
	name, ok := raw.(string)
	if !ok || name == "" {
		return "", errors.New(errors.ErrCodeBadRestriction, "restriction model must be a non-empty string")
	}
	return name, nil
}

func lookupCharge(charges map[string]float64, pop, layer string) (float64, bool) {
	if pop != "" {
		if q, ok := charges[pop]; ok {
			return q, true
		}
	}
	q, ok := charges[layer]
	return q, ok
}

func sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return +1
	}
	return 0
}

func (m *Model) addPop(set map[string][]string, layer, pop string) {
	for _, p := range set[layer] {
		if p == pop {
			return
		}
	}
	set[layer] = append(set[layer], pop)
}

// sortPops orders every population list by rank: explicit override first,
// else alphabetical; the unrestricted population ("") always sorts first.
func (m *Model) sortPops() {
	less := func(a, b string) bool {
		if a == "" || b == "" {
			return a == "" && b != ""
		}
		ra, oka := m.cfg.PopRank[a]
		rb, okb := m.cfg.PopRank[b]
		if oka && okb {
			return ra < rb
		}
		if oka != okb {
			return oka
		}
		return a < b
	}
	for _, set := range []map[string][]string{m.senderPops, m.targetPops} {
		for _, pops := range set {
			sort.Slice(pops, func(i, j int) bool { return less(pops[i], pops[j]) })
		}
	}
}

// Keys returns the connection-table keys in deterministic insertion order.
func (m *Model) Keys() []Key { return m.keys }

// RecordsFor returns the ordered records sharing a table key.
func (m *Model) RecordsFor(k Key) []*Record { return m.table[k] }

// Layer returns a declared layer by name.
func (m *Model) Layer(name string) (Layer, bool) {
	for _, l := range m.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// TargetLayers returns the declared layers that can appear as targets,
// in declaration order: every non-singular layer.
func (m *Model) TargetLayers() []Layer {
	var out []Layer
	for _, l := range m.Layers {
		if !l.Singular() {
			out = append(out, l)
		}
	}
	return out
}

// SenderPops returns the ordered sender populations of a layer.
// Layers that never send have none.
func (m *Model) SenderPops(layer string) []string { return m.senderPops[layer] }

// TargetPops returns the ordered target populations of a layer.
func (m *Model) TargetPops(layer string) []string { return m.targetPops[layer] }

// MaxExtent returns the largest extent side over all non-singular layers.
func (m *Model) MaxExtent() float64 {
	max := 0.0
	for _, l := range m.Layers {
		if l.Singular() {
			continue
		}
		if l.Extent[0] > max {
			max = l.Extent[0]
		}
		if l.Extent[1] > max {
			max = l.Extent[1]
		}
	}
	return max
}

// Config returns the evaluation settings the model was built with.
func (m *Model) Config() Config { return m.cfg }
