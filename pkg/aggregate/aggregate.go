// Package aggregate reduces a model's connection table to the items of a
// single display: depending on the mode, synapse types and/or populations
// are summed away before the fields are handed to layout and planning.
package aggregate

import (
	"strings"

	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/model"
)

// Mode selects which dimensions of the connection table are summed away.
type Mode int

const (
	// ModeDetailed emits one item per connection-table key.
	ModeDetailed Mode = iota
	// ModeSelect is detailed restricted to an explicit synapse-type subset.
	ModeSelect
	// ModePopulation sums over synapse types per population pair, scaling
	// each field by its type's relative weight first.
	ModePopulation
	// ModeLayer sums over populations per (layer pair, synapse type).
	ModeLayer
	// ModeTotals sums over both, with relative-weight scaling.
	ModeTotals
)

func (m Mode) String() string {
	switch m {
	case ModeDetailed:
		return "detailed"
	case ModeSelect:
		return "select"
	case ModePopulation:
		return "population"
	case ModeLayer:
		return "layer"
	case ModeTotals:
		return "totals"
	}
	return "unknown"
}

// Options selects the aggregation mode through two independent flags plus
// an optional explicit synapse subset. The subset cannot be combined with
// either flag.
type Options struct {
	// ByGroup sums populations away.
	ByGroup bool
	// BySynapse sums synapse types away.
	BySynapse bool
	// Synapses restricts the detailed view to the named types.
	Synapses []string
}

// Mode resolves the flag combination, rejecting contradictory settings.
func (o Options) Mode() (Mode, error) {
	if len(o.Synapses) > 0 {
		if o.ByGroup || o.BySynapse {
			return 0, errors.New(errors.ErrCodeBadMode,
				"synapse subset %v cannot be combined with aggregation flags", o.Synapses)
		}
		return ModeSelect, nil
	}
	switch {
	case o.ByGroup && o.BySynapse:
		return ModeTotals, nil
	case o.BySynapse:
		return ModePopulation, nil
	case o.ByGroup:
		return ModeLayer, nil
	}
	return ModeDetailed, nil
}

// Item is one emitted display entry: a combined field plus the identity
// needed to locate its patch in the layout. Aggregated-away dimensions
// have empty Pop/Synapse fields.
type Item struct {
	SenderLayer string
	SenderPop   string
	TargetLayer string
	TargetPop   string
	// Synapse is empty when synapse types were summed away.
	Synapse string

	Field *kernel.Field
}

// Key returns the patch-table key the item maps to.
func (it *Item) Key() model.Key {
	return model.Key{
		SenderLayer: it.SenderLayer,
		SenderPop:   it.SenderPop,
		TargetLayer: it.TargetLayer,
		TargetPop:   it.TargetPop,
		Synapse:     it.Synapse,
	}
}

// Run reduces the model's connection table according to the options.
// Only combinations with at least one contributing record are emitted;
// emission order follows the table's deterministic key order.
func Run(m *model.Model, opts Options) ([]*Item, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}

	subset := make(map[string]bool, len(opts.Synapses))
	for _, name := range opts.Synapses {
		if _, ok := m.Syn.ByName(name); !ok {
			return nil, errors.New(errors.ErrCodeUnknownSynapse,
				"synapse subset names unknown type %q (known: %s)", name, strings.Join(typeNames(m), ", "))
		}
		subset[name] = true
	}

	scaleByWeight := mode == ModePopulation || mode == ModeTotals

	var (
		items  []*Item
		index  = make(map[model.Key]int)
		fields = make(map[model.Key][]*kernel.Field)
	)
	for _, key := range m.Keys() {
		if mode == ModeSelect && !subset[key.Synapse] {
			continue
		}
		reduced := reduceKey(key, mode)

		for _, r := range m.RecordsFor(key) {
			f, err := r.Field()
			if err != nil {
				return nil, err
			}
			if scaleByWeight {
				st, ok := m.Syn.ByName(key.Synapse)
				if !ok {
					return nil, errors.New(errors.ErrCodeInternal,
						"record synapse %q missing from type grid", key.Synapse)
				}
				f = f.Scaled(st.RelativeWeight)
			}
			if _, seen := index[reduced]; !seen {
				index[reduced] = len(items)
				items = append(items, &Item{
					SenderLayer: reduced.SenderLayer,
					SenderPop:   reduced.SenderPop,
					TargetLayer: reduced.TargetLayer,
					TargetPop:   reduced.TargetPop,
					Synapse:     reduced.Synapse,
				})
			}
			fields[reduced] = append(fields[reduced], f)
		}
	}

	for _, it := range items {
		combined, err := kernel.Combine(fields[it.Key()])
		if err != nil {
			return nil, err
		}
		it.Field = combined
	}
	return items, nil
}

// reduceKey blanks out the dimensions a mode sums away.
func reduceKey(k model.Key, mode Mode) model.Key {
	switch mode {
	case ModePopulation:
		k.Synapse = ""
	case ModeLayer:
		k.SenderPop, k.TargetPop = "", ""
	case ModeTotals:
		k.SenderPop, k.TargetPop, k.Synapse = "", "", ""
	}
	return k
}

func typeNames(m *model.Model) []string {
	var names []string
	for _, st := range m.Syn.Types() {
		names = append(names, st.Name)
	}
	return names
}
