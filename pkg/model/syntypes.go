package model

import (
	"math"

	"github.com/connplot/connplot/pkg/colorscale"
	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/netdesc"
)

// SynapseType is one declared kind of connection. RelativeWeight's sign
// encodes excitatory (+) vs. inhibitory (-); CMap is the sequential
// colormap used when the type is displayed on its own.
type SynapseType struct {
	Name           string
	RelativeWeight float64
	CMap           colorscale.Map

	// Grid position: Row is the group index, Col the position within the
	// group, Index the linear declaration order.
	Row, Col, Index int
}

// SynapseGrid is the ordered set of synapse-type groups. The outer order
// is the row order of the display grid, the inner order the column order.
// Type names are unique across all groups.
type SynapseGrid struct {
	groups [][]*SynapseType
	byName map[string]*SynapseType

	// signBased is set when the grid was inferred from a single synapse
	// model with weights of both signs; records are then classified by
	// the sign of their mean weight instead of by model name.
	signBased bool
	signModel string
}

// NewSynapseGrid builds a grid from explicit declarations, validating
// name uniqueness and color specifications.
func NewSynapseGrid(groups []netdesc.SynapseGroup) (*SynapseGrid, error) {
	g := &SynapseGrid{byName: make(map[string]*SynapseType)}
	idx := 0
	for row, grp := range groups {
		var types []*SynapseType
		for col, def := range grp.Types {
			if def.Name == "" {
				return nil, errors.New(errors.ErrCodeUnknownSynapse, "synapse type in group %d has no name", row)
			}
			if _, dup := g.byName[def.Name]; dup {
				return nil, errors.New(errors.ErrCodeDuplicateSynapse, "duplicate synapse type %q", def.Name)
			}
			cmap, err := colorscale.SequentialSpec(def.Color)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "synapse type %q", def.Name)
			}
			st := &SynapseType{
				Name:           def.Name,
				RelativeWeight: def.Weight,
				CMap:           cmap,
				Row:            row,
				Col:            col,
				Index:          idx,
			}
			idx++
			types = append(types, st)
			g.byName[def.Name] = st
		}
		g.groups = append(g.groups, types)
	}
	if idx == 0 {
		return nil, errors.New(errors.ErrCodeUnknownSynapse, "synapse grid declares no types")
	}
	return g, nil
}

// ObservedSynapse is one distinct (synapse model, sign of mean weight)
// combination present in the raw connection list, used to infer a grid
// when none is declared.
type ObservedSynapse struct {
	Model string
	// Sign is -1, 0 or +1 for the sign of the mean weight.
	Sign int
}

// inferenceRule is one canonical grid configuration. Rules are evaluated
// in order; the first whose applicability predicate holds wins.
type inferenceRule struct {
	name    string
	applies func(models map[string]bool, signs map[int]bool) bool
	build   func(models map[string]bool) ([]netdesc.SynapseGroup, bool)
}

// receptorModels is the fixed four-type receptor layout.
var receptorModels = map[string]bool{"AMPA": true, "NMDA": true, "GABA_A": true, "GABA_B": true}

var inferenceRules = []inferenceRule{
	{
		name: "single excitatory",
		applies: func(models map[string]bool, signs map[int]bool) bool {
			return len(models) == 1 && !signs[-1]
		},
		build: func(models map[string]bool) ([]netdesc.SynapseGroup, bool) {
			name := soleKey(models)
			return []netdesc.SynapseGroup{
				{Types: []netdesc.SynapseDef{{Name: name, Weight: 1, Color: "red"}}},
			}, false
		},
	},
	{
		name: "single inhibitory",
		applies: func(models map[string]bool, signs map[int]bool) bool {
			return len(models) == 1 && !signs[+1]
		},
		build: func(models map[string]bool) ([]netdesc.SynapseGroup, bool) {
			name := soleKey(models)
			return []netdesc.SynapseGroup{
				{Types: []netdesc.SynapseDef{{Name: name, Weight: -1, Color: "blue"}}},
			}, false
		},
	},
	{
		name: "excitatory/inhibitory by weight sign",
		applies: func(models map[string]bool, signs map[int]bool) bool {
			return len(models) == 1 && signs[-1] && signs[+1]
		},
		build: func(models map[string]bool) ([]netdesc.SynapseGroup, bool) {
			return []netdesc.SynapseGroup{
				{Types: []netdesc.SynapseDef{{Name: "exc", Weight: 1, Color: "red"}}},
				{Types: []netdesc.SynapseDef{{Name: "inh", Weight: -1, Color: "blue"}}},
			}, true
		},
	},
	{
		name: "receptor types",
		applies: func(models map[string]bool, signs map[int]bool) bool {
			for m := range models {
				if !receptorModels[m] {
					return false
				}
			}
			return len(models) > 0
		},
		build: func(models map[string]bool) ([]netdesc.SynapseGroup, bool) {
			return []netdesc.SynapseGroup{
				{Types: []netdesc.SynapseDef{
					{Name: "AMPA", Weight: 1, Color: "red"},
					{Name: "NMDA", Weight: 1, Color: "orange"},
				}},
				{Types: []netdesc.SynapseDef{
					{Name: "GABA_A", Weight: -1, Color: "blue"},
					{Name: "GABA_B", Weight: -1, Color: "purple"},
				}},
			}, false
		},
	},
}

func soleKey(m map[string]bool) string {
	for k := range m {
		return k
	}
	return ""
}

// InferSynapseGrid derives a canonical grid configuration from the
// distinct (model, sign) pairs actually present in the connection list.
// Models that match no canonical configuration are a schema error.
func InferSynapseGrid(observed []ObservedSynapse) (*SynapseGrid, error) {
	models := make(map[string]bool)
	signs := make(map[int]bool)
	for _, o := range observed {
		models[o.Model] = true
		signs[o.Sign] = true
	}

	for _, rule := range inferenceRules {
		if !rule.applies(models, signs) {
			continue
		}
		groups, signBased := rule.build(models)
		g, err := NewSynapseGrid(groups)
		if err != nil {
			return nil, err
		}
		g.signBased = signBased
		if signBased {
			g.signModel = soleKey(models)
		}
		return g, nil
	}

	names := make([]string, 0, len(models))
	for m := range models {
		names = append(names, m)
	}
	return nil, errors.New(errors.ErrCodeAmbiguousSynapse,
		"cannot infer synapse types from models %v; declare them explicitly", names)
}

// Rows returns the number of groups.
func (g *SynapseGrid) Rows() int { return len(g.groups) }

// Cols returns the widest group length, the column count of the display grid.
func (g *SynapseGrid) Cols() int {
	cols := 0
	for _, grp := range g.groups {
		if len(grp) > cols {
			cols = len(grp)
		}
	}
	return cols
}

// Types returns all types in declaration order.
func (g *SynapseGrid) Types() []*SynapseType {
	var out []*SynapseType
	for _, grp := range g.groups {
		out = append(out, grp...)
	}
	return out
}

// At returns the type at a grid position, if one is declared there.
func (g *SynapseGrid) At(row, col int) (*SynapseType, bool) {
	if row < 0 || row >= len(g.groups) || col < 0 || col >= len(g.groups[row]) {
		return nil, false
	}
	return g.groups[row][col], true
}

// ByName looks up a type by name.
func (g *SynapseGrid) ByName(name string) (*SynapseType, bool) {
	st, ok := g.byName[name]
	return st, ok
}

// Classify resolves a raw connection's synapse model to a declared type.
// For sign-inferred grids, the single underlying model maps to the
// excitatory or inhibitory type according to the sign of its mean weight.
func (g *SynapseGrid) Classify(model string, meanWeight float64) (*SynapseType, error) {
	if g.signBased && model == g.signModel {
		if math.Signbit(meanWeight) && meanWeight != 0 {
			return g.byName["inh"], nil
		}
		return g.byName["exc"], nil
	}
	if st, ok := g.byName[model]; ok {
		return st, nil
	}
	return nil, errors.New(errors.ErrCodeUnknownSynapse, "connection uses unknown synapse model %q", model)
}
