package aggregate

import (
	"math"
	"testing"

	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/model"
	"github.com/connplot/connplot/pkg/netdesc"
)

func fullMask() map[string]any {
	return map[string]any{"rectangular": map[string]any{
		"lower_left":  []any{-1.0, -1.0},
		"upper_right": []any{1.0, 1.0},
	}}
}

func conn(from, to, syn string, weight float64, pops ...string) netdesc.Connection {
	c := netdesc.Connection{
		From:         from,
		To:           to,
		SynapseModel: syn,
		Mask:         fullMask(),
		Kernel:       0.5,
		Weights:      weight,
	}
	if len(pops) > 0 && pops[0] != "" {
		c.Sources = map[string]any{"model": pops[0]}
	}
	if len(pops) > 1 && pops[1] != "" {
		c.Targets = map[string]any{"model": pops[1]}
	}
	return c
}

func build(t *testing.T, d *netdesc.Description, cfg model.Config) *model.Model {
	t.Helper()
	if cfg.Resolution == 0 {
		cfg.Resolution = 8
	}
	m, err := model.Build(d, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func layers() []netdesc.Layer {
	return []netdesc.Layer{
		{Name: "a", Extent: []float64{2, 2}},
		{Name: "b", Extent: []float64{2, 2}},
	}
}

func TestOptions_Mode(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    Mode
		wantErr bool
	}{
		{"detailed", Options{}, ModeDetailed, false},
		{"population", Options{BySynapse: true}, ModePopulation, false},
		{"layer", Options{ByGroup: true}, ModeLayer, false},
		{"totals", Options{ByGroup: true, BySynapse: true}, ModeTotals, false},
		{"select", Options{Synapses: []string{"AMPA"}}, ModeSelect, false},
		{"select with flag", Options{Synapses: []string{"AMPA"}, ByGroup: true}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Mode()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeBadMode) {
					t.Errorf("error code = %v", errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetailed_CombinesSharedKey(t *testing.T) {
	d := &netdesc.Description{
		Layers: layers(),
		Connections: []netdesc.Connection{
			conn("a", "b", "static", 1.0),
			conn("a", "b", "static", 1.0),
		},
	}
	m := build(t, d, model.Config{})

	items, err := Run(m, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(items); got != 1 {
		t.Fatalf("items = %d, want 1", got)
	}
	it := items[0]
	if it.Synapse != "static" || it.SenderLayer != "a" || it.TargetLayer != "b" {
		t.Errorf("identity = %+v", it)
	}
	// Two records, each |w|*k = 0.5, summed.
	for i, v := range it.Field.Values {
		if it.Field.Masked[i] {
			t.Fatalf("cell %d masked", i)
		}
		if v != 1.0 {
			t.Fatalf("cell %d = %v, want 1.0", i, v)
		}
	}
}

func TestSelect_SubsetFilter(t *testing.T) {
	d := &netdesc.Description{
		Layers: layers(),
		Connections: []netdesc.Connection{
			conn("a", "b", "AMPA", 1.0),
			conn("a", "b", "GABA_A", -1.0),
		},
	}
	m := build(t, d, model.Config{})

	items, err := Run(m, Options{Synapses: []string{"AMPA"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 1 || items[0].Synapse != "AMPA" {
		t.Errorf("items = %+v", items)
	}

	if _, err := Run(m, Options{Synapses: []string{"nope"}}); !errors.Is(err, errors.ErrCodeUnknownSynapse) {
		t.Errorf("unknown subset error = %v", err)
	}
	if _, err := Run(m, Options{Synapses: []string{"AMPA"}, BySynapse: true}); !errors.Is(err, errors.ErrCodeBadMode) {
		t.Errorf("mixed flags error = %v", err)
	}
}

func TestPopulation_ExcInhCancellation(t *testing.T) {
	// One model with both weight signs: inferred exc(+1)/inh(-1) types.
	// Equal-magnitude constant kernels cancel exactly after relative-weight
	// scaling, and the result is unmasked everywhere.
	d := &netdesc.Description{
		Layers: layers(),
		Connections: []netdesc.Connection{
			conn("a", "b", "static", 1.0),
			conn("a", "b", "static", -1.0),
		},
	}
	m := build(t, d, model.Config{})

	items, err := Run(m, Options{BySynapse: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(items); got != 1 {
		t.Fatalf("items = %d, want 1", got)
	}
	it := items[0]
	if it.Synapse != "" {
		t.Errorf("Synapse = %q, want aggregated away", it.Synapse)
	}
	for i, v := range it.Field.Values {
		if it.Field.Masked[i] {
			t.Fatalf("cell %d masked, want unmasked", i)
		}
		if math.Abs(v) > 1e-12 {
			t.Fatalf("cell %d = %v, want 0", i, v)
		}
	}
}

func TestLayer_SumsPopulations(t *testing.T) {
	d := &netdesc.Description{
		Layers: layers(),
		Connections: []netdesc.Connection{
			conn("a", "b", "static", 1.0, "pyr"),
			conn("a", "b", "static", 1.0, "inter"),
		},
	}
	m := build(t, d, model.Config{})

	items, err := Run(m, Options{ByGroup: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(items); got != 1 {
		t.Fatalf("items = %d, want 1", got)
	}
	it := items[0]
	if it.SenderPop != "" || it.TargetPop != "" {
		t.Errorf("pops = %q, %q, want aggregated away", it.SenderPop, it.TargetPop)
	}
	if it.Synapse != "static" {
		t.Errorf("Synapse = %q, want kept", it.Synapse)
	}
	if got := it.Field.Values[0]; got != 1.0 {
		t.Errorf("summed value = %v, want 1.0", got)
	}
}

func TestTotals_IndependentOfPopOrder(t *testing.T) {
	d := &netdesc.Description{
		Layers: layers(),
		Connections: []netdesc.Connection{
			conn("a", "b", "static", 1.0, "pyr"),
			conn("a", "b", "static", 1.0, "inter"),
			conn("b", "a", "static", 1.0, "inter"),
		},
	}
	pairs := func(rank map[string]int) map[[2]string]bool {
		m := build(t, d, model.Config{PopRank: rank})
		items, err := Run(m, Options{ByGroup: true, BySynapse: true})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		out := make(map[[2]string]bool)
		for _, it := range items {
			out[[2]string{it.SenderLayer, it.TargetLayer}] = true
		}
		return out
	}

	a := pairs(nil)
	b := pairs(map[string]int{"pyr": 0, "inter": 1})
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("pair counts = %d, %d, want 2", len(a), len(b))
	}
	for p := range a {
		if !b[p] {
			t.Errorf("pair %v missing under explicit rank", p)
		}
	}
}

func TestEmptyCombinationsNotEmitted(t *testing.T) {
	d := &netdesc.Description{
		Layers:      layers(),
		Connections: []netdesc.Connection{conn("a", "b", "static", 1.0)},
	}
	m := build(t, d, model.Config{})

	items, err := Run(m, Options{ByGroup: true, BySynapse: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only a->b has records; b->a is absent, not a placeholder.
	if got := len(items); got != 1 {
		t.Fatalf("items = %d, want 1", got)
	}
}
