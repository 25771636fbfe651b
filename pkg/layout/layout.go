package layout

import (
	"github.com/connplot/connplot/pkg/aggregate"
	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/model"
	"github.com/connplot/connplot/pkg/styles"
)

// Legend is one colorbar rectangle. Synapse is empty for a bar shared by
// the whole figure.
type Legend struct {
	Rect    Rect
	Synapse string
}

// Layout is the finished figure geometry: the block tree, the patch
// lookup table joining aggregation items to their rectangles, and the
// legend bars.
type Layout struct {
	Mode    aggregate.Mode
	Legends []Legend

	tree    *Tree
	patches map[model.Key]NodeID
	keys    []model.Key
	blanks  []NodeID
	bounds  Rect
}

// Patch returns the rectangle registered under a patch-table key.
func (l *Layout) Patch(key model.Key) (Rect, bool) {
	id, ok := l.patches[key]
	if !ok {
		return Rect{}, false
	}
	return l.tree.Rect(id), true
}

// Keys returns the registered patch keys in construction order.
func (l *Layout) Keys() []model.Key { return l.keys }

// Blanks returns the unregistered placeholder patches, used to keep
// columns aligned when a synapse-type position has no connection.
func (l *Layout) Blanks() []Rect {
	out := make([]Rect, len(l.blanks))
	for i, id := range l.blanks {
		out[i] = l.tree.Rect(id)
	}
	return out
}

// Bounds returns the total figure rectangle including outer margins.
func (l *Layout) Bounds() Rect { return l.bounds }

// Content returns the figure rectangle without outer margins.
func (l *Layout) Content() Rect { return l.tree.Rect(l.tree.Root()) }

// Validate checks the block-extent invariant over the whole tree.
func (l *Layout) Validate() error { return l.tree.Validate() }

type builder struct {
	t     *Tree
	m     *model.Model
	p     styles.Params
	scale float64
	out   *Layout
}

// Build arranges the figure for a model under the given aggregation mode.
// Sender layers form rows, target layers columns; singular layers never
// appear as targets. All positions the mode calls for are allocated even
// when no connection fills them, so sparse networks keep their alignment.
func Build(m *model.Model, mode aggregate.Mode, p styles.Params) (*Layout, error) {
	maxExt := m.MaxExtent()
	if maxExt <= 0 {
		return nil, errors.New(errors.ErrCodeBadNetworkFile, "network has no layer with positive extent")
	}
	targets := m.TargetLayers()
	senders := senderLayers(m)
	if len(senders) == 0 || len(targets) == 0 {
		return nil, errors.New(errors.ErrCodeBadNetworkFile, "network has no displayable connections")
	}

	b := &builder{
		t:     NewTree(),
		m:     m,
		p:     p,
		scale: p.PatchSize / maxExt,
		out: &Layout{
			Mode:    mode,
			patches: make(map[model.Key]NodeID),
		},
	}
	b.out.tree = b.t

	if err := b.content(senders, targets, mode); err != nil {
		return nil, err
	}
	if err := b.legend(mode); err != nil {
		return nil, err
	}

	r := b.t.Rect(b.t.Root())
	b.out.bounds = Rect{
		Left:   r.Left - p.Margin,
		Top:    r.Top - p.Margin,
		Width:  r.Width + 2*p.Margin,
		Height: r.Height + 2*p.Margin,
	}
	return b.out, nil
}

// senderLayers returns the layers that appear as senders, in declaration
// order.
func senderLayers(m *model.Model) []model.Layer {
	var out []model.Layer
	for _, l := range m.Layers {
		if len(m.SenderPops(l.Name)) > 0 {
			out = append(out, l)
		}
	}
	return out
}

func (b *builder) content(senders, targets []model.Layer, mode aggregate.Mode) error {
	root := b.t.Root()
	byPop := mode == aggregate.ModeDetailed || mode == aggregate.ModeSelect || mode == aggregate.ModePopulation

	for si, sl := range senders {
		if si > 0 {
			if err := b.t.Pad(root, 0, b.p.BlockGap()); err != nil {
				return err
			}
		}
		slb := b.t.Block(root)

		senderPops := []string{""}
		if byPop {
			senderPops = b.m.SenderPops(sl.Name)
		}
		for pi, sp := range senderPops {
			if pi > 0 {
				if err := b.t.Pad(slb, 0, b.p.PopGap()); err != nil {
					return err
				}
			}
			rowTop := b.frontierY(slb, root)
			rowb := b.t.Block(slb)

			for _, tl := range targets {
				if !b.t.Empty(rowb) {
					if err := b.t.Pad(rowb, b.p.BlockGap(), 0); err != nil {
						return err
					}
				}
				tlb := b.t.Block(rowb)

				targetPops := []string{""}
				if byPop {
					if tps := b.m.TargetPops(tl.Name); len(tps) > 0 {
						targetPops = tps
					}
				}
				for _, tp := range targetPops {
					if !b.t.Empty(tlb) {
						if err := b.t.Pad(tlb, b.p.PopGap(), 0); err != nil {
							return err
						}
					}
					if err := b.cell(tlb, b.frontierX(tlb, rowb), rowTop, sl, sp, tl, tp, mode); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// cell lays out the patches of one (sender, target) population pair,
// starting at the enclosing block's current x frontier.
func (b *builder) cell(tlb NodeID, x0, rowTop float64, sl model.Layer, sp string, tl model.Layer, tp string, mode aggregate.Mode) error {
	tpb := b.t.Block(tlb)

	switch mode {
	case aggregate.ModeTotals:
		key := model.Key{SenderLayer: sl.Name, TargetLayer: tl.Name}
		return b.patch(tpb, x0, rowTop, tl, key, true)

	case aggregate.ModePopulation:
		key := model.Key{SenderLayer: sl.Name, SenderPop: sp, TargetLayer: tl.Name, TargetPop: tp}
		return b.patch(tpb, x0, rowTop, tl, key, true)

	case aggregate.ModeLayer:
		// One cell per declared synapse-type grid position; ragged group
		// tails stay blank so spacing never collapses.
		for row := 0; row < b.m.Syn.Rows(); row++ {
			y := rowTop
			if row > 0 {
				if err := b.t.Pad(tpb, 0, b.p.SynGap()); err != nil {
					return err
				}
				y = b.t.Rect(tpb).Bottom()
			}
			grb := b.t.Block(tpb)
			for col := 0; col < b.m.Syn.Cols(); col++ {
				x := x0
				if !b.t.Empty(grb) {
					if err := b.t.Pad(grb, b.p.SynGap(), 0); err != nil {
						return err
					}
					x = b.t.Rect(grb).Right()
				}
				st, declared := b.m.Syn.At(row, col)
				key := model.Key{SenderLayer: sl.Name, TargetLayer: tl.Name}
				if declared {
					key.Synapse = st.Name
				}
				if err := b.patch(grb, x, y, tl, key, declared); err != nil {
					return err
				}
			}
		}
		return nil

	default: // detailed, select
		// One cell per synapse-type grid position, so two types that
		// share a column (say AMPA over GABA_A) each keep their own
		// patch. Positions without a connection for this pair stay
		// blank to keep alignment.
		for row := 0; row < b.m.Syn.Rows(); row++ {
			y := rowTop
			if row > 0 {
				if err := b.t.Pad(tpb, 0, b.p.SynGap()); err != nil {
					return err
				}
				y = b.t.Rect(tpb).Bottom()
			}
			grb := b.t.Block(tpb)
			for col := 0; col < b.m.Syn.Cols(); col++ {
				x := x0
				if !b.t.Empty(grb) {
					if err := b.t.Pad(grb, b.p.SynGap(), 0); err != nil {
						return err
					}
					x = b.t.Rect(grb).Right()
				}
				st, declared := b.m.Syn.At(row, col)
				key := model.Key{SenderLayer: sl.Name, SenderPop: sp, TargetLayer: tl.Name, TargetPop: tp}
				registered := false
				if declared {
					key.Synapse = st.Name
					registered = len(b.m.RecordsFor(key)) > 0
				}
				if err := b.patch(grb, x, y, tl, key, registered); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func (b *builder) patch(parent NodeID, x, y float64, tl model.Layer, key model.Key, register bool) error {
	r := Rect{Left: x, Top: y, Width: tl.Extent[0] * b.scale, Height: tl.Extent[1] * b.scale}
	id, err := b.t.Leaf(parent, r)
	if err != nil {
		return err
	}
	if register {
		b.out.patches[key] = id
		b.out.keys = append(b.out.keys, key)
	} else {
		b.out.blanks = append(b.out.blanks, id)
	}
	return nil
}

// legend appends the colorbar rectangles below the content. Modes that
// sum synapse types away share one bar; otherwise every type gets its
// own, switching to equal-division spacing once the row gets crowded.
func (b *builder) legend(mode aggregate.Mode) error {
	root := b.t.Root()
	if err := b.t.Pad(root, 0, b.p.BlockGap()); err != nil {
		return err
	}
	content := b.t.Rect(root)
	y := content.Bottom()
	barH := b.p.PatchSize / 4

	shared := mode == aggregate.ModeTotals || mode == aggregate.ModePopulation
	if shared {
		w := min(styles.LegendFraction*content.Width, styles.LegendMaxBar)
		return b.bar(root, Rect{Left: content.Left, Top: y, Width: w, Height: barH}, "")
	}

	types := b.m.Syn.Types()
	if len(types) > styles.LegendDenseAfter {
		slot := content.Width / float64(len(types))
		w := min(slot*0.8, styles.LegendMaxBar)
		for i, st := range types {
			r := Rect{Left: content.Left + float64(i)*slot, Top: y, Width: w, Height: barH}
			if err := b.bar(root, r, st.Name); err != nil {
				return err
			}
		}
		return nil
	}

	x := content.Left
	w := min(b.p.PatchSize, styles.LegendMaxBar)
	for _, st := range types {
		if right := b.t.Rect(root).Right(); x > right {
			if err := b.t.Pad(root, x-right, 0); err != nil {
				return err
			}
		}
		if err := b.bar(root, Rect{Left: x, Top: y, Width: w, Height: barH}, st.Name); err != nil {
			return err
		}
		x += w + b.p.BlockGap()
	}
	return nil
}

func (b *builder) bar(parent NodeID, r Rect, synapse string) error {
	if _, err := b.t.Leaf(parent, r); err != nil {
		return err
	}
	b.out.Legends = append(b.out.Legends, Legend{Rect: r, Synapse: synapse})
	return nil
}

// frontierY returns the y coordinate where the next row starts.
func (b *builder) frontierY(ids ...NodeID) float64 {
	for _, id := range ids {
		if !b.t.Empty(id) {
			return b.t.Rect(id).Bottom()
		}
	}
	return 0
}

// frontierX returns the x coordinate where the next column starts.
func (b *builder) frontierX(ids ...NodeID) float64 {
	for _, id := range ids {
		if !b.t.Empty(id) {
			return b.t.Rect(id).Right()
		}
	}
	return 0
}
