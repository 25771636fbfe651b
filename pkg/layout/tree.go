// Package layout arranges connectivity patches as a tree of axis-aligned
// rectangles in millimeter coordinates, origin at top-left with y growing
// downward. Nodes live in a flat arena and reference their parent by
// index; appending a child grows every ancestor to keep each block's
// extent the exact union of its descendants plus explicit margins.
package layout

import (
	"github.com/connplot/connplot/pkg/errors"
)

// Rect is an axis-aligned rectangle in mm, top-left origin, y down.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// union returns the smallest rectangle enclosing both.
func (r Rect) union(o Rect) Rect {
	l, t := min(r.Left, o.Left), min(r.Top, o.Top)
	rr, bb := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{Left: l, Top: t, Width: rr - l, Height: bb - t}
}

// NodeID indexes a node in the arena.
type NodeID int

type node struct {
	parent NodeID // -1 for the root
	rect   Rect
	empty  bool // no extent established yet
	leaf   bool
	kids   []NodeID
}

// Tree is the rectangle arena. The zero value is not usable; construct
// with [NewTree], which allocates the root block.
type Tree struct {
	nodes []node
}

// NewTree returns a tree holding only an empty root block.
func NewTree() *Tree {
	return &Tree{nodes: []node{{parent: -1, empty: true}}}
}

// Root returns the root block's id.
func (t *Tree) Root() NodeID { return 0 }

// Rect returns a node's current extent.
func (t *Tree) Rect(id NodeID) Rect { return t.nodes[id].rect }

// Empty reports whether a node has no extent yet.
func (t *Tree) Empty(id NodeID) bool { return t.nodes[id].empty }

// Block appends an empty child block to parent and returns its id.
func (t *Tree) Block(parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{parent: parent, empty: true})
	t.nodes[parent].kids = append(t.nodes[parent].kids, id)
	return id
}

// Leaf places a patch rectangle under parent and grows every ancestor to
// enclose it. The rectangle's top-left corner is its extension point: it
// must lie on or inside the accumulated extent of every non-empty
// ancestor, otherwise construction order was violated and the tree is in
// an undefined state.
func (t *Tree) Leaf(parent NodeID, r Rect) (NodeID, error) {
	if err := t.checkFrontier(parent, r); err != nil {
		return 0, err
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{parent: parent, rect: r, leaf: true})
	t.nodes[parent].kids = append(t.nodes[parent].kids, id)
	t.include(parent, r)
	return id, nil
}

// Pad grows a node's extent by a margin to the right and bottom,
// propagating to its ancestors. Margins must not be negative.
func (t *Tree) Pad(id NodeID, right, bottom float64) error {
	if right < 0 || bottom < 0 {
		return errors.New(errors.ErrCodeBadMargin, "negative margin (%v, %v) on node %d", right, bottom, id)
	}
	n := &t.nodes[id]
	if n.empty {
		return nil
	}
	n.rect.Width += right
	n.rect.Height += bottom
	if n.parent >= 0 {
		t.include(n.parent, n.rect)
	}
	return nil
}

// checkFrontier verifies the extension point against every non-empty
// ancestor's accumulated extent.
func (t *Tree) checkFrontier(parent NodeID, r Rect) error {
	for id := parent; id >= 0; id = t.nodes[id].parent {
		n := t.nodes[id]
		if n.empty {
			continue
		}
		if r.Left > n.rect.Right() || r.Top > n.rect.Bottom() {
			return errors.New(errors.ErrCodeGeometryFault,
				"extension point (%v, %v) lies outside ancestor %d extent %+v", r.Left, r.Top, id, n.rect)
		}
	}
	return nil
}

// include merges r into the node's extent and walks up.
func (t *Tree) include(id NodeID, r Rect) {
	for ; id >= 0; id = t.nodes[id].parent {
		n := &t.nodes[id]
		if n.empty {
			n.rect = r
			n.empty = false
		} else {
			n.rect = n.rect.union(r)
		}
		r = n.rect
	}
}

// Validate recomputes every block's extent from its children and reports
// the first mismatch. Builders cover every margin with a subsequent
// child, so a finished tree satisfies exact equality.
func (t *Tree) Validate() error {
	const eps = 1e-9
	for id := len(t.nodes) - 1; id >= 0; id-- {
		n := t.nodes[id]
		if n.leaf || n.empty || len(n.kids) == 0 {
			continue
		}
		var u Rect
		first := true
		for _, kid := range n.kids {
			if t.nodes[kid].empty {
				continue
			}
			if first {
				u, first = t.nodes[kid].rect, false
				continue
			}
			u = u.union(t.nodes[kid].rect)
		}
		if first {
			continue
		}
		if !rectEq(u, n.rect, eps) {
			return errors.New(errors.ErrCodeGeometryFault,
				"node %d extent %+v does not match child union %+v", id, n.rect, u)
		}
	}
	return nil
}

func rectEq(a, b Rect, eps float64) bool {
	return abs(a.Left-b.Left) < eps && abs(a.Top-b.Top) < eps &&
		abs(a.Width-b.Width) < eps && abs(a.Height-b.Height) < eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ScaledBox converts a rectangle to axes-fraction coordinates for a
// bottom-left-origin backend: (x, y, w, h) with y measured upward from
// the bottom edge of the total area.
func ScaledBox(r, total Rect) (x, y, w, h float64) {
	x = (r.Left - total.Left) / total.Width
	y = 1 - ((r.Top-total.Top)+r.Height)/total.Height
	w = r.Width / total.Width
	h = r.Height / total.Height
	return x, y, w, h
}

// Box converts a rectangle to top-left-origin fractions of the total area.
func Box(r, total Rect) (x, y, w, h float64) {
	x = (r.Left - total.Left) / total.Width
	y = (r.Top - total.Top) / total.Height
	w = r.Width / total.Width
	h = r.Height / total.Height
	return x, y, w, h
}
