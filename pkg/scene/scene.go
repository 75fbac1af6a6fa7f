// Package scene is a small retained scene graph that layers draw into and
// renderers walk. It knows nothing about any particular output format.
package scene

import "fmt"

// Style is shared by every shape.
type Style struct {
	Fill        string // #rrggbb, empty for none
	Stroke      string
	StrokeWidth float64
	Opacity     float64 // 0 means fully opaque
	Dash        []float64
	DashOffset  float64
}

// Alpha returns the effective opacity in [0, 1].
func (s Style) Alpha() float64 {
	if s.Opacity <= 0 || s.Opacity > 1 {
		return 1
	}
	return s.Opacity
}

// Node is any element of the graph.
type Node interface {
	NodeID() string
}

// Group is an ordered container. Hidden groups are skipped with their
// children.
type Group struct {
	ID       string
	Class    string
	Hidden   bool
	Children []Node
}

// NewGroup returns an empty group.
func NewGroup(id, class string) *Group {
	return &Group{ID: id, Class: class}
}

func (g *Group) NodeID() string { return g.ID }

// Add appends nodes.
func (g *Group) Add(nodes ...Node) {
	g.Children = append(g.Children, nodes...)
}

// Clear drops every child.
func (g *Group) Clear() {
	g.Children = nil
}

// Group returns a new child group.
func (g *Group) Group(id, class string) *Group {
	child := NewGroup(id, class)
	g.Add(child)
	return child
}

// Find returns the first node with the given ID in depth-first order.
func (g *Group) Find(id string) Node {
	if g.ID == id {
		return g
	}
	for _, n := range g.Children {
		if n.NodeID() == id {
			return n
		}
		if sub, ok := n.(*Group); ok {
			if found := sub.Find(id); found != nil {
				return found
			}
		}
	}
	return nil
}

// Walk visits visible nodes depth-first. Groups are visited before their
// children; returning false from fn skips a group's children.
func (g *Group) Walk(fn func(n Node, depth int) bool) {
	g.walk(fn, 0)
}

func (g *Group) walk(fn func(n Node, depth int) bool, depth int) {
	if g.Hidden {
		return
	}
	if !fn(g, depth) {
		return
	}
	for _, n := range g.Children {
		if sub, ok := n.(*Group); ok {
			sub.walk(fn, depth+1)
			continue
		}
		fn(n, depth+1)
	}
}

// Count returns the number of visible nodes matching pred.
func (g *Group) Count(pred func(Node) bool) int {
	n := 0
	g.Walk(func(node Node, _ int) bool {
		if pred(node) {
			n++
		}
		return true
	})
	return n
}

// Rect is an axis-aligned rectangle with optional rounded corners.
type Rect struct {
	ID         string
	X, Y, W, H float64
	Radius     float64
	Style
}

func (r *Rect) NodeID() string { return r.ID }

// Circle is a filled or stroked circle.
type Circle struct {
	ID     string
	CX, CY float64
	R      float64
	Style
}

func (c *Circle) NodeID() string { return c.ID }

// Point is a vertex of a polyline.
type Point struct {
	X, Y float64
}

// Polyline is an open stroked path.
type Polyline struct {
	ID     string
	Points []Point
	Style
}

func (p *Polyline) NodeID() string { return p.ID }

// Anchor is the horizontal text alignment.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

func (a Anchor) String() string {
	switch a {
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	}
	return "start"
}

// Text is a single line label positioned at its baseline.
type Text struct {
	ID     string
	X, Y   float64
	Text   string
	Size   float64
	Anchor Anchor
	Style
}

func (t *Text) NodeID() string { return t.ID }

// Bounds is an axis-aligned box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.1f,%.1f - %.1f,%.1f]", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (b *Bounds) extend(x, y float64, first *bool) {
	if *first {
		*b = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
		*first = false
		return
	}
	b.MinX = min(b.MinX, x)
	b.MinY = min(b.MinY, y)
	b.MaxX = max(b.MaxX, x)
	b.MaxY = max(b.MaxY, y)
}

// BoundsOf returns the box enclosing every visible shape of g.
func BoundsOf(g *Group) Bounds {
	var b Bounds
	first := true
	g.Walk(func(n Node, _ int) bool {
		switch s := n.(type) {
		case *Rect:
			b.extend(s.X, s.Y, &first)
			b.extend(s.X+s.W, s.Y+s.H, &first)
		case *Circle:
			b.extend(s.CX-s.R, s.CY-s.R, &first)
			b.extend(s.CX+s.R, s.CY+s.R, &first)
		case *Polyline:
			for _, p := range s.Points {
				b.extend(p.X, p.Y, &first)
			}
		case *Text:
			b.extend(s.X, s.Y-s.Size, &first)
			b.extend(s.X, s.Y, &first)
		}
		return true
	})
	return b
}
