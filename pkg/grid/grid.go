// Package grid turns a declarative layout into the breadboard topology: the
// cell matrix, auxiliary and virtual points, and the electrical lines derived
// from domains.
//
// A Grid is immutable after New returns, apart from the Occupied flag of its
// cells. It is shared read-only by every rendering layer.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

var (
	// ErrOutOfRange is returned when a cell address resolves outside the matrix.
	ErrOutOfRange = errors.New("grid: index out of range")
	// ErrInvalidLayout wraps layout configuration errors found while building.
	ErrInvalidLayout = layout.ErrInvalidLayout
)

// BorderType selects how out-of-bound indices are mapped back into the matrix.
type BorderType int

const (
	// BorderNone rejects out-of-bound indices.
	BorderNone BorderType = iota
	// BorderReplicate clamps to the nearest valid index per axis.
	BorderReplicate
	// BorderReflect mirrors across the matrix edge: -1 → 0, -2 → 1, dim → dim-1.
	BorderReflect
	// BorderWrap applies a true (non-negative) modulo.
	BorderWrap
)

func (b BorderType) String() string {
	switch b {
	case BorderNone:
		return "none"
	case BorderReplicate:
		return "replicate"
	case BorderReflect:
		return "reflect"
	case BorderWrap:
		return "wrap"
	}
	return fmt.Sprintf("border(%d)", int(b))
}

// Grid owns the cell matrix and the derived topology of one layout.
type Grid struct {
	layout *layout.Layout
	pitch  layout.Vec

	cells   [][]*Cell // [x][y]
	aux     []*AuxPoint
	auxName map[string]*AuxPoint
	virtual []layout.Point

	lines  []*Line
	lineAt map[layout.Point]int
}

// New validates a layout and builds its grid. Any inconsistency in the layout
// is reported here; a Grid is never returned partially built.
func New(l *layout.Layout) (*Grid, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidLayout)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		layout:  l,
		pitch:   l.Pitch(),
		auxName: make(map[string]*AuxPoint),
		lineAt:  make(map[layout.Point]int),
	}

	g.cells = make([][]*Cell, l.Dim.X)
	for i := range g.cells {
		g.cells[i] = make([]*Cell, l.Dim.Y)
		for j := range g.cells[i] {
			g.cells[i][j] = newCell(i, j, l)
		}
	}

	if err := g.buildAux(); err != nil {
		return nil, err
	}
	if err := g.buildLines(); err != nil {
		return nil, err
	}
	if err := g.checkAnalogTargets(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grid) buildAux() error {
	taken := make(map[layout.Point]string)
	for _, cat := range g.layout.Aux {
		for _, spec := range auxSpecs[cat] {
			idx := spec.idx(g.layout.Dim)
			if other, ok := taken[idx]; ok {
				return fmt.Errorf("%w: %s: aux point %s collides with %s at %v",
					ErrInvalidLayout, g.layout.Name, spec.name, other, idx)
			}
			if _, dup := g.auxName[spec.name]; dup {
				continue
			}
			taken[idx] = spec.name
			ap := &AuxPoint{
				Name:     spec.name,
				Idx:      idx,
				Pos:      g.centerOf(idx),
				Category: cat,
			}
			g.aux = append(g.aux, ap)
			g.auxName[spec.name] = ap
		}
	}
	return nil
}

// Layout returns the layout the grid was built from.
func (g *Grid) Layout() *layout.Layout { return g.layout }

// Dim returns the matrix dimensions.
func (g *Grid) Dim() layout.Point { return g.layout.Dim }

// Pitch returns the distance between neighbouring cell origins.
func (g *Grid) Pitch() layout.Vec { return g.pitch }

// Cell returns the cell at (i, j) after applying the border policy.
func (g *Grid) Cell(i, j int, border BorderType) (*Cell, error) {
	x, err := applyBorder(i, g.layout.Dim.X, border)
	if err != nil {
		return nil, err
	}
	y, err := applyBorder(j, g.layout.Dim.Y, border)
	if err != nil {
		return nil, err
	}
	if x < 0 || x >= g.layout.Dim.X || y < 0 || y >= g.layout.Dim.Y {
		return nil, fmt.Errorf("%w: (%d,%d) resolves to (%d,%d) in %dx%d grid (border %s)",
			ErrOutOfRange, i, j, x, y, g.layout.Dim.X, g.layout.Dim.Y, border)
	}
	return g.cells[x][y], nil
}

// CellByPos maps geometric coordinates to the enclosing cell. The scaled index
// is clamped into the matrix before the border policy is applied.
func (g *Grid) CellByPos(x, y float64, border BorderType) (*Cell, error) {
	l := g.layout
	i := int(math.Floor((x - l.Pos.X) / l.Size.X * float64(l.Dim.X)))
	j := int(math.Floor((y - l.Pos.Y) / l.Size.Y * float64(l.Dim.Y)))
	return g.Cell(clamp(i, 0, l.Dim.X-1), clamp(j, 0, l.Dim.Y-1), border)
}

// Cells calls fn for every cell, column by column.
func (g *Grid) Cells(fn func(c *Cell)) {
	for _, col := range g.cells {
		for _, c := range col {
			fn(c)
		}
	}
}

// InMatrix reports whether p addresses a matrix cell.
func (g *Grid) InMatrix(p layout.Point) bool {
	return p.X >= 0 && p.X < g.layout.Dim.X && p.Y >= 0 && p.Y < g.layout.Dim.Y
}

// AuxPoint returns the aux point with the given name, or nil.
func (g *Grid) AuxPoint(name string) *AuxPoint {
	return g.auxName[name]
}

// AuxPointAt returns the aux point at (col, row), or nil.
func (g *Grid) AuxPointAt(col, row int) *AuxPoint {
	for _, ap := range g.aux {
		if ap.Idx.X == col && ap.Idx.Y == row {
			return ap
		}
	}
	return nil
}

// AuxPointInColumn returns the only aux point in a column. It returns nil
// when the column has no aux point or the request is ambiguous.
func (g *Grid) AuxPointInColumn(col int) *AuxPoint {
	var found *AuxPoint
	for _, ap := range g.aux {
		if ap.Idx.X != col {
			continue
		}
		if found != nil {
			return nil
		}
		found = ap
	}
	return found
}

// AuxPoints returns all aux points in declaration order.
func (g *Grid) AuxPoints() []*AuxPoint {
	return append([]*AuxPoint(nil), g.aux...)
}

// IsAux reports whether p is the address of an aux point.
func (g *Grid) IsAux(p layout.Point) bool {
	return g.AuxPointAt(p.X, p.Y) != nil
}

// VirtualPoint returns the registered virtual point at (x, y), or nil.
func (g *Grid) VirtualPoint(x, y int) *layout.Point {
	for i := range g.virtual {
		if g.virtual[i].X == x && g.virtual[i].Y == y {
			p := g.virtual[i]
			return &p
		}
	}
	return nil
}

// VirtualPoints returns the registered virtual points.
func (g *Grid) VirtualPoints() []layout.Point {
	return append([]layout.Point(nil), g.virtual...)
}

// PointPos resolves a point address to its geometric center. Matrix cells,
// aux points and virtual points resolve; anything else reports false.
func (g *Grid) PointPos(p layout.Point) (layout.Vec, bool) {
	if g.InMatrix(p) {
		return g.cells[p.X][p.Y].Center, true
	}
	if ap := g.AuxPointAt(p.X, p.Y); ap != nil {
		return ap.Pos, true
	}
	if g.VirtualPoint(p.X, p.Y) != nil {
		return g.centerOf(p), true
	}
	return layout.Vec{}, false
}

func (g *Grid) centerOf(p layout.Point) layout.Vec {
	return layout.Vec{
		X: g.layout.Pos.X + float64(p.X)*g.pitch.X + g.pitch.X/2,
		Y: g.layout.Pos.Y + float64(p.Y)*g.pitch.Y + g.pitch.Y/2,
	}
}

func applyBorder(v, n int, border BorderType) (int, error) {
	switch border {
	case BorderNone:
		return v, nil
	case BorderReplicate:
		return clamp(v, 0, n-1), nil
	case BorderWrap:
		return ((v % n) + n) % n, nil
	case BorderReflect:
		period := 2 * n
		m := ((v % period) + period) % period
		if m >= n {
			m = period - 1 - m
		}
		return m, nil
	}
	return 0, fmt.Errorf("grid: unknown border type %d", int(border))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
