// Package layout describes breadboard layouts declaratively: grid geometry,
// electrical domains and the auxiliary connector categories a board carries.
//
// A Layout is static data. It is turned into a live topology by grid.New,
// which validates it and fails fast on any inconsistency.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLayout marks configuration errors in a layout declaration.
var ErrInvalidLayout = errors.New("layout: invalid layout")

// Point is an integer grid address. Auxiliary points use columns just outside
// the matrix (-1 or Dim.X).
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Vec is a geometric 2D value in board units (pixels).
type Vec struct {
	X float64
	Y float64
}

// finite reports whether both components are real numbers.
func (v Vec) finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Range is an inclusive, possibly rectangular, span of points.
// Iteration follows From towards To on both axes.
type Range struct {
	From Point
	To   Point
}

// Points returns every point of the range, X varying fastest.
func (r Range) Points() []Point {
	var pts []Point
	for _, y := range span(r.From.Y, r.To.Y) {
		for _, x := range span(r.From.X, r.To.X) {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts
}

// Lines splits the range into lines. Horizontal lines run along X (one per
// row), vertical lines run along Y (one per column).
func (r Range) Lines(horizontal bool) [][]Point {
	var lines [][]Point
	if horizontal {
		for _, y := range span(r.From.Y, r.To.Y) {
			var line []Point
			for _, x := range span(r.From.X, r.To.X) {
				line = append(line, Point{X: x, Y: y})
			}
			lines = append(lines, line)
		}
		return lines
	}
	for _, x := range span(r.From.X, r.To.X) {
		var line []Point
		for _, y := range span(r.From.Y, r.To.Y) {
			line = append(line, Point{X: x, Y: y})
		}
		lines = append(lines, line)
	}
	return lines
}

// Len returns the number of points in the range.
func (r Range) Len() int {
	return (abs(r.To.X-r.From.X) + 1) * (abs(r.To.Y-r.From.Y) + 1)
}

// Degenerate reports whether the range addresses a single point.
func (r Range) Degenerate() bool {
	return r.From == r.To
}

// Contains reports whether p lies within the range bounds.
func (r Range) Contains(p Point) bool {
	return between(p.X, r.From.X, r.To.X) && between(p.Y, r.From.Y, r.To.Y)
}

// Role is the electrical role of a domain.
type Role int

const (
	RoleNone Role = iota
	RolePlus
	RoleMinus
	RoleAnalog
)

var roleNames = map[Role]string{
	RoleNone:   "none",
	RolePlus:   "plus",
	RoleMinus:  "minus",
	RoleAnalog: "analog",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return RoleNone, fmt.Errorf("%w: unknown role %q", ErrInvalidLayout, s)
}

// PinState is the initial direction of an analog pin.
type PinState int

const (
	PinInput PinState = iota
	PinOutput
)

func (s PinState) String() string {
	if s == PinOutput {
		return "output"
	}
	return "input"
}

// ParsePinState converts "input"/"output" into a PinState.
func ParsePinState(s string) (PinState, error) {
	switch s {
	case "input", "in":
		return PinInput, nil
	case "output", "out":
		return PinOutput, nil
	}
	return PinInput, fmt.Errorf("%w: unknown pin state %q", ErrInvalidLayout, s)
}

// AuxCategory selects a group of auxiliary connector points.
type AuxCategory string

const (
	AuxVoltageSource AuxCategory = "voltage_source"
	AuxUSB1          AuxCategory = "usb1"
	AuxUSB3          AuxCategory = "usb3"
)

// Domain declares a range of cells sharing an electrical role.
type Domain struct {
	Range
	// Horizontal makes every row of the range one line; otherwise every
	// column is one line.
	Horizontal bool
	// Virtual extends the domain's lines with non-rendered points.
	Virtual *Range
	Role    Role
	// Minus maps analog points to their ground points. Required for analog
	// domains; either a single point or one point per analog point.
	Minus           *Range
	PinStateInitial PinState
	Style           string
}

// Layout is the complete declarative description of a board.
type Layout struct {
	Name  string
	Label string

	Dim  Point // cells along X and Y
	Size Vec   // matrix size in board units
	Gap  Vec   // inner cell margin
	Pos  Vec   // matrix offset
	Wrap Point // label grouping period

	Domains []Domain
	Aux     []AuxCategory
}

// Pitch returns the distance between neighbouring cell origins.
func (l *Layout) Pitch() Vec {
	return Vec{X: l.Size.X / float64(l.Dim.X), Y: l.Size.Y / float64(l.Dim.Y)}
}

// HasAux reports whether the layout requires the given aux category.
func (l *Layout) HasAux(cat AuxCategory) bool {
	for _, c := range l.Aux {
		if c == cat {
			return true
		}
	}
	return false
}

// Validate checks the geometric parameters and domain declarations that can
// be verified without building a grid.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidLayout)
	}
	if l.Dim.X <= 0 || l.Dim.Y <= 0 {
		return fmt.Errorf("%w: %s: dim must be positive, got %v", ErrInvalidLayout, l.Name, l.Dim)
	}
	for _, v := range []struct {
		name string
		v    Vec
	}{{"size", l.Size}, {"gap", l.Gap}, {"pos", l.Pos}} {
		if !v.v.finite() {
			return fmt.Errorf("%w: %s: %s must be finite, got %v", ErrInvalidLayout, l.Name, v.name, v.v)
		}
	}
	if l.Size.X <= 0 || l.Size.Y <= 0 {
		return fmt.Errorf("%w: %s: size must be positive, got %v", ErrInvalidLayout, l.Name, l.Size)
	}
	if l.Gap.X < 0 || l.Gap.Y < 0 {
		return fmt.Errorf("%w: %s: gap must be non-negative, got %v", ErrInvalidLayout, l.Name, l.Gap)
	}
	pitch := l.Pitch()
	if 2*l.Gap.X >= pitch.X || 2*l.Gap.Y >= pitch.Y {
		return fmt.Errorf("%w: %s: gap %v leaves no room for cells (pitch %v)", ErrInvalidLayout, l.Name, l.Gap, pitch)
	}
	if l.Wrap.X <= 0 || l.Wrap.Y <= 0 {
		return fmt.Errorf("%w: %s: wrap must be positive, got %v", ErrInvalidLayout, l.Name, l.Wrap)
	}

	matrix := Range{To: Point{X: l.Dim.X - 1, Y: l.Dim.Y - 1}}
	for i, d := range l.Domains {
		if !matrix.Contains(d.From) || !matrix.Contains(d.To) {
			return fmt.Errorf("%w: %s: domain %d range %v..%v outside %dx%d matrix",
				ErrInvalidLayout, l.Name, i, d.From, d.To, l.Dim.X, l.Dim.Y)
		}
		if d.Role == RoleAnalog && d.Minus == nil {
			return fmt.Errorf("%w: %s: analog domain %d has no minus mapping", ErrInvalidLayout, l.Name, i)
		}
		if d.Minus != nil && (!matrix.Contains(d.Minus.From) || !matrix.Contains(d.Minus.To)) {
			return fmt.Errorf("%w: %s: domain %d minus range outside matrix", ErrInvalidLayout, l.Name, i)
		}
	}

	for _, c := range l.Aux {
		switch c {
		case AuxVoltageSource, AuxUSB1, AuxUSB3:
		default:
			return fmt.Errorf("%w: %s: unknown aux category %q", ErrInvalidLayout, l.Name, c)
		}
	}
	return nil
}

func span(from, to int) []int {
	step := 1
	if to < from {
		step = -1
	}
	out := make([]int, 0, abs(to-from)+1)
	for v := from; ; v += step {
		out = append(out, v)
		if v == to {
			break
		}
	}
	return out
}

func between(v, a, b int) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
