package grid

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// Cell is one addressable unit of the breadboard matrix. Geometry is fixed at
// construction; only Occupied changes afterwards (plate placement).
type Cell struct {
	Idx    layout.Point
	Pos    layout.Vec // top-left corner
	Size   layout.Vec
	Center layout.Vec

	Occupied bool
}

func newCell(i, j int, l *layout.Layout) *Cell {
	pitch := l.Pitch()
	origin := layout.Vec{
		X: l.Pos.X + float64(i)*pitch.X,
		Y: l.Pos.Y + float64(j)*pitch.Y,
	}
	return &Cell{
		Idx: layout.Point{X: i, Y: j},
		Pos: layout.Vec{X: origin.X + l.Gap.X, Y: origin.Y + l.Gap.Y},
		Size: layout.Vec{
			X: pitch.X - 2*l.Gap.X,
			Y: pitch.Y - 2*l.Gap.Y,
		},
		Center: layout.Vec{X: origin.X + pitch.X/2, Y: origin.Y + pitch.Y/2},
	}
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell%v", c.Idx)
}

// Contains reports whether a geometric position lies inside the cell body.
func (c *Cell) Contains(x, y float64) bool {
	return x >= c.Pos.X && x <= c.Pos.X+c.Size.X && y >= c.Pos.Y && y <= c.Pos.Y+c.Size.Y
}

// AuxPoint is a named connector outside the matrix (voltage source, USB pins).
type AuxPoint struct {
	Name     string
	Idx      layout.Point
	Pos      layout.Vec
	Category layout.AuxCategory
}

// auxSpec places the points of one aux category relative to the matrix.
type auxSpec struct {
	name string
	idx  func(dim layout.Point) layout.Point
}

var auxSpecs = map[layout.AuxCategory][]auxSpec{
	layout.AuxVoltageSource: {
		{"Vcc", func(d layout.Point) layout.Point { return layout.Point{X: -1, Y: 0} }},
		{"Gnd", func(d layout.Point) layout.Point { return layout.Point{X: -1, Y: d.Y - 1} }},
	},
	layout.AuxUSB1: {
		{"U1Vcc", func(d layout.Point) layout.Point { return layout.Point{X: d.X, Y: 0} }},
		{"U1Gnd", func(d layout.Point) layout.Point { return layout.Point{X: d.X, Y: 1} }},
	},
	layout.AuxUSB3: {
		{"U3Vcc", func(d layout.Point) layout.Point { return layout.Point{X: d.X, Y: d.Y - 2} }},
		{"U3Gnd", func(d layout.Point) layout.Point { return layout.Point{X: d.X, Y: d.Y - 1} }},
	},
}

// auxVoltage is the nominal source voltage reported on embedded plates.
var auxVoltage = map[layout.AuxCategory]string{
	layout.AuxVoltageSource: "5",
	layout.AuxUSB1:          "5",
	layout.AuxUSB3:          "3.3",
}
