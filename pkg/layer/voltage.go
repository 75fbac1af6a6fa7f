package layer

import (
	"fmt"
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// voltageScale is the smallest full-scale voltage used for tinting.
const voltageScale = 5.0

// VoltageLayer tints every line by its potential.
type VoltageLayer struct {
	Base
	voltages map[int]float64
}

// NewVoltageLayer creates an empty voltage layer.
func NewVoltageLayer(deps Deps) *VoltageLayer {
	return &VoltageLayer{Base: newBase("voltage", deps), voltages: make(map[int]float64)}
}

// SetVoltages replaces the line potentials, keyed by line ID.
func (l *VoltageLayer) SetVoltages(v map[int]float64) {
	l.voltages = make(map[int]float64, len(v))
	for id, val := range v {
		l.voltages[id] = val
	}
	l.Compose()
}

// Voltage returns the potential of a line.
func (l *VoltageLayer) Voltage(lineID int) (float64, bool) {
	v, ok := l.voltages[lineID]
	return v, ok
}

func (l *VoltageLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *VoltageLayer) Compose() error {
	l.reset()
	if len(l.voltages) == 0 {
		return nil
	}
	g := l.root.Group("voltage-lines", "voltages")

	scale := voltageScale
	for _, v := range l.voltages {
		scale = math.Max(scale, math.Abs(v))
	}

	lines := l.grid.Lines()
	ids := make([]int, 0, len(l.voltages))
	for id := range l.voltages {
		if id >= 0 && id < len(lines) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	low := l.palette.Hex(theme.VoltageLow)
	high := l.palette.Hex(theme.VoltageHigh)
	alpha := l.palette.Opacity(theme.VoltageHigh)
	for _, id := range ids {
		v := l.voltages[id]
		fill := theme.Mix(low, high, (v/scale+1)/2)
		var first *scene.Rect
		for _, p := range lines[id].Points {
			if !l.grid.InMatrix(p) {
				continue
			}
			c, _ := l.grid.Cell(p.X, p.Y, grid.BorderNone)
			r := &scene.Rect{
				ID: fmt.Sprintf("voltage-%d-%d-%d", id, p.X, p.Y),
				X:  c.Pos.X, Y: c.Pos.Y, W: c.Size.X, H: c.Size.Y,
				Style: scene.Style{Fill: fill, Opacity: alpha},
			}
			if first == nil {
				first = r
			}
			g.Add(r)
		}
		if l.mode.Verbose && first != nil {
			g.Add(&scene.Text{
				ID: fmt.Sprintf("voltage-%d-label", id),
				X:  first.X, Y: first.Y - 2,
				Text:  fmt.Sprintf("%.2fV", v),
				Size:  first.H / 2,
				Style: scene.Style{Fill: l.palette.Hex(theme.Label)},
			})
		}
	}
	return nil
}
