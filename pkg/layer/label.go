package layer

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// LabelLayer draws column and row labels, aux pin names and the values of
// analog pins.
type LabelLayer struct {
	Base
	pins map[string]float64
}

// NewLabelLayer creates a label layer.
func NewLabelLayer(deps Deps) *LabelLayer {
	return &LabelLayer{Base: newBase("label", deps), pins: make(map[string]float64)}
}

// PinNames returns the analog pin names in board order (A0, A1, ...).
func PinNames(g *grid.Grid) []string {
	var names []string
	for _, line := range g.Lines() {
		if line.Analog() {
			names = append(names, fmt.Sprintf("A%d", len(names)))
		}
	}
	return names
}

// SetPinsValues replaces the displayed analog pin values.
func (l *LabelLayer) SetPinsValues(values map[string]float64) {
	l.pins = make(map[string]float64, len(values))
	for k, v := range values {
		l.pins[k] = v
	}
	l.Compose()
}

func (l *LabelLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *LabelLayer) Compose() error {
	l.reset()
	l.composeAxes(l.root.Group("label-axes", "axes"))
	l.composeAux(l.root.Group("label-aux", "aux"))
	l.composePins(l.root.Group("label-pins", "pins"))
	if l.mode.Verbose {
		l.composeCoords(l.root.Group("label-coords", "coords"))
	}
	return nil
}

func (l *LabelLayer) fontSize() float64 {
	p := l.grid.Pitch()
	return min(p.X, p.Y) / 3
}

func (l *LabelLayer) composeAxes(g *scene.Group) {
	lay := l.grid.Layout()
	pitch := l.grid.Pitch()
	size := l.fontSize()
	style := scene.Style{Fill: l.palette.Hex(theme.Label)}

	for i := 0; i < lay.Dim.X; i++ {
		if i%lay.Wrap.X != 0 && i != lay.Dim.X-1 {
			continue
		}
		c, _ := l.grid.Cell(i, 0, grid.BorderNone)
		g.Add(&scene.Text{
			ID: fmt.Sprintf("col-%d", i), X: c.Center.X, Y: lay.Pos.Y - 2,
			Text: fmt.Sprint(i + 1), Size: size, Anchor: scene.AnchorMiddle, Style: style,
		})
	}
	for j := 0; j < lay.Dim.Y; j++ {
		if j%lay.Wrap.Y != 0 && j != lay.Dim.Y-1 {
			continue
		}
		c, _ := l.grid.Cell(0, j, grid.BorderNone)
		g.Add(&scene.Text{
			ID: fmt.Sprintf("row-%d", j), X: lay.Pos.X + lay.Size.X + pitch.X*1.2, Y: c.Center.Y + size/3,
			Text: rowName(j), Size: size, Anchor: scene.AnchorMiddle, Style: style,
		})
	}
}

// rowName converts 0 → A, 25 → Z, 26 → AA.
func rowName(j int) string {
	name := ""
	for j >= 0 {
		name = string(rune('A'+j%26)) + name
		j = j/26 - 1
	}
	return name
}

func (l *LabelLayer) composeAux(g *scene.Group) {
	size := l.fontSize()
	pitch := l.grid.Pitch()
	for _, ap := range l.grid.AuxPoints() {
		g.Add(&scene.Text{
			ID: "aux-label-" + ap.Name, X: ap.Pos.X, Y: ap.Pos.Y - pitch.Y/3,
			Text: ap.Name, Size: size * 0.8, Anchor: scene.AnchorMiddle,
			Style: scene.Style{Fill: l.palette.Hex(theme.LabelMuted)},
		})
	}
}

func (l *LabelLayer) composePins(g *scene.Group) {
	size := l.fontSize()
	pin := 0
	for _, line := range l.grid.Lines() {
		if !line.Analog() {
			continue
		}
		name := fmt.Sprintf("A%d", pin)
		pin++
		c, err := l.grid.Cell(line.Points[0].X, line.Points[0].Y, grid.BorderNone)
		if err != nil {
			continue
		}
		text := name
		if v, ok := l.pins[name]; ok {
			text = fmt.Sprintf("%s %.2f", name, v)
		}
		g.Add(&scene.Text{
			ID: "pin-" + name, X: c.Center.X, Y: c.Pos.Y + c.Size.Y + size,
			Text: text, Size: size * 0.8, Anchor: scene.AnchorMiddle,
			Style: scene.Style{Fill: l.palette.Hex(theme.Analog)},
		})
	}

	// Values for names the board does not have are kept but not drawn.
	var unknown []string
	for name := range l.pins {
		if g.Find("pin-"+name) == nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		l.log.Debugf("label: values for unknown pins %v", unknown)
	}
}

func (l *LabelLayer) composeCoords(g *scene.Group) {
	size := l.fontSize() * 0.6
	style := scene.Style{Fill: l.palette.Hex(theme.LabelMuted)}
	l.grid.Cells(func(c *grid.Cell) {
		g.Add(&scene.Text{
			ID: "coord-" + c.Idx.String(), X: c.Pos.X, Y: c.Pos.Y + size,
			Text: fmt.Sprintf("%d,%d", c.Idx.X, c.Idx.Y), Size: size, Style: style,
		})
	})
}
