package layer

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// boardPadding is the margin drawn around the matrix, in pitches.
const boardPadding = 1.5

// BackgroundLayer draws the board body, the cells and the line rails.
type BackgroundLayer struct {
	Base
}

// NewBackgroundLayer creates the bottom layer of a board.
func NewBackgroundLayer(deps Deps) *BackgroundLayer {
	return &BackgroundLayer{Base: newBase("background", deps)}
}

func (l *BackgroundLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *BackgroundLayer) Compose() error {
	l.reset()
	lay := l.grid.Layout()
	pitch := l.grid.Pitch()

	body := l.root.Group("background-body", "body")
	body.Add(&scene.Rect{
		ID:     "board",
		X:      lay.Pos.X - boardPadding*pitch.X,
		Y:      lay.Pos.Y - pitch.Y/2,
		W:      lay.Size.X + 2*boardPadding*pitch.X,
		H:      lay.Size.Y + pitch.Y,
		Radius: pitch.X / 4,
		Style:  scene.Style{Fill: l.palette.Hex(theme.Board), Stroke: l.palette.Hex(theme.Line), StrokeWidth: 1},
	})

	if l.mode.Schematic {
		l.composeLines(l.root.Group("background-lines", "lines"))
	}
	l.composeCells(l.root.Group("background-cells", "cells"))
	l.composeAux(l.root.Group("background-aux", "aux"))
	return nil
}

func (l *BackgroundLayer) roleColor(role layout.Role) string {
	switch role {
	case layout.RolePlus:
		return l.palette.Hex(theme.RailPlus)
	case layout.RoleMinus:
		return l.palette.Hex(theme.RailMinus)
	case layout.RoleAnalog:
		return l.palette.Hex(theme.Analog)
	}
	return l.palette.Hex(theme.Line)
}

func (l *BackgroundLayer) composeLines(g *scene.Group) {
	width := min(l.grid.Pitch().X, l.grid.Pitch().Y) / 3
	for _, line := range l.grid.Lines() {
		var pts []scene.Point
		for _, p := range line.Points {
			if !l.grid.InMatrix(p) {
				continue
			}
			c, _ := l.grid.PointPos(p)
			pts = append(pts, vecPoint(c))
		}
		if len(pts) < 2 {
			continue
		}
		g.Add(&scene.Polyline{
			ID:     fmt.Sprintf("line-%d", line.ID),
			Points: pts,
			Style:  scene.Style{Stroke: l.roleColor(line.Role), StrokeWidth: width, Opacity: 0.6},
		})
	}
}

func (l *BackgroundLayer) composeCells(g *scene.Group) {
	fill := l.palette.Hex(theme.Cell)
	occupied := l.palette.Hex(theme.CellOccupied)
	l.grid.Cells(func(c *grid.Cell) {
		f := fill
		if c.Occupied {
			f = occupied
		}
		id := "cell-" + c.Idx.String()
		if !l.mode.Detailed {
			r := min(c.Size.X, c.Size.Y) / 4
			g.Add(&scene.Circle{ID: id, CX: c.Center.X, CY: c.Center.Y, R: r, Style: scene.Style{Fill: f}})
			return
		}
		style := scene.Style{Fill: f}
		if line := l.grid.LineAt(c.Idx); line != nil && line.Role != layout.RoleNone {
			style.Stroke = l.roleColor(line.Role)
			style.StrokeWidth = 1.5
		}
		g.Add(&scene.Rect{
			ID: id, X: c.Pos.X, Y: c.Pos.Y, W: c.Size.X, H: c.Size.Y,
			Radius: min(c.Size.X, c.Size.Y) / 6,
			Style:  style,
		})
	})
}

func (l *BackgroundLayer) composeAux(g *scene.Group) {
	pitch := l.grid.Pitch()
	r := min(pitch.X, pitch.Y) / 4
	for _, ap := range l.grid.AuxPoints() {
		g.Add(&scene.Circle{
			ID: "aux-" + ap.Name, CX: ap.Pos.X, CY: ap.Pos.Y, R: r,
			Style: scene.Style{Fill: l.palette.Hex(theme.Aux), Stroke: l.roleColorForAux(ap.Name), StrokeWidth: 2},
		})
	}
}

func (l *BackgroundLayer) roleColorForAux(name string) string {
	if isGround(name) {
		return l.palette.Hex(theme.RailMinus)
	}
	return l.palette.Hex(theme.RailPlus)
}

func isGround(auxName string) bool {
	return strings.HasSuffix(auxName, "Gnd")
}
