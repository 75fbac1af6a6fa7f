package grid

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// Line is a set of points that are electrically one node.
type Line struct {
	ID     int
	Domain int // index of the declaring domain
	Points []layout.Point
	Role   layout.Role
	Style  string

	// Analog lines hold exactly one point and carry its ground mapping.
	Minus    *layout.Point
	PinState layout.PinState
}

// Analog reports whether the line is a single analog pin.
func (l *Line) Analog() bool { return l.Role == layout.RoleAnalog }

// Lines returns the electrical lines in declaration order.
func (g *Grid) Lines() []*Line {
	return append([]*Line(nil), g.lines...)
}

// LineAt returns the line owning p, or nil when p belongs to no domain.
func (g *Grid) LineAt(p layout.Point) *Line {
	if id, ok := g.lineAt[p]; ok {
		return g.lines[id]
	}
	return nil
}

func (g *Grid) buildLines() error {
	for di, d := range g.layout.Domains {
		if d.Role == layout.RoleAnalog {
			if err := g.buildAnalog(di, d); err != nil {
				return err
			}
			continue
		}

		pointLines := d.Range.Lines(d.Horizontal)
		var virtLines [][]layout.Point
		if d.Virtual != nil {
			virtLines = d.Virtual.Lines(d.Horizontal)
			if err := g.registerVirtual(di, d.Virtual.Points()); err != nil {
				return err
			}
		}

		switch {
		case len(virtLines) == 0:
		case len(pointLines) == 1:
			pointLines[0] = append(pointLines[0], d.Virtual.Points()...)
		case len(virtLines) == len(pointLines):
			for i := range pointLines {
				pointLines[i] = append(pointLines[i], virtLines[i]...)
			}
		default:
			return fmt.Errorf("%w: %s: domain %d has %d lines but %d virtual lines",
				ErrInvalidLayout, g.layout.Name, di, len(pointLines), len(virtLines))
		}

		for _, pts := range pointLines {
			if err := g.addLine(di, &Line{Points: pts, Role: d.Role, Style: d.Style}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Grid) buildAnalog(di int, d layout.Domain) error {
	points := d.Range.Points()
	minus, err := analogMinusMapping(points, d.Minus.Points())
	if err != nil {
		return fmt.Errorf("%w: %s: domain %d: %v", ErrInvalidLayout, g.layout.Name, di, err)
	}
	for i, p := range points {
		m := minus[i]
		line := &Line{
			Points:   []layout.Point{p},
			Role:     layout.RoleAnalog,
			Style:    d.Style,
			Minus:    &m,
			PinState: d.PinStateInitial,
		}
		if err := g.addLine(di, line); err != nil {
			return err
		}
	}
	return nil
}

// analogMinusMapping pairs every analog point with a ground point. A single
// ground point is shared by all analog points.
func analogMinusMapping(analog, minus []layout.Point) ([]layout.Point, error) {
	if len(minus) == 1 {
		out := make([]layout.Point, len(analog))
		for i := range out {
			out[i] = minus[0]
		}
		return out, nil
	}
	if len(minus) != len(analog) {
		return nil, fmt.Errorf("minus range has %d points for %d analog points", len(minus), len(analog))
	}
	return append([]layout.Point(nil), minus...), nil
}

func (g *Grid) registerVirtual(di int, pts []layout.Point) error {
	for _, p := range pts {
		if g.InMatrix(p) || g.IsAux(p) {
			return fmt.Errorf("%w: %s: domain %d virtual point %v overlaps a real point",
				ErrInvalidLayout, g.layout.Name, di, p)
		}
		if g.VirtualPoint(p.X, p.Y) == nil {
			g.virtual = append(g.virtual, p)
		}
	}
	return nil
}

func (g *Grid) addLine(di int, line *Line) error {
	line.ID = len(g.lines)
	line.Domain = di
	for _, p := range line.Points {
		if other, ok := g.lineAt[p]; ok {
			return fmt.Errorf("%w: %s: domain %d point %v already belongs to line %d",
				ErrInvalidLayout, g.layout.Name, di, p, other)
		}
		g.lineAt[p] = line.ID
	}
	g.lines = append(g.lines, line)
	return nil
}

// checkAnalogTargets makes sure every analog point can be folded into a plain
// line when the microcontroller is not embedded.
func (g *Grid) checkAnalogTargets() error {
	for _, line := range g.lines {
		if !line.Analog() {
			continue
		}
		if _, err := g.foldTarget(line); err != nil {
			return err
		}
	}
	return nil
}

// foldTarget picks the line an analog point joins when it is not embedded:
// inputs join the first plus line, outputs join the minus line holding their
// ground point, falling back to the first minus line.
func (g *Grid) foldTarget(line *Line) (*Line, error) {
	if line.PinState == layout.PinInput {
		if l := g.firstWithRole(layout.RolePlus); l != nil {
			return l, nil
		}
		return nil, fmt.Errorf("%w: %s: analog input %v has no plus line to fold into",
			ErrInvalidLayout, g.layout.Name, line.Points[0])
	}
	if line.Minus != nil {
		if l := g.LineAt(*line.Minus); l != nil && l.Role == layout.RoleMinus {
			return l, nil
		}
	}
	if l := g.firstWithRole(layout.RoleMinus); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %s: analog output %v has no minus line to fold into",
		ErrInvalidLayout, g.layout.Name, line.Points[0])
}

func (g *Grid) firstWithRole(role layout.Role) *Line {
	for _, l := range g.lines {
		if l.Role == role {
			return l
		}
	}
	return nil
}
