package layer

import (
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// ShortCircuitHandlers receive short-circuit notifications from a
// CurrentLayer. Any field may be nil.
type ShortCircuitHandlers struct {
	// Any fires after every update that leaves at least one current burning.
	Any func()
	// Start and End fire once per transition.
	Start func()
	End   func()
}

// CurrentLayer keeps one Current per reported thread and reconciles the set
// on every update. Updates must be serialized by the caller; stale or
// out-of-order reports are not detected.
type CurrentLayer struct {
	Base

	cfg      current.Config
	clock    current.Clock
	handlers ShortCircuitHandlers

	currents     []*current.Current
	spare        bool
	shortCircuit bool

	lines     *scene.Group
	particles *scene.Group
}

// NewCurrentLayer creates an empty current layer.
func NewCurrentLayer(deps Deps, cfg current.Config, clock current.Clock) *CurrentLayer {
	if clock == nil {
		clock = current.SystemClock{}
	}
	return &CurrentLayer{
		Base:  newBase("current", deps),
		cfg:   cfg,
		clock: clock,
	}
}

// SetShortCircuitHandlers installs the short-circuit callbacks.
func (l *CurrentLayer) SetShortCircuitHandlers(h ShortCircuitHandlers) {
	l.handlers = h
}

// Currents returns the live currents.
func (l *CurrentLayer) Currents() []*current.Current {
	return append([]*current.Current(nil), l.currents...)
}

// ShortCircuit reports whether any live current is burning.
func (l *CurrentLayer) ShortCircuit() bool { return l.shortCircuit }

func (l *CurrentLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *CurrentLayer) Compose() error {
	l.reset()
	l.lines = l.root.Group("current-lines", "lines")
	l.particles = l.root.Group("current-particles", "particles")
	l.composeLines()
	return nil
}

// SetCurrents reconciles the live currents against a complete report.
// Threads touching virtual points are never shown; threads touching aux
// points are dropped unless showSource is set. With spare set new currents
// are drawn without particle animation.
func (l *CurrentLayer) SetCurrents(threads []current.Thread, spare, showSource bool) error {
	l.spare = spare

	var visible []current.Thread
	for _, t := range threads {
		if l.skip(t, showSource) {
			continue
		}
		visible = append(visible, t)
	}
	merged := current.Overlay(visible)

	matched := make([]bool, len(merged))
	kept := l.currents[:0]
	for _, c := range l.currents {
		idx := -1
		for i, t := range merged {
			if !matched[i] && c.Thread.SameEndpoints(t) {
				idx = i
				break
			}
		}
		if idx < 0 {
			l.log.Debugf("current: destroy %s (gone)", c)
			c.Destroy()
			continue
		}
		matched[idx] = true
		if !merged[idx].Meaningful() {
			l.log.Debugf("current: destroy %s (below threshold)", c)
			c.Destroy()
			continue
		}
		c.SetWeight(merged[idx].Weight)
		if !spare && !c.Active() {
			if err := c.Activate(); err != nil {
				l.log.Errorf("current: %v", err)
			}
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(l.currents); i++ {
		l.currents[i] = nil
	}
	l.currents = kept

	var firstErr error
	for i, t := range merged {
		if matched[i] || !t.Meaningful() {
			continue
		}
		c, err := l.create(t)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		l.currents = append(l.currents, c)
	}

	if l.lines != nil {
		l.composeLines()
	}
	l.scanShortCircuit()
	return firstErr
}

func (l *CurrentLayer) skip(t current.Thread, showSource bool) bool {
	for _, p := range [2]layout.Point{t.From, t.To} {
		if l.grid.VirtualPoint(p.X, p.Y) != nil {
			return true
		}
		if !showSource && l.grid.IsAux(p) {
			return true
		}
	}
	return false
}

func (l *CurrentLayer) create(t current.Thread) (*current.Current, error) {
	from, okFrom := l.grid.PointPos(t.From)
	to, okTo := l.grid.PointPos(t.To)
	if !okFrom || !okTo {
		return nil, fmt.Errorf("current: thread %v has an endpoint outside the board", t)
	}
	c := current.New(t, l.cfg, l.clock)
	c.Draw(current.Path{From: from, To: to})
	if !l.spare {
		if err := c.Activate(); err != nil {
			return nil, err
		}
	}
	l.log.Debugf("current: create %s", c)
	return c, nil
}

func (l *CurrentLayer) scanShortCircuit() {
	burning := false
	for _, c := range l.currents {
		if c.Burning() {
			burning = true
			break
		}
	}
	if burning && l.handlers.Any != nil {
		l.handlers.Any()
	}
	switch {
	case burning && !l.shortCircuit:
		l.shortCircuit = true
		l.log.Warnf("current: short circuit")
		if l.handlers.Start != nil {
			l.handlers.Start()
		}
	case !burning && l.shortCircuit:
		l.shortCircuit = false
		l.log.Infof("current: short circuit cleared")
		if l.handlers.End != nil {
			l.handlers.End()
		}
	}
}

func (l *CurrentLayer) composeLines() {
	l.lines.Clear()
	for _, c := range l.currents {
		p := c.Path()
		l.lines.Add(&scene.Polyline{
			ID:     c.ID,
			Points: []scene.Point{vecPoint(p.From), vecPoint(p.To)},
			Style: scene.Style{
				Stroke:      c.Color(),
				StrokeWidth: l.cfg.LineWidth,
				Opacity:     c.Opacity(),
			},
		})
	}
}

// Animate samples particles and burning lines at now. Renderers call it
// before walking the scene.
func (l *CurrentLayer) Animate(now time.Time) {
	if l.particles == nil {
		return
	}
	l.particles.Clear()
	for _, c := range l.currents {
		if c.Burning() {
			if n, ok := l.lines.Find(c.ID).(*scene.Polyline); ok {
				n.Dash = []float64{l.cfg.BurnDash, l.cfg.BurnDash}
				n.DashOffset = c.DashOffset(now)
			}
			continue
		}
		if n, ok := l.lines.Find(c.ID).(*scene.Polyline); ok {
			n.Dash = nil
			n.DashOffset = 0
		}
		for _, ps := range c.Snapshot(now) {
			l.particles.Add(&scene.Circle{
				ID: fmt.Sprintf("%s-p%d", c.ID, ps.Index),
				CX: ps.Pos.X, CY: ps.Pos.Y, R: ps.Radius,
				Style: scene.Style{Fill: c.Color(), Opacity: ps.Opacity * c.Opacity()},
			})
		}
	}
}
