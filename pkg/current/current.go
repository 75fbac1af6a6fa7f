// Package current models animated electrical currents on a breadboard.
//
// A Current is pure data: it owns its particles and the animation rules a
// renderer needs to draw them, and it never touches a drawing surface. Time
// is read from an injected Clock.
package current

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// ErrNotDrawn is returned when a current is animated before it has geometry.
var ErrNotDrawn = errors.New("current: not drawn")

// Path is the straight segment a current is drawn along.
type Path struct {
	From layout.Vec
	To   layout.Vec
}

// Length returns the path length in board units.
func (p Path) Length() float64 {
	return math.Hypot(p.To.X-p.From.X, p.To.Y-p.From.Y)
}

// At returns the point at fraction f of the path.
func (p Path) At(f float64) layout.Vec {
	return layout.Vec{
		X: p.From.X + f*(p.To.X-p.From.X),
		Y: p.From.Y + f*(p.To.Y-p.From.Y),
	}
}

// RuleKind tells renderers how to apply a rule.
type RuleKind int

const (
	RuleParticle RuleKind = iota
	RuleBurn
)

// Rule is one named animation definition owned by a current. Names are
// prefixed with the current ID so rules of different currents never clash.
type Rule struct {
	Name      string
	Kind      RuleKind
	Particle  int // particle index for RuleParticle
	Animation Animation
	Dash      float64 // dash length for RuleBurn
}

// ParticleState is a particle sampled at an instant, in board coordinates.
type ParticleState struct {
	Index   int
	Pos     layout.Vec
	Opacity float64
	Radius  float64
}

// Current is the visual entity of one thread.
type Current struct {
	ID     string
	Thread Thread

	cfg   Config
	clock Clock

	weight    float64
	path      Path
	particles []Particle
	rules     map[string]Rule

	drawn     bool
	active    bool
	burning   bool
	burnStart time.Time
}

// New creates a current for a thread. It has no geometry until Draw.
func New(t Thread, cfg Config, clock Clock) *Current {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Current{
		ID:     "current-" + uuid.NewString(),
		Thread: t,
		cfg:    cfg,
		clock:  clock,
		weight: Normalize(t.Weight),
		rules:  make(map[string]Rule),
	}
}

func (c *Current) String() string {
	return fmt.Sprintf("%s %v w'=%.3f", c.ID, c.Thread, c.weight)
}

// Weight returns the normalized weight.
func (c *Current) Weight() float64 { return c.weight }

// Color returns the line and particle colour for the current weight.
func (c *Current) Color() string { return PickColorFromRange(c.weight) }

// Opacity returns the line opacity for the current weight.
func (c *Current) Opacity() float64 { return PickOpacityFromRange(c.weight) }

// Duration returns the particle cycle for the current weight.
func (c *Current) Duration() time.Duration { return c.cfg.Duration(c.weight) }

// Path returns the drawn geometry.
func (c *Current) Path() Path { return c.path }

// Drawn reports whether Draw has been called.
func (c *Current) Drawn() bool { return c.drawn }

// Active reports whether particles are animating.
func (c *Current) Active() bool { return c.active }

// Burning reports whether the current is in short-circuit mode.
func (c *Current) Burning() bool { return c.burning }

// Particles returns a copy of the particle set.
func (c *Current) Particles() []Particle {
	return append([]Particle(nil), c.particles...)
}

// Rules returns a copy of the animation rules currently owned.
func (c *Current) Rules() map[string]Rule {
	out := make(map[string]Rule, len(c.rules))
	for k, v := range c.rules {
		out[k] = v
	}
	return out
}

// Draw assigns geometry and lays out particles along it.
func (c *Current) Draw(path Path) {
	c.path = path
	c.particles = buildParticles(path.Length(), c.cfg.AnimationDelta)
	d := c.Duration()
	for i := range c.particles {
		c.particles[i].Animation.Duration = d
	}
	c.drawn = true
	c.active = false
	c.setBurning(c.Thread.Burning())
	c.refreshRules()
}

// Activate starts the particle animation at the clock's current time.
func (c *Current) Activate() error {
	if !c.drawn {
		return fmt.Errorf("%w: activate %s", ErrNotDrawn, c.ID)
	}
	now := c.clock.Now()
	d := c.Duration()
	for i := range c.particles {
		c.particles[i].Animation = Animation{Start: now, Duration: d}
	}
	c.active = true
	c.refreshRules()
	return nil
}

// SetWeight updates the raw weight. A running animation is retargeted to the
// new speed without moving any particle, and burning mode follows the weight.
func (c *Current) SetWeight(raw float64) {
	c.Thread.Weight = raw
	c.weight = Normalize(raw)
	if c.drawn {
		d := c.Duration()
		now := c.clock.Now()
		for i := range c.particles {
			if c.active {
				c.particles[i].Animation = c.particles[i].Animation.Retarget(now, d)
			} else {
				c.particles[i].Animation.Duration = d
			}
		}
		c.setBurning(c.Thread.Burning())
	}
	c.refreshRules()
}

// Destroy releases every rule and particle. The current cannot be reused.
func (c *Current) Destroy() {
	c.rules = make(map[string]Rule)
	c.particles = nil
	c.active = false
	c.drawn = false
	c.burning = false
}

// Snapshot samples visible particles at now. Burning or inactive currents
// show no particles.
func (c *Current) Snapshot(now time.Time) []ParticleState {
	if !c.active || c.burning {
		return nil
	}
	out := make([]ParticleState, 0, len(c.particles))
	for _, p := range c.particles {
		k := p.Sample(now)
		if k.Opacity <= 0 {
			continue
		}
		out = append(out, ParticleState{
			Index:   p.Index,
			Pos:     c.path.At(k.Progress),
			Opacity: k.Opacity,
			Radius:  k.Scale * c.cfg.ParticleRadius,
		})
	}
	return out
}

// DashOffset returns the marching-ants offset of a burning line at now.
func (c *Current) DashOffset(now time.Time) float64 {
	if !c.burning {
		return 0
	}
	a := Animation{Start: c.burnStart, Duration: c.cfg.BurnDuration}
	return -a.Phase(now) * 2 * c.cfg.BurnDash
}

func (c *Current) setBurning(on bool) {
	if on {
		c.burnEnable()
	} else {
		c.burnDisable()
	}
}

func (c *Current) burnEnable() {
	if c.burning {
		return
	}
	c.burning = true
	c.burnStart = c.clock.Now()
}

func (c *Current) burnDisable() {
	if !c.burning {
		return
	}
	c.burning = false
}

// refreshRules replaces the rule set; rules never accumulate across updates.
func (c *Current) refreshRules() {
	rules := make(map[string]Rule)
	switch {
	case c.burning:
		name := c.ID + "-burn"
		rules[name] = Rule{
			Name:      name,
			Kind:      RuleBurn,
			Animation: Animation{Start: c.burnStart, Duration: c.cfg.BurnDuration},
			Dash:      c.cfg.BurnDash,
		}
	case c.active:
		for _, p := range c.particles {
			name := fmt.Sprintf("%s-particle-%d", c.ID, p.Index)
			rules[name] = Rule{Name: name, Kind: RuleParticle, Particle: p.Index, Animation: p.Animation}
		}
	}
	c.rules = rules
}
