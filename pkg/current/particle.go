package current

import (
	"math"
	"time"
)

// Animation is the timing of one looping particle. Progress through a cycle
// is frac((now - Start - Delay) / Duration); a negative Delay starts the
// particle part-way through its cycle.
type Animation struct {
	Start    time.Time
	Duration time.Duration
	Delay    time.Duration
}

// Phase returns the fraction of the current cycle completed at now.
func (a Animation) Phase(now time.Time) float64 {
	if a.Duration <= 0 {
		return 0
	}
	cycles := float64(now.Sub(a.Start)-a.Delay) / float64(a.Duration)
	return cycles - math.Floor(cycles)
}

// Retarget switches to a new duration while keeping the phase at now. The
// returned delay lies in (-d, 0].
func (a Animation) Retarget(now time.Time, d time.Duration) Animation {
	phase := a.Phase(now)
	elapsed := float64(now.Sub(a.Start))
	delay := elapsed - phase*float64(d)
	delay -= math.Ceil(delay/float64(d)) * float64(d)
	return Animation{Start: a.Start, Duration: d, Delay: time.Duration(delay)}
}

// Particle travels from ProgressStart to ProgressEnd of the path once per
// cycle. An incomplete particle was clamped at the path end: it keeps the
// speed of the others and vanishes once it reaches the end.
type Particle struct {
	Index         int
	ProgressStart float64
	ProgressEnd   float64
	Span          float64 // distance travelled per cycle, as a path fraction
	Incomplete    bool
	Animation     Animation
}

// Keyframe is a sampled particle state.
type Keyframe struct {
	Progress float64 // position along the path in [0, 1]
	Opacity  float64
	Scale    float64 // radius multiplier
}

// Clamp returns the cycle fraction at which an incomplete particle reaches
// the path end. Complete particles return 1.
func (p Particle) Clamp() float64 {
	if !p.Incomplete || p.Span <= 0 {
		return 1
	}
	return (p.ProgressEnd - p.ProgressStart) / p.Span
}

// fadeShare is the part of an incomplete particle's run, ending at the
// clamp, over which it fades and shrinks to nothing.
const fadeShare = 0.2

// At samples the particle at a cycle phase.
func (p Particle) At(phase float64) Keyframe {
	clamp := p.Clamp()
	if p.Incomplete && phase >= clamp {
		return Keyframe{Progress: p.ProgressEnd}
	}
	pos := p.ProgressStart + phase*p.Span
	if pos > p.ProgressEnd {
		pos = p.ProgressEnd
	}
	k := Keyframe{Progress: pos, Opacity: 1, Scale: 1}
	if p.Incomplete {
		if f := (clamp - phase) / (clamp * fadeShare); f < 1 {
			k.Opacity, k.Scale = f, f
		}
	}
	return k
}

// Sample is At evaluated on the particle's own animation.
func (p Particle) Sample(now time.Time) Keyframe {
	return p.At(p.Animation.Phase(now))
}

// buildParticles splits a path into particles spaced delta apart.
func buildParticles(length, delta float64) []Particle {
	if length <= 0 {
		return nil
	}
	count := int(math.Ceil(length / delta))
	span := delta / length
	particles := make([]Particle, count)
	for k := range particles {
		start := float64(k) * span
		end := start + span
		p := Particle{Index: k, ProgressStart: start, ProgressEnd: end, Span: span}
		if end >= 1 {
			p.ProgressEnd = 1
			p.Incomplete = end > 1+1e-9
		}
		particles[k] = p
	}
	return particles
}
