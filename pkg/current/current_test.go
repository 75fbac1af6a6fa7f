package current

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func pt(x, y int) layout.Point { return layout.Point{X: x, Y: y} }

func TestNormalize(t *testing.T) {
	if Normalize(0) != 0 {
		t.Fatalf("Normalize(0) = %v, want 0", Normalize(0))
	}
	prev := Normalize(0)
	for _, w := range []float64{1e-6, 0.01, 0.1, 0.5, 1, 2, 5, 50, 1e4} {
		got := Normalize(w)
		if got <= prev {
			t.Errorf("Normalize(%v) = %v, not above %v", w, got, prev)
		}
		if got >= 1 {
			t.Errorf("Normalize(%v) = %v, want < 1", w, got)
		}
		prev = got
	}

	want := easeOutQuad(1 - 1/(1+1.6*0.5))
	if got := Normalize(0.5); math.Abs(got-want) > 1e-15 {
		t.Errorf("Normalize(0.5) = %v, want %v", got, want)
	}
}

func TestPickColorFromRange(t *testing.T) {
	tests := []struct {
		weight float64
		want   string
	}{
		{0, "#006eff"},
		{-1, "#006eff"},
		{0.25, "#00ffff"},
		{0.5, "#00ff00"},
		{1, "#ff0000"},
		{3, "#ff0000"},
		{0.625, "#80ff00"},
	}
	for _, tt := range tests {
		if got := PickColorFromRange(tt.weight); got != tt.want {
			t.Errorf("PickColorFromRange(%v) = %s, want %s", tt.weight, got, tt.want)
		}
	}
}

func TestPickOpacityFromRange(t *testing.T) {
	if got := PickOpacityFromRange(0); got != OpacityMin {
		t.Errorf("PickOpacityFromRange(0) = %v, want %v", got, OpacityMin)
	}
	if got := PickOpacityFromRange(FullOpacityThreshold); got != 1 {
		t.Errorf("opacity at threshold = %v, want 1", got)
	}
	if got := PickOpacityFromRange(0.5); got != 1 {
		t.Errorf("opacity above threshold = %v, want 1", got)
	}
	below := PickOpacityFromRange(FullOpacityThreshold * 0.999)
	if below >= 1 || below < 0.99 {
		t.Errorf("opacity just below threshold = %v", below)
	}
	if PickOpacityFromRange(0.01) >= PickOpacityFromRange(0.03) {
		t.Error("opacity is not rising")
	}
}

func TestOverlayConservation(t *testing.T) {
	tests := []struct {
		name    string
		threads []Thread
		want    []Thread
	}{
		{
			name:    "same direction",
			threads: []Thread{{pt(0, 0), pt(4, 0), 0.3}, {pt(0, 0), pt(4, 0), 0.2}},
			want:    []Thread{{pt(0, 0), pt(4, 0), 0.5}},
		},
		{
			name:    "opposite direction",
			threads: []Thread{{pt(0, 0), pt(4, 0), 0.3}, {pt(4, 0), pt(0, 0), 0.5}},
			want:    []Thread{{pt(4, 0), pt(0, 0), 0.2}},
		},
		{
			name:    "partial overlap",
			threads: []Thread{{pt(0, 2), pt(4, 2), 1}, {pt(2, 2), pt(6, 2), 1}},
			want: []Thread{
				{pt(0, 2), pt(2, 2), 1},
				{pt(2, 2), pt(4, 2), 2},
				{pt(4, 2), pt(6, 2), 1},
			},
		},
		{
			name:    "rejoin equal pieces",
			threads: []Thread{{pt(1, 0), pt(1, 3), 0.4}, {pt(1, 3), pt(1, 5), 0.4}},
			want:    []Thread{{pt(1, 0), pt(1, 5), 0.4}},
		},
		{
			name:    "gap stays open",
			threads: []Thread{{pt(0, 0), pt(1, 0), 1}, {pt(3, 0), pt(5, 0), 1}},
			want:    []Thread{{pt(0, 0), pt(1, 0), 1}, {pt(3, 0), pt(5, 0), 1}},
		},
		{
			name:    "diagonal passes through",
			threads: []Thread{{pt(0, 0), pt(2, 2), -0.7}},
			want:    []Thread{{pt(2, 2), pt(0, 0), 0.7}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlay(tt.threads)
			if len(got) != len(tt.want) {
				t.Fatalf("Overlay() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].SameEndpoints(tt.want[i]) || math.Abs(got[i].Weight-tt.want[i].Weight) > 1e-12 {
					t.Errorf("Overlay()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildParticles(t *testing.T) {
	ps := buildParticles(500, 200)
	if len(ps) != 3 {
		t.Fatalf("particles = %d, want 3", len(ps))
	}
	last := ps[2]
	if last.ProgressEnd != 1 || !last.Incomplete {
		t.Errorf("last particle = %+v, want clamped and incomplete", last)
	}
	if got := last.Clamp(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Clamp() = %v, want 0.5", got)
	}
	if k := last.At(0.75); k.Opacity != 0 || k.Scale != 0 {
		t.Errorf("incomplete particle visible past the end: %+v", k)
	}
	if k := last.At(0.25); k.Opacity != 1 || math.Abs(k.Progress-0.9) > 1e-12 {
		t.Errorf("At(0.25) = %+v", k)
	}

	// Fades out over the last part of its run instead of vanishing.
	fade := []struct {
		phase, want float64
	}{
		{0.40, 1},
		{0.45, 0.5},
		{0.49, 0.1},
		{0.50, 0},
	}
	for _, f := range fade {
		k := last.At(f.phase)
		if math.Abs(k.Opacity-f.want) > 1e-9 || math.Abs(k.Scale-f.want) > 1e-9 {
			t.Errorf("At(%v) opacity=%v scale=%v, want %v", f.phase, k.Opacity, k.Scale, f.want)
		}
	}

	exact := buildParticles(600, 200)
	if exact[2].Incomplete {
		t.Error("exact fit flagged incomplete")
	}
}

func TestRetargetContinuity(t *testing.T) {
	start := epoch
	a := Animation{Start: start, Duration: 4 * time.Second}
	for _, step := range []struct {
		at time.Duration
		d  time.Duration
	}{
		{1300 * time.Millisecond, 9 * time.Second},
		{7 * time.Second, 1500 * time.Millisecond},
		{11*time.Second + 7*time.Millisecond, 2 * time.Second},
		{40 * time.Second, 8300 * time.Millisecond},
	} {
		now := start.Add(step.at)
		before := a.Phase(now)
		a = a.Retarget(now, step.d)
		after := a.Phase(now)
		if math.Abs(before-after) > 1e-6 {
			t.Errorf("at %s: phase %v became %v", step.at, before, after)
		}
		if a.Delay > 0 || a.Delay <= -step.d {
			t.Errorf("delay %s outside (-%s, 0]", a.Delay, step.d)
		}
	}
}

func TestActivateBeforeDraw(t *testing.T) {
	c := New(Thread{pt(0, 0), pt(2, 0), 0.5}, DefaultConfig(), NewManualClock(epoch))
	if err := c.Activate(); !errors.Is(err, ErrNotDrawn) {
		t.Fatalf("Activate() error = %v, want ErrNotDrawn", err)
	}
}

func drawn(t *testing.T, w float64, clock Clock) *Current {
	t.Helper()
	c := New(Thread{pt(0, 0), pt(4, 0), w}, DefaultConfig(), clock)
	c.Draw(Path{From: layout.Vec{X: 0, Y: 0}, To: layout.Vec{X: 500, Y: 0}})
	if err := c.Activate(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSetWeightKeepsPosition(t *testing.T) {
	clock := NewManualClock(epoch)
	c := drawn(t, 0.2, clock)

	clock.Advance(2300 * time.Millisecond)
	before := c.Snapshot(clock.Now())
	c.SetWeight(1.4)
	after := c.Snapshot(clock.Now())

	if len(before) != len(after) || len(before) == 0 {
		t.Fatalf("particle count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if math.Abs(before[i].Pos.X-after[i].Pos.X) > 1e-3 {
			t.Errorf("particle %d jumped from %v to %v", i, before[i].Pos, after[i].Pos)
		}
	}
	if c.Duration() >= DefaultConfig().Duration(Normalize(0.2)) {
		t.Error("heavier current is not faster")
	}
}

func TestRulesDoNotAccumulate(t *testing.T) {
	clock := NewManualClock(epoch)
	c := drawn(t, 0.3, clock)
	want := len(c.Particles())
	if len(c.Rules()) != want {
		t.Fatalf("rules = %d, want %d", len(c.Rules()), want)
	}

	for i := 0; i < 20; i++ {
		clock.Advance(170 * time.Millisecond)
		c.SetWeight(0.1 + float64(i)*0.05)
	}
	if len(c.Rules()) != want {
		t.Errorf("rules after updates = %d, want %d", len(c.Rules()), want)
	}
	for name := range c.Rules() {
		if len(name) <= len(c.ID) || name[:len(c.ID)] != c.ID {
			t.Errorf("rule %q not namespaced by %s", name, c.ID)
		}
	}

	c.Destroy()
	if len(c.Rules()) != 0 {
		t.Errorf("rules after Destroy = %d", len(c.Rules()))
	}
}

func TestBurning(t *testing.T) {
	clock := NewManualClock(epoch)
	c := drawn(t, 0.5, clock)

	c.SetWeight(3)
	if !c.Burning() {
		t.Fatal("weight 3 should burn")
	}
	if ps := c.Snapshot(clock.Now()); ps != nil {
		t.Errorf("burning current shows %d particles", len(ps))
	}
	rules := c.Rules()
	if len(rules) != 1 {
		t.Fatalf("burning rules = %v", rules)
	}
	if _, ok := rules[c.ID+"-burn"]; !ok {
		t.Errorf("missing burn rule in %v", rules)
	}

	c.SetWeight(3.5)
	if len(c.Rules()) != 1 {
		t.Errorf("repeated burn enable added rules: %d", len(c.Rules()))
	}

	c.SetWeight(0.1)
	if c.Burning() {
		t.Fatal("weight 0.1 should not burn")
	}
	if _, ok := c.Rules()[c.ID+"-burn"]; ok {
		t.Error("burn rule leaked after disable")
	}
	if len(c.Snapshot(clock.Now())) == 0 {
		t.Error("particles not restored after burning")
	}
}

func TestIDsAreUnique(t *testing.T) {
	a := New(Thread{}, DefaultConfig(), nil)
	b := New(Thread{}, DefaultConfig(), nil)
	if a.ID == b.ID {
		t.Errorf("duplicate id %s", a.ID)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.DurationMin = bad.DurationMax + time.Second
	if err := bad.Validate(); err == nil {
		t.Error("inverted durations accepted")
	}
	bad = DefaultConfig()
	bad.AnimationDelta = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero delta accepted")
	}
}
