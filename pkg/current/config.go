package current

import (
	"fmt"
	"time"
)

// Config controls particle spacing and animation speed.
type Config struct {
	AnimationDelta float64       `toml:"animation_delta"` // particle spacing in board units
	DurationMin    time.Duration `toml:"duration_min"`    // cycle of the strongest current
	DurationMax    time.Duration `toml:"duration_max"`    // cycle of the weakest current
	ParticleRadius float64       `toml:"particle_radius"`
	LineWidth      float64       `toml:"line_width"`
	BurnDash       float64       `toml:"burn_dash"`     // dash length of a burning line
	BurnDuration   time.Duration `toml:"burn_duration"` // one marching-ants cycle
}

// DefaultConfig returns the animation constants used by the stock board.
func DefaultConfig() Config {
	return Config{
		AnimationDelta: 200,
		DurationMin:    1500 * time.Millisecond,
		DurationMax:    9 * time.Second,
		ParticleRadius: 6,
		LineWidth:      6,
		BurnDash:       12,
		BurnDuration:   500 * time.Millisecond,
	}
}

// Validate rejects configurations that cannot produce a finite animation.
func (c Config) Validate() error {
	if c.AnimationDelta <= 0 {
		return fmt.Errorf("current: animation delta must be positive, got %g", c.AnimationDelta)
	}
	if c.DurationMin <= 0 || c.DurationMax <= 0 {
		return fmt.Errorf("current: durations must be positive, got %s..%s", c.DurationMin, c.DurationMax)
	}
	if c.DurationMin > c.DurationMax {
		return fmt.Errorf("current: duration_min %s exceeds duration_max %s", c.DurationMin, c.DurationMax)
	}
	if c.ParticleRadius <= 0 || c.LineWidth <= 0 {
		return fmt.Errorf("current: particle radius and line width must be positive")
	}
	if c.BurnDuration <= 0 {
		return fmt.Errorf("current: burn duration must be positive, got %s", c.BurnDuration)
	}
	return nil
}

// Duration interpolates the particle cycle between DurationMax for a zero
// normalized weight and DurationMin for the strongest current.
func (c Config) Duration(normalized float64) time.Duration {
	max, min := float64(c.DurationMax), float64(c.DurationMin)
	return time.Duration(max + normalized*(min-max))
}
