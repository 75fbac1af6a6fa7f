package giorender

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// segment is one visible piece of a dashed polyline.
type segment struct {
	A, B scene.Point
}

// dashSegments cuts a polyline into the "on" pieces of a dash pattern
// starting offset units into the pattern. Lengths are in the units of the
// points.
func dashSegments(pts []scene.Point, pattern []float64, offset float64) []segment {
	var period float64
	for _, d := range pattern {
		if d < 0 {
			return nil
		}
		period += d
	}
	if len(pts) < 2 {
		return nil
	}
	if period <= 0 {
		out := make([]segment, 0, len(pts)-1)
		for i := 1; i < len(pts); i++ {
			out = append(out, segment{pts[i-1], pts[i]})
		}
		return out
	}

	// Position within the pattern.
	idx := 0
	left := pattern[0]
	phase := math.Mod(offset, period)
	if phase < 0 {
		phase += period
	}
	for phase > 0 {
		if phase < left {
			left -= phase
			break
		}
		phase -= left
		idx = (idx + 1) % len(pattern)
		left = pattern[idx]
	}

	var out []segment
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		pos := 0.0
		for pos < segLen {
			step := math.Min(left, segLen-pos)
			if idx%2 == 0 && step > 0 {
				out = append(out, segment{lerp(a, b, pos/segLen), lerp(a, b, (pos+step)/segLen)})
			}
			pos += step
			left -= step
			if left <= 0 {
				idx = (idx + 1) % len(pattern)
				left = pattern[idx]
			}
		}
	}
	return out
}

func lerp(a, b scene.Point, t float64) scene.Point {
	return scene.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}
