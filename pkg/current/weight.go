package current

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// FullOpacityThreshold is the normalized weight from which a current is
	// drawn fully opaque.
	FullOpacityThreshold = 0.07
	// OpacityMin keeps the faintest meaningful current visible.
	OpacityMin = 0.15
)

// Colors is the ordered palette currents are coloured from, low to high weight.
var Colors = []string{
	"#006eff",
	"#00ffff",
	"#00ff00",
	"#ffff00",
	"#ff0000",
}

var palette = mustPalette(Colors)

func mustPalette(hex []string) []colorful.Color {
	out := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("current: bad palette colour " + h)
		}
		out[i] = c
	}
	return out
}

func easeOutQuad(t float64) float64 {
	return t * (2 - t)
}

// Normalize maps a raw weight into [0, 1) with diminishing returns, so large
// currents remain distinguishable from each other.
func Normalize(weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	return easeOutQuad(1 - 1/(1+1.6*weight))
}

// PickColorFromRange blends between the two palette entries bounding a
// normalized weight and returns the colour as #rrggbb.
func PickColorFromRange(weight float64) string {
	return pickColor(palette, weight).Hex()
}

func pickColor(colors []colorful.Color, weight float64) colorful.Color {
	switch {
	case len(colors) == 1 || weight <= 0:
		return colors[0]
	case weight >= 1:
		return colors[len(colors)-1]
	}
	pos := weight * float64(len(colors)-1)
	i := int(math.Floor(pos))
	return colors[i].BlendRgb(colors[i+1], pos-float64(i)).Clamped()
}

// PickOpacityFromRange rises exponentially from OpacityMin to 1 as the
// normalized weight approaches FullOpacityThreshold.
func PickOpacityFromRange(weight float64) float64 {
	if weight >= FullOpacityThreshold {
		return 1
	}
	if weight <= 0 {
		return OpacityMin
	}
	rise := (math.Exp(weight/FullOpacityThreshold) - 1) / (math.E - 1)
	return OpacityMin + (1-OpacityMin)*rise
}
