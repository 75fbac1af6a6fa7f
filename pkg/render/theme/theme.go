// Package theme holds the board colour themes shared by layers and renderers.
package theme

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorTheme selects a board palette.
type ColorTheme int

const (
	ThemeClassic ColorTheme = iota
	ThemeDark
	ThemeNord
)

// ThemeNames maps theme enum to display name
var ThemeNames = map[ColorTheme]string{
	ThemeClassic: "classic",
	ThemeDark:    "dark",
	ThemeNord:    "nord",
}

// Element names used by layers.
const (
	Background   = "background"
	Board        = "board"
	Cell         = "cell"
	CellOccupied = "cell.occupied"
	Line         = "line"
	RailPlus     = "rail.plus"
	RailMinus    = "rail.minus"
	Analog       = "analog"
	Aux          = "aux"
	Label        = "label"
	LabelMuted   = "label.muted"
	Region       = "region"
	Plate        = "plate"
	VoltageLow   = "voltage.low"
	VoltageHigh  = "voltage.high"
	Popup        = "popup"
	Menu         = "menu"
)

var classicColors = map[string]color.NRGBA{
	Background:   {R: 236, G: 236, B: 230, A: 255},
	Board:        {R: 250, G: 250, B: 245, A: 255},
	Cell:         {R: 96, G: 96, B: 96, A: 255},
	CellOccupied: {R: 40, G: 40, B: 40, A: 255},
	Line:         {R: 200, G: 200, B: 200, A: 255},
	RailPlus:     {R: 200, G: 52, B: 52, A: 255},  // red
	RailMinus:    {R: 77, G: 127, B: 196, A: 255}, // blue
	Analog:       {R: 227, G: 183, B: 46, A: 255}, // gold
	Aux:          {R: 60, G: 60, B: 60, A: 255},
	Label:        {R: 40, G: 40, B: 40, A: 255},
	LabelMuted:   {R: 150, G: 150, B: 150, A: 255},
	Region:       {R: 89, G: 148, B: 220, A: 90},
	Plate:        {R: 20, G: 90, B: 50, A: 255},
	VoltageLow:   {R: 77, G: 127, B: 196, A: 160},
	VoltageHigh:  {R: 200, G: 52, B: 52, A: 160},
	Popup:        {R: 255, G: 255, B: 225, A: 255},
	Menu:         {R: 245, G: 245, B: 245, A: 255},
}

var darkColors = map[string]color.NRGBA{
	Background:   {R: 0, G: 16, B: 35, A: 255},
	Board:        {R: 24, G: 32, B: 48, A: 255},
	Cell:         {R: 160, G: 170, B: 180, A: 255},
	CellOccupied: {R: 236, G: 236, B: 236, A: 255},
	Line:         {R: 70, G: 80, B: 96, A: 255},
	RailPlus:     {R: 230, G: 80, B: 80, A: 255},
	RailMinus:    {R: 90, G: 150, B: 230, A: 255},
	Analog:       {R: 240, G: 200, B: 70, A: 255},
	Aux:          {R: 200, G: 200, B: 200, A: 255},
	Label:        {R: 220, G: 220, B: 220, A: 255},
	LabelMuted:   {R: 120, G: 130, B: 140, A: 255},
	Region:       {R: 2, G: 255, B: 238, A: 70},
	Plate:        {R: 25, G: 95, B: 55, A: 255},
	VoltageLow:   {R: 90, G: 150, B: 230, A: 160},
	VoltageHigh:  {R: 230, G: 80, B: 80, A: 160},
	Popup:        {R: 46, G: 52, B: 64, A: 255},
	Menu:         {R: 36, G: 42, B: 54, A: 255},
}

// Nord theme (based on Nord color palette)
var nordColors = map[string]color.NRGBA{
	Background:   {R: 46, G: 52, B: 64, A: 255},  // Nord0
	Board:        {R: 59, G: 66, B: 82, A: 255},  // Nord1
	Cell:         {R: 216, G: 222, B: 233, A: 255}, // Nord4
	CellOccupied: {R: 236, G: 239, B: 244, A: 255}, // Nord6
	Line:         {R: 76, G: 86, B: 106, A: 255},  // Nord3
	RailPlus:     {R: 191, G: 97, B: 106, A: 255}, // Nord11
	RailMinus:    {R: 129, G: 161, B: 193, A: 255}, // Nord9
	Analog:       {R: 235, G: 203, B: 139, A: 255}, // Nord13
	Aux:          {R: 229, G: 233, B: 240, A: 255}, // Nord5
	Label:        {R: 236, G: 239, B: 244, A: 255},
	LabelMuted:   {R: 143, G: 188, B: 187, A: 255}, // Nord7
	Region:       {R: 136, G: 192, B: 208, A: 80},  // Nord8
	Plate:        {R: 163, G: 190, B: 140, A: 255}, // Nord14
	VoltageLow:   {R: 129, G: 161, B: 193, A: 160},
	VoltageHigh:  {R: 191, G: 97, B: 106, A: 160},
	Popup:        {R: 67, G: 76, B: 94, A: 255}, // Nord2
	Menu:         {R: 59, G: 66, B: 82, A: 255},
}

// Palette resolves element colours for one theme.
type Palette struct {
	Theme  ColorTheme
	colors map[string]color.NRGBA
}

// Get returns the palette of a theme. Unknown themes fall back to classic.
func Get(t ColorTheme) *Palette {
	switch t {
	case ThemeDark:
		return &Palette{Theme: t, colors: darkColors}
	case ThemeNord:
		return &Palette{Theme: t, colors: nordColors}
	default:
		return &Palette{Theme: ThemeClassic, colors: classicColors}
	}
}

// Parse looks a theme up by name.
func Parse(name string) (ColorTheme, error) {
	for t, n := range ThemeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return ThemeClassic, fmt.Errorf("theme: unknown theme %q (have %s)", name, strings.Join(Names(), ", "))
}

// Names returns the theme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(ThemeNames))
	for _, n := range ThemeNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Color returns an element colour; unknown elements are gray.
func (p *Palette) Color(element string) color.NRGBA {
	if c, ok := p.colors[element]; ok {
		return c
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
}

// Hex returns an element colour as #rrggbb.
func (p *Palette) Hex(element string) string {
	return Hex(p.Color(element))
}

// Opacity returns the alpha of an element colour in [0, 1].
func (p *Palette) Opacity(element string) float64 {
	return float64(p.Color(element).A) / 255
}

// Hex formats a colour as #rrggbb, dropping alpha.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex converts #rrggbb into an opaque colour scaled by alpha in [0, 1].
// Malformed input yields opaque gray.
func ParseHex(hex string, alpha float64) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	}
	r, g, b := c.RGB255()
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}

// Mix blends two hex colours in RGB space.
func Mix(a, b string, t float64) string {
	ca, errA := colorful.Hex(a)
	cb, errB := colorful.Hex(b)
	if errA != nil || errB != nil {
		return a
	}
	return ca.BlendRgb(cb, t).Clamped().Hex()
}
