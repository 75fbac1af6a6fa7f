// Package termrender rasterizes board scenes onto a character grid.
package termrender

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/camera"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Canvas is the part of tcell.Screen the renderer draws on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
}

// Glyphs used for shapes smaller than a character cell.
const (
	GlyphParticle = '●'
	GlyphDot      = '·'
	GlyphSmall    = '▪'
	GlyphHLine    = '─'
	GlyphVLine    = '│'
	GlyphDiag     = '•'
	GlyphDashH    = '╌'
	GlyphDashV    = '┆'
)

// Shapes fainter than this are not drawn.
const minAlpha = 0.05

// Renderer draws scenes on a terminal. Status lines are reserved at the
// bottom of the canvas.
type Renderer struct {
	Camera      *camera.Camera
	StatusLines int
	Background  string // #rrggbb, empty for the terminal default

	canvas Canvas
	bg     [][]tcell.Color // background per cell for the current frame
}

// New creates a renderer fitted to the canvas, with one status line.
func New(c Canvas) *Renderer {
	w, h := c.Size()
	cam := camera.New(w, max(h-1, 1))
	cam.CellAspect = 2
	return &Renderer{Camera: cam, StatusLines: 1, canvas: c}
}

// Fit resizes the camera to the canvas and fits bounds into the drawing
// area.
func (r *Renderer) Fit(b scene.Bounds) {
	w, h := r.canvas.Size()
	r.Camera.Resize(w, max(h-r.StatusLines, 1))
	r.Camera.Fit(b)
}

// Render clears the drawing area and draws every visible node of root.
func (r *Renderer) Render(root *scene.Group) {
	w, h := r.Camera.ScreenWidth, r.Camera.ScreenHeight
	base := tcell.ColorDefault
	if r.Background != "" {
		base = color(r.Background)
	}
	r.bg = make([][]tcell.Color, h)
	for y := range r.bg {
		r.bg[y] = make([]tcell.Color, w)
		for x := range r.bg[y] {
			r.bg[y][x] = base
			r.canvas.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(base))
		}
	}
	r.group(root)
}

// Status writes a line into the status area, padded to the full width.
func (r *Renderer) Status(line int, text string, fg, bg string) {
	w, h := r.canvas.Size()
	y := h - r.StatusLines + line
	if line < 0 || line >= r.StatusLines || y < 0 {
		return
	}
	st := tcell.StyleDefault
	if fg != "" {
		st = st.Foreground(color(fg))
	}
	if bg != "" {
		st = st.Background(color(bg))
	}
	runes := []rune(text)
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(runes) {
			ch = runes[x]
		}
		r.canvas.SetContent(x, y, ch, nil, st)
	}
}

func (r *Renderer) group(g *scene.Group) {
	if g.Hidden {
		return
	}
	for _, n := range g.Children {
		switch s := n.(type) {
		case *scene.Group:
			r.group(s)
		case *scene.Rect:
			r.rect(s)
		case *scene.Circle:
			r.circle(s)
		case *scene.Polyline:
			r.polyline(s)
		case *scene.Text:
			r.text(s)
		}
	}
}

func (r *Renderer) cell(x, y float64) (int, int) {
	sx, sy := r.Camera.WorldToScreen(layout.Vec{X: x, Y: y})
	return int(math.Floor(sx)), int(math.Floor(sy))
}

func (r *Renderer) inside(x, y int) bool {
	return y >= 0 && y < len(r.bg) && x >= 0 && x < len(r.bg[y])
}

// put draws a glyph keeping the background of the cell.
func (r *Renderer) put(x, y int, ch rune, fg tcell.Color) {
	if !r.inside(x, y) {
		return
	}
	r.canvas.SetContent(x, y, ch, nil, tcell.StyleDefault.Foreground(fg).Background(r.bg[y][x]))
}

func (r *Renderer) rect(s *scene.Rect) {
	if s.Alpha() < minAlpha || (s.Fill == "" && s.Stroke == "") {
		return
	}
	x0, y0 := r.cell(s.X, s.Y)
	x1, y1 := r.cell(s.X+s.W, s.Y+s.H)
	x0, x1 = min(x0, x1), max(x0, x1)
	y0, y1 = min(y0, y1), max(y0, y1)

	if s.Fill == "" {
		// Outline only.
		fg := color(s.Stroke)
		for x := x0; x <= x1; x++ {
			r.put(x, y0, GlyphHLine, fg)
			r.put(x, y1, GlyphHLine, fg)
		}
		for y := y0; y <= y1; y++ {
			r.put(x0, y, GlyphVLine, fg)
			r.put(x1, y, GlyphVLine, fg)
		}
		return
	}

	fill := color(s.Fill)
	if x1-x0 < 1 && y1-y0 < 1 {
		// Smaller than a cell.
		cx, cy := r.cell(s.X+s.W/2, s.Y+s.H/2)
		r.put(cx, cy, GlyphSmall, fill)
		return
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if r.inside(x, y) {
				r.bg[y][x] = fill
				r.canvas.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(fill))
			}
		}
	}
}

func (r *Renderer) circle(s *scene.Circle) {
	if s.Alpha() < minAlpha {
		return
	}
	hex := s.Fill
	if hex == "" {
		hex = s.Stroke
	}
	if hex == "" {
		return
	}
	x, y := r.cell(s.CX, s.CY)
	glyph := GlyphParticle
	if r.Camera.Scale(s.R) < 0.5 {
		glyph = GlyphDot
	}
	r.put(x, y, glyph, color(hex))
}

func (r *Renderer) polyline(s *scene.Polyline) {
	if s.Stroke == "" || s.Alpha() < minAlpha {
		return
	}
	fg := color(s.Stroke)
	var dash float64
	if len(s.Dash) > 0 {
		dash = math.Max(r.Camera.Scale(s.Dash[0]), 1)
	}
	offset := r.Camera.Scale(s.DashOffset)
	walked := 0.0
	for i := 1; i < len(s.Points); i++ {
		ax, ay := r.cell(s.Points[i-1].X, s.Points[i-1].Y)
		bx, by := r.cell(s.Points[i].X, s.Points[i].Y)
		glyph, dashGlyph := GlyphDiag, GlyphDiag
		switch {
		case ay == by:
			glyph, dashGlyph = GlyphHLine, GlyphDashH
		case ax == bx:
			glyph, dashGlyph = GlyphVLine, GlyphDashV
		}
		line(ax, ay, bx, by, func(x, y int) {
			g := glyph
			if dash > 0 {
				// Marching dashes: odd dash slots are gaps.
				if int(math.Floor((walked+offset)/dash))%2 != 0 {
					walked++
					return
				}
				g = dashGlyph
			}
			walked++
			r.put(x, y, g, fg)
		})
	}
}

// line visits the cells of a segment (Bresenham).
func line(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (r *Renderer) text(s *scene.Text) {
	if s.Text == "" || s.Alpha() < minAlpha {
		return
	}
	runes := []rune(s.Text)
	x, y := r.cell(s.X, s.Y)
	switch s.Anchor {
	case scene.AnchorMiddle:
		x -= len(runes) / 2
	case scene.AnchorEnd:
		x -= len(runes)
	}
	hex := s.Fill
	if hex == "" {
		hex = "#000000"
	}
	fg := color(hex)
	for i, ch := range runes {
		r.put(x+i, y, ch, fg)
	}
}

func color(hex string) tcell.Color {
	c := theme.ParseHex(hex, 1)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
