package termrender

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// canvas is an in-memory Canvas.
type canvas struct {
	w, h   int
	cells  [][]rune
	styles [][]tcell.Style
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h), styles: make([][]tcell.Style, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
		c.styles[y] = make([]tcell.Style, w)
	}
	return c
}

func (c *canvas) SetContent(x, y int, r rune, _ []rune, st tcell.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
	c.styles[y][x] = st
}

func (c *canvas) Size() (int, int) { return c.w, c.h }

func (c *canvas) row(y int) string { return string(c.cells[y]) }

func (c *canvas) count(r rune) int {
	n := 0
	for y := range c.cells {
		n += strings.Count(c.row(y), string(r))
	}
	return n
}

var _ Canvas = tcell.Screen(nil)

// identity renders world units one to one, two rows per unit.
func identity(r *Renderer) {
	r.Camera.CenterX = float64(r.Camera.ScreenWidth) / 2
	r.Camera.CenterY = float64(r.Camera.ScreenHeight)
	r.Camera.Zoom = 1
}

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		node  scene.Node
		glyph rune
		want  int
	}{
		{"particle", &scene.Circle{ID: "p", CX: 5, CY: 2, R: 1, Style: scene.Style{Fill: "#ffcc00"}}, GlyphParticle, 1},
		{"tiny circle", &scene.Circle{ID: "c", CX: 5, CY: 2, R: 0.1, Style: scene.Style{Fill: "#ffcc00"}}, GlyphDot, 1},
		{"transparent", &scene.Circle{ID: "c", CX: 5, CY: 2, R: 1, Style: scene.Style{Fill: "#ffcc00", Opacity: 0.01}}, GlyphParticle, 0},
		{"horizontal", &scene.Polyline{ID: "h", Points: []scene.Point{{X: 2, Y: 3}, {X: 11, Y: 3}}, Style: scene.Style{Stroke: "#00ff00"}}, GlyphHLine, 10},
		{"dashed", &scene.Polyline{ID: "d", Points: []scene.Point{{X: 2, Y: 3}, {X: 11, Y: 3}}, Style: scene.Style{Stroke: "#ff0000", Dash: []float64{2, 2}}}, GlyphDashH, 6},
		{"small rect", &scene.Rect{ID: "r", X: 4, Y: 4, W: 0.3, H: 0.3, Style: scene.Style{Fill: "#888888"}}, GlyphSmall, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCanvas(20, 11)
			r := New(s)
			identity(r)
			root := scene.NewGroup("root", "")
			root.Add(tt.node)
			r.Render(root)
			if got := s.count(tt.glyph); got != tt.want {
				t.Errorf("%q drawn %d times, want %d", tt.glyph, got, tt.want)
			}
		})
	}
}

func TestTextAnchor(t *testing.T) {
	tests := []struct {
		anchor scene.Anchor
		col    int
	}{
		{scene.AnchorStart, 10},
		{scene.AnchorMiddle, 8},
		{scene.AnchorEnd, 6},
	}
	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			s := newCanvas(20, 11)
			r := New(s)
			identity(r)
			root := scene.NewGroup("root", "")
			root.Add(&scene.Text{ID: "t", X: 10, Y: 8, Text: "VCC+", Anchor: tt.anchor})
			r.Render(root)
			if got := strings.Index(s.row(4), "VCC+"); got != tt.col {
				t.Errorf("text at column %d, want %d", got, tt.col)
			}
		})
	}
}

func TestHiddenGroupSkipped(t *testing.T) {
	s := newCanvas(20, 11)
	r := New(s)
	identity(r)
	root := scene.NewGroup("root", "")
	g := root.Group("labels", "")
	g.Hidden = true
	g.Add(&scene.Text{ID: "t", X: 2, Y: 2, Text: "hidden"})
	r.Render(root)
	for y := 0; y < 10; y++ {
		if strings.Contains(s.row(y), "hidden") {
			t.Fatal("hidden group rendered")
		}
	}
}

func TestStatus(t *testing.T) {
	s := newCanvas(30, 10)
	r := New(s)
	r.Status(0, "short circuit", "#ffffff", "#ff0000")
	if got := strings.TrimRight(s.row(9), " "); got != "short circuit" {
		t.Errorf("status row = %q", got)
	}
	want := tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 255, 255)).Background(tcell.NewRGBColor(255, 0, 0))
	if s.styles[9][29] != want {
		t.Error("status padding lost the status style")
	}
	r.Status(1, "out of range", "", "")
	if strings.Contains(s.row(8), "out of range") {
		t.Error("status written outside the status area")
	}
}

func TestRenderBoard(t *testing.T) {
	opts := board.DefaultOptions()
	opts.Logger = logx.Discard()
	opts.Clock = current.NewManualClock(time.Unix(0, 0))
	b, err := board.New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	threads := []current.Thread{{From: layout.Point{X: 1, Y: 0}, To: layout.Point{X: 9, Y: 0}, Weight: 1}}

	s := newCanvas(120, 40)
	r := New(s)
	marks := func(now time.Time) int {
		b.View(now, func(root *scene.Group) {
			r.Fit(scene.BoundsOf(root))
			r.Render(root)
		})
		return s.count(GlyphParticle) + s.count(GlyphDot)
	}
	idle := marks(time.Unix(0, 0))
	if err := b.SetCurrents(threads, nil); err != nil {
		t.Fatal(err)
	}
	if got := marks(time.Unix(0, 0).Add(500 * time.Millisecond)); got <= idle {
		t.Errorf("particle marks = %d with a current, %d without", got, idle)
	}
}

func TestLine(t *testing.T) {
	var got [][2]int
	line(0, 0, 3, 1, func(x, y int) { got = append(got, [2]int{x, y}) })
	if len(got) != 4 || got[0] != [2]int{0, 0} || got[3] != [2]int{3, 1} {
		t.Errorf("line cells = %v", got)
	}
}
