// Package giorender draws board scenes with Gio.
package giorender

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget"

	bblayout "github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/camera"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Smallest text drawn, in pixels. Smaller labels are skipped.
const minTextPx = 6

// Renderer draws scenes through a camera.
type Renderer struct {
	Camera *camera.Camera
	shaper *text.Shaper
}

// New returns a renderer using the Go fonts.
func New(cam *camera.Camera) *Renderer {
	return &Renderer{
		Camera: cam,
		shaper: text.NewShaper(text.WithCollection(gofont.Collection())),
	}
}

// Render draws every visible node of root.
func (r *Renderer) Render(gtx layout.Context, root *scene.Group) {
	r.group(gtx, root)
}

func (r *Renderer) group(gtx layout.Context, g *scene.Group) {
	if g.Hidden {
		return
	}
	for _, n := range g.Children {
		switch s := n.(type) {
		case *scene.Group:
			r.group(gtx, s)
		case *scene.Rect:
			r.rect(gtx, s)
		case *scene.Circle:
			r.circle(gtx, s)
		case *scene.Polyline:
			r.polyline(gtx, s)
		case *scene.Text:
			r.text(gtx, s)
		}
	}
}

func (r *Renderer) screen(x, y float64) f32.Point {
	sx, sy := r.Camera.WorldToScreen(bblayout.Vec{X: x, Y: y})
	return f32.Pt(float32(sx), float32(sy))
}

func (r *Renderer) rect(gtx layout.Context, s *scene.Rect) {
	if r.Camera.Rotation == 0 && !r.Camera.FlipView {
		a, b := r.screen(s.X, s.Y), r.screen(s.X+s.W, s.Y+s.H)
		rr := clip.UniformRRect(image.Rectangle{Min: a.Round(), Max: b.Round()}, int(r.Camera.Scale(s.Radius)))
		if s.Fill != "" {
			paint.FillShape(gtx.Ops, nrgba(s.Fill, s.Alpha()), rr.Op(gtx.Ops))
		}
		if s.Stroke != "" {
			paint.FillShape(gtx.Ops, nrgba(s.Stroke, s.Alpha()),
				clip.Stroke{Path: rr.Path(gtx.Ops), Width: r.strokeWidth(s.StrokeWidth)}.Op())
		}
		return
	}

	// Rotated or mirrored views draw the transformed outline.
	corners := [4]f32.Point{
		r.screen(s.X, s.Y), r.screen(s.X+s.W, s.Y),
		r.screen(s.X+s.W, s.Y+s.H), r.screen(s.X, s.Y+s.H),
	}
	outline := func() clip.PathSpec {
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(corners[0])
		for _, c := range corners[1:] {
			p.LineTo(c)
		}
		p.Close()
		return p.End()
	}
	if s.Fill != "" {
		paint.FillShape(gtx.Ops, nrgba(s.Fill, s.Alpha()), clip.Outline{Path: outline()}.Op())
	}
	if s.Stroke != "" {
		paint.FillShape(gtx.Ops, nrgba(s.Stroke, s.Alpha()),
			clip.Stroke{Path: outline(), Width: r.strokeWidth(s.StrokeWidth)}.Op())
	}
}

func (r *Renderer) circle(gtx layout.Context, s *scene.Circle) {
	c := r.screen(s.CX, s.CY)
	rad := float32(math.Max(r.Camera.Scale(s.R), 1))
	box := image.Rectangle{
		Min: f32.Pt(c.X-rad, c.Y-rad).Round(),
		Max: f32.Pt(c.X+rad, c.Y+rad).Round(),
	}
	e := clip.Ellipse(box)
	if s.Fill != "" {
		paint.FillShape(gtx.Ops, nrgba(s.Fill, s.Alpha()), e.Op(gtx.Ops))
	}
	if s.Stroke != "" {
		paint.FillShape(gtx.Ops, nrgba(s.Stroke, s.Alpha()),
			clip.Stroke{Path: e.Path(gtx.Ops), Width: r.strokeWidth(s.StrokeWidth)}.Op())
	}
}

func (r *Renderer) polyline(gtx layout.Context, s *scene.Polyline) {
	if s.Stroke == "" || len(s.Points) < 2 {
		return
	}
	col := nrgba(s.Stroke, s.Alpha())
	width := r.strokeWidth(s.StrokeWidth)
	if len(s.Dash) > 0 {
		for _, seg := range dashSegments(s.Points, s.Dash, s.DashOffset) {
			renderLine(gtx, r.screen(seg.A.X, seg.A.Y), r.screen(seg.B.X, seg.B.Y), width, col)
		}
		return
	}
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(r.screen(s.Points[0].X, s.Points[0].Y))
	for _, p := range s.Points[1:] {
		path.LineTo(r.screen(p.X, p.Y))
	}
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: width}.Op())
}

func renderLine(gtx layout.Context, a, b f32.Point, width float32, col color.NRGBA) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(a)
	path.LineTo(b)
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: width}.Op())
}

func (r *Renderer) text(gtx layout.Context, s *scene.Text) {
	px := r.Camera.Scale(s.Size)
	if px < minTextPx || s.Text == "" {
		return
	}
	pos := r.screen(s.X, s.Y)

	gtx.Constraints = layout.Constraints{Max: image.Pt(1<<14, 1<<14)}
	material := op.Record(gtx.Ops)
	paint.ColorOp{Color: nrgba(s.Fill, s.Alpha())}.Add(gtx.Ops)
	colorCall := material.Stop()

	macro := op.Record(gtx.Ops)
	label := widget.Label{Alignment: text.Start, MaxLines: 1}
	dims := label.Layout(gtx, r.shaper, font.Font{}, gtx.Metric.PxToSp(int(px)), s.Text, colorCall)
	call := macro.Stop()

	x := int(pos.X)
	switch s.Anchor {
	case scene.AnchorMiddle:
		x -= dims.Size.X / 2
	case scene.AnchorEnd:
		x -= dims.Size.X
	}
	// The scene positions text at its baseline.
	y := int(pos.Y) - (dims.Size.Y - dims.Baseline)
	stack := op.Offset(image.Pt(x, y)).Push(gtx.Ops)
	call.Add(gtx.Ops)
	stack.Pop()
}

func (r *Renderer) strokeWidth(w float64) float32 {
	return float32(math.Max(r.Camera.Scale(w), 1))
}

func nrgba(hex string, alpha float64) color.NRGBA {
	if hex == "" {
		hex = "#000000"
	}
	return theme.ParseHex(hex, alpha)
}
