// Package svgout writes board scenes as SVG snapshots.
package svgout

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/camera"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Options controls the output document.
type Options struct {
	Width, Height int
	Background    string // #rrggbb, empty for transparent
	Title         string
	Rotation      float64 // degrees, multiples of 90 keep rects axis-aligned
}

// DefaultOptions returns an 1200x800 document.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 800}
}

// Render writes root as an SVG document fitted to the page.
func Render(w io.Writer, root *scene.Group, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("svgout: invalid page size %dx%d", opts.Width, opts.Height)
	}
	cam := camera.New(opts.Width, opts.Height)
	cam.Rotation = opts.Rotation
	cam.Fit(scene.BoundsOf(root))

	ew := &errWriter{w: w}
	r := &renderer{canvas: svg.New(ew), cam: cam}
	r.canvas.Start(opts.Width, opts.Height)
	if opts.Title != "" {
		r.canvas.Title(opts.Title)
	}
	if opts.Background != "" {
		r.canvas.Rect(0, 0, opts.Width, opts.Height, "fill:"+opts.Background)
	}
	r.group(root)
	r.canvas.End()
	return ew.err
}

type renderer struct {
	canvas *svg.SVG
	cam    *camera.Camera
}

func (r *renderer) group(g *scene.Group) {
	if g.Hidden {
		return
	}
	r.canvas.Gid(g.ID)
	for _, n := range g.Children {
		switch s := n.(type) {
		case *scene.Group:
			r.group(s)
		case *scene.Rect:
			r.rect(s)
		case *scene.Circle:
			x, y := r.point(s.CX, s.CY)
			r.canvas.Circle(x, y, r.length(s.R), idAttr(s.ID), style(s.Style, r.cam))
		case *scene.Polyline:
			xs := make([]int, len(s.Points))
			ys := make([]int, len(s.Points))
			for i, p := range s.Points {
				xs[i], ys[i] = r.point(p.X, p.Y)
			}
			r.canvas.Polyline(xs, ys, idAttr(s.ID), style(s.Style, r.cam))
		case *scene.Text:
			x, y := r.point(s.X, s.Y)
			st := style(s.Style, r.cam) + fmt.Sprintf(";font-size:%dpx;font-family:sans-serif;text-anchor:%s",
				max(r.length(s.Size), 1), s.Anchor)
			r.canvas.Text(x, y, s.Text, idAttr(s.ID), st)
		}
	}
	r.canvas.Gend()
}

func (r *renderer) rect(s *scene.Rect) {
	x0, y0 := r.cam.WorldToScreen(layout.Vec{X: s.X, Y: s.Y})
	x1, y1 := r.cam.WorldToScreen(layout.Vec{X: s.X + s.W, Y: s.Y + s.H})
	x, y := round(math.Min(x0, x1)), round(math.Min(y0, y1))
	w, h := round(math.Abs(x1-x0)), round(math.Abs(y1-y0))
	if s.Radius > 0 {
		rad := r.length(s.Radius)
		r.canvas.Roundrect(x, y, w, h, rad, rad, idAttr(s.ID), style(s.Style, r.cam))
		return
	}
	r.canvas.Rect(x, y, w, h, idAttr(s.ID), style(s.Style, r.cam))
}

func (r *renderer) point(x, y float64) (int, int) {
	sx, sy := r.cam.WorldToScreen(layout.Vec{X: x, Y: y})
	return round(sx), round(sy)
}

func (r *renderer) length(l float64) int {
	return round(r.cam.Scale(l))
}

func round(v float64) int { return int(math.Round(v)) }

func idAttr(id string) string {
	return fmt.Sprintf(`id="%s"`, strings.ReplaceAll(id, `"`, "'"))
}

// style renders the SVG style attribute of a shape.
func style(s scene.Style, cam *camera.Camera) string {
	var b strings.Builder
	if s.Fill != "" {
		fmt.Fprintf(&b, "fill:%s", s.Fill)
	} else {
		b.WriteString("fill:none")
	}
	if s.Stroke != "" {
		fmt.Fprintf(&b, ";stroke:%s;stroke-width:%.2f", s.Stroke, math.Max(cam.Scale(s.StrokeWidth), 0.5))
		if len(s.Dash) > 0 {
			parts := make([]string, len(s.Dash))
			for i, d := range s.Dash {
				parts[i] = fmt.Sprintf("%.2f", cam.Scale(d))
			}
			fmt.Fprintf(&b, ";stroke-dasharray:%s;stroke-dashoffset:%.2f", strings.Join(parts, ","), cam.Scale(s.DashOffset))
		}
	}
	if a := s.Alpha(); a < 1 {
		fmt.Fprintf(&b, ";opacity:%.3f", a)
	}
	return b.String()
}

// errWriter keeps the first write error; svgo ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (c *errWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.err = err
	return n, err
}
