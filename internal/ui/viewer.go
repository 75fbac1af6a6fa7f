// Package ui is the interactive Gio window of the breadboard simulator.
package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"github.com/oligo/gioview/menu"
	gvtheme "github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/camera"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/giorender"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/trace"
)

// Config holds what the viewer starts with.
type Config struct {
	Trace *trace.Trace // replayed on open when set
	Speed float64
	Loop  bool
}

// Viewer shows one board in a window. Traces replay into the board from a
// background goroutine; the window only reads it.
type Viewer struct {
	window   *app.Window
	board    *board.Breadboard
	cfg      Config
	log      *logx.Logger
	th       *gvtheme.Theme
	camera   *camera.Camera
	renderer *giorender.Renderer
	explorer *explorer.Explorer
	ops      op.Ops

	toolbar    toolbar
	layoutMenu *menu.DropdownMenu
	menuClicks []widget.Clickable

	canvasTag bool // pointer target of the board area
	fitted    bool
	refit     atomic.Bool // set from other goroutines
	dragging  bool
	lastDrag  f32.Point

	replays replays

	mu     sync.Mutex
	status string
}

// NewViewer wires a window to a board.
func NewViewer(w *app.Window, b *board.Breadboard, cfg Config, log *logx.Logger) *Viewer {
	cam := camera.New(1000, 800)
	v := &Viewer{
		window:   w,
		board:    b,
		cfg:      cfg,
		log:      log,
		th:       gvtheme.NewTheme("", nil, true),
		camera:   cam,
		renderer: giorender.New(cam),
		explorer: explorer.NewExplorer(w),
		status:   "Ready",
	}
	v.toolbar = newToolbar()
	v.layoutMenu = v.buildLayoutMenu()
	b.OnShortCircuitStart(w.Invalidate)
	b.OnShortCircuitEnd(w.Invalidate)
	return v
}

// Run blocks processing window events until the window closes.
func (v *Viewer) Run() error {
	if v.cfg.Trace != nil {
		v.play(v.cfg.Trace)
	}
	defer v.stop()
	for {
		e := v.window.Event()
		v.explorer.ListenEvents(e)
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&v.ops, ev)
			v.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (v *Viewer) layout(gtx layout.Context) layout.Dimensions {
	pal := v.board.Palette()
	paint.FillShape(gtx.Ops, pal.Color(theme.Background), clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(v.layoutToolbar),
		layout.Flexed(1, v.layoutCanvas),
		layout.Rigid(v.layoutStatusBar),
	)
}

func (v *Viewer) layoutCanvas(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	v.camera.Resize(size.X, size.Y)
	v.handleKeys(gtx)
	v.handlePointer(gtx)

	if v.refit.Swap(false) {
		v.fitted = false
	}
	area := clip.Rect{Max: size}.Push(gtx.Ops)
	event.Op(gtx.Ops, &v.canvasTag)
	v.board.View(gtx.Now, func(root *scene.Group) {
		if !v.fitted {
			v.camera.Fit(scene.BoundsOf(root))
			v.fitted = true
		}
		v.renderer.Render(gtx, root)
	})
	v.layoutContextMenu(gtx)
	area.Pop()

	if len(v.board.Currents()) > 0 {
		gtx.Execute(op.InvalidateCmd{})
	}
	return layout.Dimensions{Size: size}
}

func (v *Viewer) handleKeys(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: key.NameEscape},
			key.Filter{Name: key.NameSpace},
			key.Filter{Name: "Q"},
			key.Filter{Name: "R", Optional: key.ModShift},
			key.Filter{Name: "F"},
			key.Filter{Name: "L"},
			key.Filter{Name: "S"},
		)
		if !ok {
			break
		}
		ke, ok := ev.(key.Event)
		if !ok || ke.State != key.Press {
			continue
		}
		switch ke.Name {
		case key.NameEscape:
			if _, open := v.board.Menu(); open {
				v.board.CloseMenu()
				break
			}
			v.window.Perform(system.ActionClose)
		case "Q":
			v.window.Perform(system.ActionClose)
		case key.NameSpace:
			v.fitted = false
		case "R":
			if ke.Modifiers.Contain(key.ModShift) {
				v.camera.Rotate(-90)
			} else {
				v.camera.Rotate(90)
			}
			v.fitted = false
		case "F":
			v.camera.Flip()
		case "L":
			v.board.ToggleLayer(board.LayerLabel)
		case "S":
			v.stop()
		}
		gtx.Execute(op.InvalidateCmd{})
	}
}

func (v *Viewer) handlePointer(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &v.canvasTag,
			Kinds:   pointer.Press | pointer.Release | pointer.Drag | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			if pe.Buttons == pointer.ButtonSecondary {
				v.openMenuAt(pe.Position)
				break
			}
			v.dragging = true
			v.lastDrag = pe.Position
		case pointer.Drag:
			if v.dragging {
				d := pe.Position.Sub(v.lastDrag)
				v.camera.Pan(float64(d.X), float64(d.Y))
				v.lastDrag = pe.Position
			}
		case pointer.Release:
			v.dragging = false
		case pointer.Scroll:
			factor := 1.0 - float64(pe.Scroll.Y)*0.01
			v.camera.ZoomAt(float64(pe.Position.X), float64(pe.Position.Y), factor)
		}
		gtx.Execute(op.InvalidateCmd{})
	}
}

func (v *Viewer) openMenuAt(pos f32.Point) {
	world := v.camera.ScreenToWorld(float64(pos.X), float64(pos.Y))
	p, ok := v.board.PlateAt(world)
	if !ok {
		v.board.CloseMenu()
		return
	}
	if err := v.board.OpenPlateMenu(p.ID); err != nil {
		v.log.Warnf("ui: %v", err)
	}
}

func (v *Viewer) layoutContextMenu(gtx layout.Context) {
	req, open := v.board.Menu()
	if !open {
		return
	}
	if len(v.menuClicks) != len(req.Items) {
		v.menuClicks = make([]widget.Clickable, len(req.Items))
	}
	for i := range v.menuClicks {
		if v.menuClicks[i].Clicked(gtx) {
			if err := v.board.SelectMenuItem(i); err != nil {
				v.log.Warnf("ui: menu: %v", err)
			}
			v.menuClicks = nil
			return
		}
	}

	x, y := v.camera.WorldToScreen(req.Pos)
	defer op.Offset(image.Pt(int(x), int(y))).Push(gtx.Ops).Pop()
	gtx.Constraints.Min = image.Point{}
	width := gtx.Dp(unit.Dp(140))
	gtx.Constraints.Max.X = width

	macro := op.Record(gtx.Ops)
	children := make([]layout.FlexChild, len(req.Items))
	for i, item := range req.Items {
		click := &v.menuClicks[i]
		label := item.Label
		children[i] = layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min.X = width
			btn := material.Button(v.th.Theme, click, label)
			btn.Inset = layout.UniformInset(unit.Dp(6))
			return layout.Inset{Bottom: unit.Dp(2)}.Layout(gtx, btn.Layout)
		})
	}
	dims := layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	call := macro.Stop()

	paint.FillShape(gtx.Ops, v.board.Palette().Color(theme.Menu), clip.Rect{Max: dims.Size}.Op())
	call.Add(gtx.Ops)
}

func (v *Viewer) layoutStatusBar(gtx layout.Context) layout.Dimensions {
	v.mu.Lock()
	msg := v.status
	v.mu.Unlock()
	if v.replays.running() {
		msg = "Replaying: " + msg
	}

	opts := v.board.Options()
	text := fmt.Sprintf("%s | %d currents | %s", opts.Layout, len(v.board.Currents()), msg)
	lbl := material.Body2(v.th.Theme, text)
	bg := v.th.Bg2
	if v.board.ShortCircuit() {
		lbl.Text = "SHORT CIRCUIT | " + text
		lbl.Color = v.th.Palette.ContrastFg
		bg = theme.ParseHex(current.Colors[len(current.Colors)-1], 1)
	}

	macro := op.Record(gtx.Ops)
	dims := layout.UniformInset(unit.Dp(6)).Layout(gtx, lbl.Layout)
	call := macro.Stop()
	paint.FillShape(gtx.Ops, bg, clip.Rect{Max: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)}.Op())
	call.Add(gtx.Ops)
	return layout.Dimensions{Size: image.Pt(gtx.Constraints.Max.X, dims.Size.Y)}
}

func (v *Viewer) setStatus(format string, args ...any) {
	v.mu.Lock()
	v.status = fmt.Sprintf(format, args...)
	v.mu.Unlock()
	v.window.Invalidate()
}

// play replays a trace into the board, replacing any running replay.
func (v *Viewer) play(tr *trace.Trace) {
	ctx, gen := v.replays.start()
	p := trace.NewPlayer()
	if v.cfg.Speed > 0 {
		p.Speed = v.cfg.Speed
	}
	p.Loop = v.cfg.Loop
	p.Log = v.log
	p.OnFrame = func(i int, f trace.Frame) {
		if v.replays.current(gen) {
			v.setStatus("frame %d/%d at %s", i+1, len(tr.Frames), f.At)
		}
	}

	go func() {
		err := p.Play(ctx, tr, v.board)
		if !v.replays.finish(gen) {
			return
		}
		switch {
		case errors.Is(err, context.Canceled):
			v.setStatus("Stopped")
		case err != nil:
			v.log.Errorf("ui: replay: %v", err)
			v.setStatus("Replay failed")
		default:
			v.setStatus("Replay done")
		}
	}()
}

func (v *Viewer) stop() {
	v.replays.stop()
}

// openTrace asks for a trace file and replays it.
func (v *Viewer) openTrace() {
	go func() {
		file, err := v.explorer.ChooseFile("trace")
		if err != nil {
			if !errors.Is(err, explorer.ErrUserDecline) {
				v.log.Errorf("ui: file picker failed: %v", err)
			}
			return
		}
		defer file.Close()

		tr, err := trace.Read("trace", file)
		if err != nil {
			v.log.Errorf("ui: %v", err)
			v.setStatus("Cannot read trace")
			return
		}
		if tr.Layout != "" && tr.Layout != v.board.Options().Layout {
			if err := v.board.SetLayout(tr.Layout); err != nil {
				v.log.Errorf("ui: %v", err)
				v.setStatus("Unknown layout %q", tr.Layout)
				return
			}
			v.refit.Store(true)
		}
		v.play(tr)
	}()
}
