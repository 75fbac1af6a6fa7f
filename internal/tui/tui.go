// Package tui watches a board in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/termrender"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/trace"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Config holds what the watcher starts with.
type Config struct {
	Trace *trace.Trace // replayed on start when set
	Speed float64
	Loop  bool
}

// Muter silences an audible alarm. *alarm.Alarm implements it.
type Muter interface {
	Start()
	Stop()
	Sounding() bool
}

// App draws a board on a tcell screen until the user quits.
type App struct {
	screen   tcell.Screen
	board    *board.Breadboard
	renderer *termrender.Renderer
	alarm    Muter // optional
	cfg      Config
	log      *logx.Logger

	fitted bool
	muted  bool

	mu     sync.Mutex
	status string
}

// New wires a screen to a board. The screen must be initialized; the
// caller keeps ownership and calls Fini.
func New(screen tcell.Screen, b *board.Breadboard, alarm Muter, cfg Config, log *logx.Logger) *App {
	r := termrender.New(screen)
	r.Background = b.Palette().Hex(theme.Background)
	return &App{
		screen:   screen,
		board:    b,
		renderer: r,
		alarm:    alarm,
		cfg:      cfg,
		log:      log,
		status:   "q quit, f fit, r rotate, l labels, m mute",
	}
}

// Run processes input and redraws until the user quits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	if a.cfg.Trace != nil {
		go a.replay(ctx, a.cfg.Trace)
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	a.Draw(time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !a.Handle(ev) {
				return nil
			}
			a.Draw(time.Now())
		case now := <-ticker.C:
			a.Draw(now)
		}
	}
}

func (a *App) replay(ctx context.Context, tr *trace.Trace) {
	p := trace.NewPlayer()
	if a.cfg.Speed > 0 {
		p.Speed = a.cfg.Speed
	}
	p.Loop = a.cfg.Loop
	p.Log = a.log
	p.OnFrame = func(i int, f trace.Frame) {
		a.setStatus("frame %d/%d at %s", i+1, len(tr.Frames), f.At)
	}
	err := p.Play(ctx, tr, a.board)
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		a.log.Errorf("tui: replay: %v", err)
		a.setStatus("replay failed: %v", err)
	default:
		a.setStatus("replay done")
	}
}

func (a *App) setStatus(format string, args ...any) {
	a.mu.Lock()
	a.status = fmt.Sprintf(format, args...)
	a.mu.Unlock()
}

// Handle applies one input event. It returns false when the user quits.
func (a *App) Handle(ev tcell.Event) bool {
	cam := a.renderer.Camera
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			cam.Pan(4, 0)
		case tcell.KeyRight:
			cam.Pan(-4, 0)
		case tcell.KeyUp:
			cam.Pan(0, 2)
		case tcell.KeyDown:
			cam.Pan(0, -2)
		case tcell.KeyRune:
			return a.handleRune(ev.Rune())
		}
	case *tcell.EventResize:
		a.screen.Sync()
		a.fitted = false
	}
	return true
}

func (a *App) handleRune(r rune) bool {
	cam := a.renderer.Camera
	switch r {
	case 'q':
		return false
	case 'f':
		a.fitted = false
	case 'r':
		cam.Rotate(90)
		a.fitted = false
	case 'x':
		cam.Flip()
	case '+', '=':
		cam.ZoomAt(float64(cam.ScreenWidth)/2, float64(cam.ScreenHeight)/2, 1.25)
	case '-':
		cam.ZoomAt(float64(cam.ScreenWidth)/2, float64(cam.ScreenHeight)/2, 0.8)
	case 'l':
		a.board.ToggleLayer(board.LayerLabel)
	case 'v':
		a.board.ToggleLayer(board.LayerVoltage)
	case 'm':
		a.muted = !a.muted
		if a.alarm != nil {
			if a.muted {
				a.alarm.Stop()
			} else if a.board.ShortCircuit() {
				a.alarm.Start()
			}
		}
	}
	return true
}

// Draw renders the board sampled at now and the status line.
func (a *App) Draw(now time.Time) {
	a.board.View(now, func(root *scene.Group) {
		if !a.fitted {
			a.renderer.Fit(scene.BoundsOf(root))
			a.fitted = true
		}
		a.renderer.Render(root)
	})

	if a.muted && a.alarm != nil && a.alarm.Sounding() {
		a.alarm.Stop()
	}

	a.mu.Lock()
	msg := a.status
	a.mu.Unlock()
	line := fmt.Sprintf(" %s | %d currents | %s", a.board.Options().Layout, len(a.board.Currents()), msg)
	switch {
	case a.board.ShortCircuit():
		line = " SHORT CIRCUIT |" + line
		a.renderer.Status(0, line, "#ffffff", current.Colors[len(current.Colors)-1])
	case a.muted:
		a.renderer.Status(0, " muted |"+line, "", "")
	default:
		a.renderer.Status(0, line, "", "")
	}
	a.screen.Show()
}
