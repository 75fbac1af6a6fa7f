package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

var epoch = time.Unix(0, 0)

type fakeAlarm struct{ on bool }

func (f *fakeAlarm) Start()         { f.on = true }
func (f *fakeAlarm) Stop()          { f.on = false }
func (f *fakeAlarm) Sounding() bool { return f.on }

func newApp(t *testing.T) (*App, tcell.SimulationScreen, *board.Breadboard, *fakeAlarm) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	opts := board.DefaultOptions()
	opts.Logger = logx.Discard()
	opts.Clock = current.NewManualClock(epoch)
	b, err := board.New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	al := &fakeAlarm{}
	b.OnShortCircuitStart(al.Start)
	b.OnShortCircuitEnd(al.Stop)
	return New(screen, b, al, Config{}, logx.Discard()), screen, b, al
}

func statusLine(s tcell.Screen) string {
	w, h := s.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, h-1)
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestHandleQuit(t *testing.T) {
	app, _, _, _ := newApp(t)
	tests := []struct {
		name string
		ev   tcell.Event
		want bool
	}{
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), false},
		{"fit", tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModNone), true},
		{"pan", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), true},
		{"resize", tcell.NewEventResize(100, 30), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := app.Handle(tt.ev); got != tt.want {
				t.Errorf("Handle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusShowsShortCircuit(t *testing.T) {
	app, screen, b, al := newApp(t)
	app.Draw(epoch)
	if strings.Contains(statusLine(screen), "SHORT CIRCUIT") {
		t.Fatal("idle board reports a short circuit")
	}

	burn := []current.Thread{{From: layout.Point{X: 1, Y: 0}, To: layout.Point{X: 9, Y: 0}, Weight: 3}}
	if err := b.SetCurrents(burn, nil); err != nil {
		t.Fatal(err)
	}
	app.Draw(epoch.Add(time.Second))
	line := statusLine(screen)
	if !strings.Contains(line, "SHORT CIRCUIT") || !strings.Contains(line, "1 currents") {
		t.Errorf("status = %q", line)
	}
	if !al.Sounding() {
		t.Error("alarm silent during a short circuit")
	}
}

func TestMute(t *testing.T) {
	app, _, b, al := newApp(t)
	burn := []current.Thread{{From: layout.Point{X: 1, Y: 0}, To: layout.Point{X: 9, Y: 0}, Weight: 3}}
	if err := b.SetCurrents(burn, nil); err != nil {
		t.Fatal(err)
	}
	app.Handle(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone))
	if al.Sounding() {
		t.Error("alarm sounding after mute")
	}
	app.Handle(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone))
	if !al.Sounding() {
		t.Error("unmute during a short circuit left the alarm off")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	app, _, _, _ := newApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the context ended")
	}
}
