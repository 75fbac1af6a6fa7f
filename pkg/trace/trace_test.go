package trace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

const sample = `
# blinking LED on the basic board
layout "basic"

frame 0 {
	current (-1,0) -> (0,0) : 0.8;   // from Vcc
	current (0,1) -> (0,4) : 0.5;
	voltage 0 : 5.0;
	voltage 2 : 3.3;
}
frame 0.25 { }
frame 1.5e0 {
	current (0,1) -> (0,4) : 2.5;
	pin "A0" : 1.2;
}
`

func TestParseSample(t *testing.T) {
	tr, err := Read("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Layout != "basic" || len(tr.Frames) != 3 {
		t.Fatalf("trace = %q with %d frames", tr.Layout, len(tr.Frames))
	}
	f0 := tr.Frames[0]
	want := current.Thread{From: layout.Point{X: -1, Y: 0}, To: layout.Point{X: 0, Y: 0}, Weight: 0.8}
	if len(f0.Threads) != 2 || f0.Threads[0] != want {
		t.Errorf("frame 0 threads = %v", f0.Threads)
	}
	if f0.Voltages[2] != 3.3 || f0.Pins != nil {
		t.Errorf("frame 0 voltages = %v, pins = %v", f0.Voltages, f0.Pins)
	}
	if f := tr.Frames[1]; f.At != 250*time.Millisecond || f.Threads != nil || f.Voltages != nil {
		t.Errorf("empty frame = %+v", f)
	}
	if f := tr.Frames[2]; f.Pins["A0"] != 1.2 || f.Voltages != nil {
		t.Errorf("frame 2 = %+v", f)
	}
	if tr.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %s", tr.Duration())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"out of order", "frame 1 { } frame 0.5 { }", "goes back"},
		{"negative time", "frame -1 { }", "invalid frame time"},
		{"duplicate line", "frame 0 { voltage 1 : 1; voltage 1 : 2; }", "reported twice"},
		{"duplicate pin", `frame 0 { pin "A1" : 1; pin "A1" : 2; }`, "reported twice"},
		{"fractional point", "frame 0 { current (0.5,0) -> (1,0) : 1; }", "parse error"},
		{"missing semicolon", "frame 0 { voltage 1 : 1 }", "parse error"},
		{"unknown statement", "frame 0 { resistor 1 : 1; }", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.name, strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Read() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "led.trace")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Frames) != 3 {
		t.Errorf("frames = %d, want 3", len(tr.Frames))
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadFile() of a missing file succeeded")
	}
}

type recorder struct {
	calls []string
	fail  bool
}

func (r *recorder) SetCurrents(threads []current.Thread, voltages map[int]float64) error {
	r.calls = append(r.calls, fmt.Sprintf("currents %d volts %d", len(threads), len(voltages)))
	if r.fail {
		return errors.New("rejected")
	}
	return nil
}

func (r *recorder) SetPinsValues(values map[string]float64) {
	r.calls = append(r.calls, fmt.Sprintf("pins %d", len(values)))
}

func TestPlayerOrderAndTiming(t *testing.T) {
	tr, err := Read("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	var waits []time.Duration
	p := NewPlayer()
	p.Speed = 2
	p.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	var frames []int
	p.OnFrame = func(i int, _ Frame) { frames = append(frames, i) }

	rec := &recorder{}
	if err := p.Play(context.Background(), tr, rec); err != nil {
		t.Fatal(err)
	}
	wantCalls := []string{"currents 2 volts 2", "currents 0 volts 0", "currents 1 volts 0", "pins 1"}
	if fmt.Sprint(rec.calls) != fmt.Sprint(wantCalls) {
		t.Errorf("calls = %v, want %v", rec.calls, wantCalls)
	}
	wantWaits := []time.Duration{0, 125 * time.Millisecond, 625 * time.Millisecond}
	if fmt.Sprint(waits) != fmt.Sprint(wantWaits) {
		t.Errorf("waits = %v, want %v", waits, wantWaits)
	}
	if fmt.Sprint(frames) != "[0 1 2]" {
		t.Errorf("OnFrame saw %v", frames)
	}
}

func TestPlayerKeepsGoingOnSinkErrors(t *testing.T) {
	tr, _ := Read("sample", strings.NewReader(sample))
	p := NewPlayer()
	p.Log = logx.Discard()
	p.wait = func(context.Context, time.Duration) error { return nil }
	rec := &recorder{fail: true}
	if err := p.Play(context.Background(), tr, rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 4 {
		t.Errorf("sink saw %d calls, want 4", len(rec.calls))
	}
}

func TestPlayerLoopCancel(t *testing.T) {
	tr, _ := Read("sample", strings.NewReader(sample))
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPlayer()
	p.Loop = true
	p.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	delivered := 0
	p.OnFrame = func(int, Frame) {
		delivered++
		if delivered == 7 {
			cancel()
		}
	}
	if err := p.Play(ctx, tr, &recorder{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Play() error = %v, want context.Canceled", err)
	}
	if delivered != 7 {
		t.Errorf("delivered %d frames, want 7", delivered)
	}
}

func TestPlayerRealTimeCancel(t *testing.T) {
	tr := &Trace{Frames: []Frame{{At: 0}, {At: time.Hour}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rec := &recorder{}
	if err := NewPlayer().Play(ctx, tr, rec); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Play() error = %v", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("delivered %d frames before the deadline, want 1", len(rec.calls))
	}
}

func TestReplayIntoBoard(t *testing.T) {
	tr, err := Read("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	opts := board.DefaultOptions()
	opts.Layout = tr.Layout
	opts.Logger = logx.Discard()
	b, err := board.New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	starts := 0
	b.OnShortCircuitStart(func() { starts++ })

	p := NewPlayer()
	p.wait = func(context.Context, time.Duration) error { return nil }
	if err := p.Play(context.Background(), tr, b); err != nil {
		t.Fatal(err)
	}
	cs := b.Currents()
	if len(cs) != 1 || !cs[0].Burning() {
		t.Fatalf("currents after replay = %v", cs)
	}
	if starts != 1 {
		t.Errorf("short circuit started %d times, want 1", starts)
	}
}

type counter struct{ n int }

func (c *counter) SetCurrents([]current.Thread, map[int]float64) error { c.n++; return nil }
func (c *counter) SetPinsValues(map[string]float64)                    {}

func TestPlayerLoopZeroDuration(t *testing.T) {
	tests := []struct {
		name string
		tr   *Trace
	}{
		{"single frame", &Trace{Frames: []Frame{{At: 0}}}},
		{"all at zero", &Trace{Frames: []Frame{{At: 0}, {At: 0}, {At: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
			defer cancel()
			p := NewPlayer()
			p.Loop = true
			c := &counter{}
			if err := p.Play(ctx, tt.tr, c); !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("Play() error = %v", err)
			}
			// One pass per minLoopPeriod, plus the pass started at zero.
			max := len(tt.tr.Frames) * (int(250*time.Millisecond/minLoopPeriod) + 1)
			if c.n == 0 || c.n > max {
				t.Errorf("delivered %d frames in 250ms, want 1..%d", c.n, max)
			}
		})
	}
}
