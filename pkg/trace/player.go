package trace

import (
	"context"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
)

// Sink receives replayed reports. *board.Breadboard implements it.
type Sink interface {
	SetCurrents(threads []current.Thread, voltages map[int]float64) error
	SetPinsValues(values map[string]float64)
}

// minLoopPeriod is the shortest time one pass of a looping replay takes.
const minLoopPeriod = 100 * time.Millisecond

// Player feeds the frames of a trace into a sink at their recorded times.
type Player struct {
	Speed   float64 // playback rate, 1 is real time
	Loop    bool
	Log     *logx.Logger
	OnFrame func(i int, f Frame) // called after a frame is delivered

	wait func(ctx context.Context, d time.Duration) error
}

// NewPlayer returns a real-time player.
func NewPlayer() *Player {
	return &Player{Speed: 1, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play delivers every frame in order and returns when the trace ends or ctx
// is cancelled. Reports the sink rejects are logged and playback goes on.
func (p *Player) Play(ctx context.Context, tr *Trace, sink Sink) error {
	speed := p.Speed
	if speed <= 0 {
		speed = 1
	}
	wait := p.wait
	if wait == nil {
		wait = sleep
	}
	for {
		var prev time.Duration
		for i, f := range tr.Frames {
			if err := wait(ctx, time.Duration(float64(f.At-prev)/speed)); err != nil {
				return err
			}
			prev = f.At
			if err := sink.SetCurrents(f.Threads, f.Voltages); err != nil {
				p.Log.Warnf("trace: frame %d at %s: %v", i, f.At, err)
			}
			if f.Pins != nil {
				sink.SetPinsValues(f.Pins)
			}
			if p.OnFrame != nil {
				p.OnFrame(i, f)
			}
		}
		if !p.Loop || len(tr.Frames) == 0 {
			return nil
		}
		p.Log.Debugf("trace: loop after %s", tr.Duration())
		if pass := time.Duration(float64(tr.Duration()) / speed); pass < minLoopPeriod {
			if err := wait(ctx, minLoopPeriod-pass); err != nil {
				return err
			}
		}
	}
}
