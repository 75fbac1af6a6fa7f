// Package alarm sounds a buzzer while a board reports a short circuit.
package alarm

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
)

const (
	sampleRate = beep.SampleRate(44100)
	halfCycle  = 250 * time.Millisecond
)

// Config selects the buzzer sound.
type Config struct {
	Low, High float64 // Hz
	Volume    float64 // relative, 0 is unchanged, negative is quieter
}

// DefaultConfig returns a quiet 440/660 Hz siren.
func DefaultConfig() Config {
	return Config{Low: 440, High: 660, Volume: -1}
}

// Validate checks the tones are audible.
func (c Config) Validate() error {
	if c.Low <= 0 || c.High <= 0 {
		return fmt.Errorf("alarm tones must be positive, got %g/%g Hz", c.Low, c.High)
	}
	if c.Low >= float64(sampleRate)/2 || c.High >= float64(sampleRate)/2 {
		return fmt.Errorf("alarm tones must stay below %d Hz", sampleRate/2)
	}
	return nil
}

// Source reports short circuits.
type Source interface {
	OnShortCircuitStart(h board.Handler)
	OnShortCircuitEnd(h board.Handler)
}

// Alarm plays the siren through the speaker between Start and Stop.
type Alarm struct {
	mu     sync.Mutex
	cfg    Config
	log    *logx.Logger
	mixer  *beep.Mixer
	ctrl   *beep.Ctrl
	opened bool

	// Speaker hooks, replaced in tests.
	initSpeaker func(beep.SampleRate, int) error
	play        func(...beep.Streamer)
	lock        func()
	unlock      func()
	close       func()
}

// New returns a closed alarm.
func New(cfg Config, log *logx.Logger) (*Alarm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Alarm{
		cfg:         cfg,
		log:         log,
		mixer:       &beep.Mixer{},
		initSpeaker: speaker.Init,
		play:        speaker.Play,
		lock:        speaker.Lock,
		unlock:      speaker.Unlock,
		close:       speaker.Close,
	}, nil
}

// Open initializes the speaker and starts the silent mixer.
func (a *Alarm) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.opened {
		return nil
	}
	if err := a.initSpeaker(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to open speaker: %w", err)
	}
	siren := &effects.Volume{
		Streamer: NewSiren(sampleRate, a.cfg.Low, a.cfg.High),
		Base:     2,
		Volume:   a.cfg.Volume,
	}
	a.ctrl = &beep.Ctrl{Streamer: siren, Paused: true}
	a.mixer.Add(a.ctrl)
	a.play(a.mixer)
	a.opened = true
	return nil
}

// Start sounds the siren. It does nothing before Open.
func (a *Alarm) Start() {
	a.setPaused(false)
}

// Stop silences the siren.
func (a *Alarm) Stop() {
	a.setPaused(true)
}

func (a *Alarm) setPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.opened {
		return
	}
	a.lock()
	changed := a.ctrl.Paused != paused
	a.ctrl.Paused = paused
	a.unlock()
	if changed {
		if paused {
			a.log.Debugf("alarm off")
		} else {
			a.log.Infof("short circuit: alarm on")
		}
	}
}

// Sounding reports whether the siren is playing.
func (a *Alarm) Sounding() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.opened {
		return false
	}
	a.lock()
	defer a.unlock()
	return !a.ctrl.Paused
}

// Attach starts the siren when src reports a short circuit and stops it
// when the short ends.
func (a *Alarm) Attach(src Source) {
	src.OnShortCircuitStart(a.Start)
	src.OnShortCircuitEnd(a.Stop)
}

// Close silences the alarm and releases the speaker.
func (a *Alarm) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.opened {
		return
	}
	a.lock()
	a.ctrl.Paused = true
	a.mixer.Clear()
	a.unlock()
	a.close()
	a.opened = false
}
