// Package trace reads recorded simulation reports and replays them into a
// board.
package trace

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// Frame is one complete simulation report.
type Frame struct {
	At       time.Duration
	Threads  []current.Thread
	Voltages map[int]float64    // nil when the frame reports none
	Pins     map[string]float64 // nil when the frame reports none
}

// Trace is a decoded trace file.
type Trace struct {
	Layout string // empty when the file names none
	Frames []Frame
}

// Duration returns the time stamp of the last frame.
func (t *Trace) Duration() time.Duration {
	if len(t.Frames) == 0 {
		return 0
	}
	return t.Frames[len(t.Frames)-1].At
}

// Decode checks a parsed file and converts it into frames. Frame times must
// not go backwards, and a frame may report each line and pin once.
func Decode(f *File) (*Trace, error) {
	tr := &Trace{Layout: f.Layout}
	var last float64
	for i, fd := range f.Frames {
		if fd.Time < 0 || math.IsNaN(fd.Time) || math.IsInf(fd.Time, 0) {
			return nil, fmt.Errorf("trace: %s: invalid frame time %g", fd.Pos, fd.Time)
		}
		if i > 0 && fd.Time < last {
			return nil, fmt.Errorf("trace: %s: frame at %gs goes back from %gs", fd.Pos, fd.Time, last)
		}
		last = fd.Time

		fr := Frame{At: time.Duration(fd.Time * float64(time.Second))}
		for _, e := range fd.Entries {
			switch {
			case e.Current != nil:
				c := e.Current
				fr.Threads = append(fr.Threads, current.Thread{
					From:   layout.Point{X: c.From.X, Y: c.From.Y},
					To:     layout.Point{X: c.To.X, Y: c.To.Y},
					Weight: c.Weight,
				})
			case e.Voltage != nil:
				if fr.Voltages == nil {
					fr.Voltages = make(map[int]float64)
				}
				if _, dup := fr.Voltages[e.Voltage.Line]; dup {
					return nil, fmt.Errorf("trace: %s: line %d reported twice", e.Pos, e.Voltage.Line)
				}
				fr.Voltages[e.Voltage.Line] = e.Voltage.Value
			case e.Pin != nil:
				if fr.Pins == nil {
					fr.Pins = make(map[string]float64)
				}
				if _, dup := fr.Pins[e.Pin.Name]; dup {
					return nil, fmt.Errorf("trace: %s: pin %s reported twice", e.Pos, e.Pin.Name)
				}
				fr.Pins[e.Pin.Name] = e.Pin.Value
			}
		}
		tr.Frames = append(tr.Frames, fr)
	}
	return tr, nil
}

// Read parses and decodes a trace.
func Read(name string, r io.Reader) (*Trace, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.Parse(name, r)
	if err != nil {
		return nil, err
	}
	return Decode(f)
}

// ReadFile parses and decodes a trace file.
func ReadFile(filename string) (*Trace, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return Decode(f)
}
