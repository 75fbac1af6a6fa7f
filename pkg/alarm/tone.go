package alarm

import (
	"math"

	"github.com/gopxl/beep"
)

// Siren is an endless two-tone buzz. The pitch alternates between Low and
// High every Period samples and each tone fades in to avoid clicks.
type Siren struct {
	Low, High float64 // Hz
	Period    int     // samples per tone

	rate     beep.SampleRate
	phase    float64
	position int
}

// NewSiren returns a siren switching tones twice per second.
func NewSiren(rate beep.SampleRate, low, high float64) *Siren {
	return &Siren{Low: low, High: high, Period: rate.N(halfCycle), rate: rate}
}

// harmonics gives the buzz its edge.
var harmonics = []struct{ mult, amp float64 }{
	{1, 0.6},
	{2, 0.25},
	{3, 0.15},
}

func (s *Siren) Stream(samples [][2]float64) (n int, ok bool) {
	period := max(s.Period, 1)
	fade := max(period/20, 1)
	for i := range samples {
		slot := s.position / period
		freq := s.Low
		if slot%2 == 1 {
			freq = s.High
		}
		var val float64
		for _, h := range harmonics {
			val += h.amp * math.Sin(2*math.Pi*s.phase*h.mult)
		}
		if in := s.position % period; in < fade {
			val *= float64(in) / float64(fade)
		}
		samples[i][0] = val
		samples[i][1] = val

		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position = (s.position + 1) % (2 * period)
	}
	return len(samples), true
}

func (s *Siren) Err() error { return nil }

var _ beep.Streamer = (*Siren)(nil)
