package current

import (
	"fmt"
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// MeaningfulnessThreshold is the smallest weight that is rendered. Anything
// at or below it is treated as no current at all.
const MeaningfulnessThreshold = 1e-8

// BurningThreshold is the raw weight above which a current is a short circuit.
const BurningThreshold = 2.0

// Thread is one reported current between two points. After Overlay the weight
// is never negative; direction is carried by point order.
type Thread struct {
	From   layout.Point
	To     layout.Point
	Weight float64
}

func (t Thread) String() string {
	return fmt.Sprintf("%v->%v:%g", t.From, t.To, t.Weight)
}

// Meaningful reports whether the weight is above MeaningfulnessThreshold.
func (t Thread) Meaningful() bool {
	return t.Weight > MeaningfulnessThreshold
}

// SameEndpoints reports whether two threads connect exactly the same points in
// the same order.
func (t Thread) SameEndpoints(o Thread) bool {
	return t.From == o.From && t.To == o.To
}

// Burning reports whether the thread carries short-circuit current.
func (t Thread) Burning() bool {
	return t.Weight > BurningThreshold
}

type axisKey struct {
	horizontal bool
	fixed      int
}

type axisThread struct {
	lo, hi int
	signed float64
}

type piece struct {
	a, b   int
	weight float64
}

// Overlay merges threads that share an axis-aligned line. Overlapping parts
// are split at every endpoint and summed with their direction sign; a negative
// sum flips the piece. Neighbouring pieces with the same direction and weight
// are joined again. Diagonal and zero-length threads pass through, only
// normalized to a non-negative weight.
func Overlay(threads []Thread) []Thread {
	var (
		order  []axisKey
		groups = make(map[axisKey][]axisThread)
		out    []Thread
	)

	for _, t := range threads {
		key, lo, hi, forward, ok := axisOf(t)
		if !ok {
			out = append(out, normalizeDirection(t))
			continue
		}
		signed := t.Weight
		if !forward {
			signed = -signed
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], axisThread{lo: lo, hi: hi, signed: signed})
	}

	for _, key := range order {
		for _, p := range joinPieces(splitGroup(groups[key])) {
			out = append(out, p.thread(key))
		}
	}
	return out
}

func axisOf(t Thread) (key axisKey, lo, hi int, forward, ok bool) {
	switch {
	case t.From == t.To:
		return key, 0, 0, false, false
	case t.From.Y == t.To.Y:
		key = axisKey{horizontal: true, fixed: t.From.Y}
		lo, hi = t.From.X, t.To.X
	case t.From.X == t.To.X:
		key = axisKey{horizontal: false, fixed: t.From.X}
		lo, hi = t.From.Y, t.To.Y
	default:
		return key, 0, 0, false, false
	}
	forward = lo < hi
	if !forward {
		lo, hi = hi, lo
	}
	return key, lo, hi, forward, true
}

func normalizeDirection(t Thread) Thread {
	if t.Weight < 0 {
		return Thread{From: t.To, To: t.From, Weight: -t.Weight}
	}
	return t
}

func splitGroup(group []axisThread) []piece {
	var stops []int
	seen := make(map[int]bool)
	for _, t := range group {
		for _, v := range [2]int{t.lo, t.hi} {
			if !seen[v] {
				seen[v] = true
				stops = append(stops, v)
			}
		}
	}
	sort.Ints(stops)

	var pieces []piece
	for i := 0; i+1 < len(stops); i++ {
		a, b := stops[i], stops[i+1]
		covered := false
		sum := 0.0
		for _, t := range group {
			if t.lo <= a && t.hi >= b {
				covered = true
				sum += t.signed
			}
		}
		if covered {
			pieces = append(pieces, piece{a: a, b: b, weight: sum})
		}
	}
	return pieces
}

func joinPieces(pieces []piece) []piece {
	var out []piece
	for _, p := range pieces {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.b == p.a && sameWeight(last.weight, p.weight) {
				last.b = p.b
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func sameWeight(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12
}

func (p piece) thread(key axisKey) Thread {
	at := func(v int) layout.Point {
		if key.horizontal {
			return layout.Point{X: v, Y: key.fixed}
		}
		return layout.Point{X: key.fixed, Y: v}
	}
	if p.weight < 0 {
		return Thread{From: at(p.b), To: at(p.a), Weight: -p.weight}
	}
	return Thread{From: at(p.a), To: at(p.b), Weight: p.weight}
}
