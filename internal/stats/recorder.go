// Package stats collects the measured pulse and space widths of classified
// pairs so timing profiles can be calibrated against a real remote.
package stats

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/irdecode/internal/ir"
)

// Part selects the pulse or the space half of a pair.
type Part string

const (
	PartPulse Part = "pulse"
	PartSpace Part = "space"
)

// Kinds lists the sample groups in display order.
var Kinds = []string{"header", "zero", "one", "gap", "unknown"}

// Parts lists both halves of a pair.
var Parts = []Part{PartPulse, PartSpace}

// Stat summarises one kind and part. Widths are in microseconds.
type Stat struct {
	Kind   string  `json:"kind"`
	Part   Part    `json:"part"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_us"`
	StdDev float64 `json:"stddev_us"`
	Min    float64 `json:"min_us"`
	Max    float64 `json:"max_us"`
	P5     float64 `json:"p5_us"`
	P50    float64 `json:"p50_us"`
	P95    float64 `json:"p95_us"`
}

func (s Stat) String() string {
	return fmt.Sprintf("%-7s %-5s n=%-6d mean=%8.1f sd=%7.1f min=%7.0f p5=%7.0f p50=%7.0f p95=%7.0f max=%7.0f",
		s.Kind, s.Part, s.Count, s.Mean, s.StdDev, s.Min, s.P5, s.P50, s.P95, s.Max)
}

type key struct {
	kind string
	part Part
}

// Recorder is an ir.Listener that keeps every pulse and space width it sees,
// grouped by classification. It is safe for concurrent readers.
type Recorder struct {
	mu      sync.Mutex
	samples map[key][]float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{samples: make(map[key][]float64)}
}

func (r *Recorder) HandleEvent(e ir.Event) {
	var kind string
	switch e.Type {
	case ir.EventHeader:
		kind = "header"
	case ir.EventBit:
		kind = "zero"
		if e.Bit == 1 {
			kind = "one"
		}
	case ir.EventGap:
		kind = "gap"
	case ir.EventUnknown:
		kind = "unknown"
	default:
		return
	}
	r.Add(kind, e.Pair)
}

// Add records p under kind. A pair without a space adds only a pulse sample.
func (r *Recorder) Add(kind string, p ir.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pk := key{kind, PartPulse}
	r.samples[pk] = append(r.samples[pk], micros(p.Pulse.Nanoseconds()))
	if p.HasSpace {
		sk := key{kind, PartSpace}
		r.samples[sk] = append(r.samples[sk], micros(p.Space.Nanoseconds()))
	}
}

// Samples returns a copy of the raw widths recorded for kind and part.
func (r *Recorder) Samples(kind string, part Part) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.samples[key{kind, part}]...)
}

// Len returns the total number of samples held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.samples {
		n += len(s)
	}
	return n
}

// Reset discards all samples.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = make(map[key][]float64)
}

// Summary returns one Stat per kind and part that has samples, in Kinds
// order with pulse before space.
func (r *Recorder) Summary() []Stat {
	var out []Stat
	for _, kind := range Kinds {
		for _, part := range Parts {
			x := r.Samples(kind, part)
			if len(x) == 0 {
				continue
			}
			out = append(out, Summarize(kind, part, x))
		}
	}
	return out
}

// Summarize computes a Stat over x, which it sorts in place.
func Summarize(kind string, part Part, x []float64) Stat {
	s := Stat{Kind: kind, Part: part, Count: len(x)}
	if len(x) == 0 {
		return s
	}
	sort.Float64s(x)
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		s.StdDev = 0
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	s.P5 = stat.Quantile(0.05, stat.Empirical, x, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, x, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, x, nil)
	return s
}

func micros(ns int64) float64 { return float64(ns) / 1e3 }
