package ir

import (
	"time"

	"github.com/banshee-data/irdecode/internal/timeutil"
)

// Decoder feeds classified pairs into an Accumulator and fans the resulting
// events out to its listeners. It is driven from a single goroutine.
type Decoder struct {
	classifier *Classifier
	acc        *Accumulator
	clock      timeutil.Clock
	listeners  []Listener

	lastMessage time.Time
	counts      Counts
}

// Counts tallies what a Decoder has seen.
type Counts struct {
	Pairs     int `json:"pairs"`
	Headers   int `json:"headers"`
	Bits      int `json:"bits"`
	Unknown   int `json:"unknown"`
	Gaps      int `json:"gaps"`
	Messages  int `json:"messages"`
	Bytes     int `json:"bytes"`
	Discarded int `json:"discarded_bits"`
}

// NewDecoder returns a decoder using c. A nil clock means the real clock.
func NewDecoder(c *Classifier, clock timeutil.Clock, listeners ...Listener) *Decoder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	d := &Decoder{
		classifier: c,
		clock:      clock,
		listeners:  listeners,
	}
	d.acc = NewAccumulator(d.fromAccumulator)
	return d
}

// AddListener registers l for all later events.
func (d *Decoder) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Profile returns the timing profile used for classification.
func (d *Decoder) Profile() Profile { return d.classifier.Profile() }

// Counts returns the running tallies.
func (d *Decoder) Counts() Counts { return d.counts }

// PendingBits returns the bits of the unfinished byte.
func (d *Decoder) PendingBits() int { return d.acc.BitCount() }

// PendingBytes returns the complete bytes not yet flushed by a gap.
func (d *Decoder) PendingBytes() int { return d.acc.Len() }

// Feed classifies one pair and applies it to the accumulator.
func (d *Decoder) Feed(p Pair) Classification {
	c := d.classifier.Classify(p)
	d.counts.Pairs++

	switch c.Kind {
	case KindGap:
		d.counts.Gaps++
		d.publish(Event{Type: EventGap, Pair: p})
		d.acc.Gap()
	case KindHeader:
		d.counts.Headers++
		d.publish(Event{Type: EventHeader, Pair: p})
	case KindBit:
		d.counts.Bits++
		d.publish(Event{Type: EventBit, Pair: p, Bit: c.Bit})
		d.acc.Bit(c.Bit)
	default:
		d.counts.Unknown++
		d.publish(Event{Type: EventUnknown, Pair: p})
	}
	return c
}

// fromAccumulator stamps and forwards accumulator events.
func (d *Decoder) fromAccumulator(e Event) {
	switch e.Type {
	case EventByte:
		d.counts.Bytes++
	case EventDiscard:
		d.counts.Discarded += e.Discarded
	case EventMessage:
		d.counts.Messages++
		now := d.clock.Now()
		if !d.lastMessage.IsZero() {
			e.SincePrevious = now.Sub(d.lastMessage)
		}
		d.lastMessage = now
		e.Time = now
	}
	d.publish(e)
}

func (d *Decoder) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = d.clock.Now()
	}
	for _, l := range d.listeners {
		l.HandleEvent(e)
	}
}
