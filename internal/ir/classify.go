package ir

import (
	"fmt"
	"time"
)

// Pair is one pulse followed by the space that trailed it. HasSpace is false
// when the input went quiet before the space was measured.
type Pair struct {
	Pulse    time.Duration
	Space    time.Duration
	HasSpace bool
}

// NewPair returns a pair with both widths known.
func NewPair(pulse, space time.Duration) Pair {
	return Pair{Pulse: pulse, Space: space, HasSpace: true}
}

// PulseOnly returns a pair whose trailing space was never observed.
func PulseOnly(pulse time.Duration) Pair {
	return Pair{Pulse: pulse}
}

// MicrosPair is NewPair with widths in microseconds.
func MicrosPair(pulseUS, spaceUS int64) Pair {
	return NewPair(time.Duration(pulseUS)*time.Microsecond, time.Duration(spaceUS)*time.Microsecond)
}

func (p Pair) String() string {
	if !p.HasSpace {
		return fmt.Sprintf("pulse %d space -", p.Pulse.Microseconds())
	}
	return fmt.Sprintf("pulse %d space %d", p.Pulse.Microseconds(), p.Space.Microseconds())
}

// Kind is the class a Pair falls into.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeader
	KindBit
	KindGap
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindBit:
		return "bit"
	case KindGap:
		return "gap"
	default:
		return "unknown"
	}
}

// Classification is the outcome of classifying one Pair. Bit is only
// meaningful when Kind is KindBit.
type Classification struct {
	Kind Kind
	Bit  uint8
}

var (
	Header  = Classification{Kind: KindHeader}
	Gap     = Classification{Kind: KindGap}
	Unknown = Classification{Kind: KindUnknown}
	Zero    = Classification{Kind: KindBit, Bit: 0}
	One     = Classification{Kind: KindBit, Bit: 1}
)

func (c Classification) String() string {
	if c.Kind == KindBit {
		if c.Bit == 0 {
			return "zero"
		}
		return "one"
	}
	return c.Kind.String()
}

// rule is one entry of the classification table.
type rule struct {
	result Classification
	match  func(Profile, Pair) bool
}

// rules is evaluated top to bottom and the first match wins. A profile that
// passes Validate never matches two rules for the same pair, but the order
// is kept as the documented priority.
var rules = []rule{
	{Gap, func(p Profile, x Pair) bool {
		return p.BitPulse.Contains(x.Pulse) && (!x.HasSpace || x.Space > p.GapSpace)
	}},
	{Header, func(p Profile, x Pair) bool {
		return x.HasSpace && p.HeaderPulse.Contains(x.Pulse) && p.HeaderSpace.Contains(x.Space)
	}},
	{One, func(p Profile, x Pair) bool {
		return x.HasSpace && p.BitPulse.Contains(x.Pulse) && p.OneSpace.Contains(x.Space)
	}},
	{Zero, func(p Profile, x Pair) bool {
		return x.HasSpace && p.BitPulse.Contains(x.Pulse) && p.ZeroSpace.Contains(x.Space)
	}},
}

// Classifier maps pairs onto classifications using a fixed Profile.
type Classifier struct {
	profile Profile
}

// NewClassifier validates the profile and returns a classifier for it.
func NewClassifier(p Profile) (*Classifier, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing profile: %w", err)
	}
	return &Classifier{profile: p}, nil
}

// Profile returns the timing profile in use.
func (c *Classifier) Profile() Profile { return c.profile }

// Classify returns the first matching classification, or Unknown.
func (c *Classifier) Classify(x Pair) Classification {
	for _, r := range rules {
		if r.match(c.profile, x) {
			return r.result
		}
	}
	return Unknown
}
