// Package ir decodes infrared pulse/space timing pairs into payload bytes.
//
// A Profile describes the timing windows of one protocol. A Classifier maps
// each (pulse, space) pair onto a Classification, and an Accumulator packs
// the resulting bits MSB first into bytes until a gap ends the message.
// Decoder wires the two together and reports progress to Listeners.
package ir

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyWindow indicates a window whose Min is not below its Max.
	ErrEmptyWindow = errors.New("window min must be less than max")
	// ErrNegativeWindow indicates a window with a negative bound.
	ErrNegativeWindow = errors.New("window bounds must not be negative")
	// ErrOverlappingPulseWindows indicates header and bit pulse widths that
	// cannot be told apart.
	ErrOverlappingPulseWindows = errors.New("header-pulse and bit-pulse windows overlap")
	// ErrOverlappingSpaceWindows indicates zero and one spaces that cannot be
	// told apart.
	ErrOverlappingSpaceWindows = errors.New("zero-space and one-space windows overlap")
	// ErrGapThreshold indicates a gap threshold that would swallow data spaces.
	ErrGapThreshold = errors.New("gap space threshold must not be below a data space window")
)

// Window is an open duration interval: d matches when Min < d < Max.
type Window struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
}

// MicrosWindow builds a Window from bounds in microseconds.
func MicrosWindow(min, max int64) Window {
	return Window{Min: time.Duration(min) * time.Microsecond, Max: time.Duration(max) * time.Microsecond}
}

// Contains reports whether d lies strictly inside the window.
func (w Window) Contains(d time.Duration) bool {
	return d > w.Min && d < w.Max
}

// Overlaps reports whether some duration would match both windows.
func (w Window) Overlaps(o Window) bool {
	// Open intervals; sharing an endpoint is not an overlap.
	return w.Min < o.Max && o.Min < w.Max
}

func (w Window) String() string {
	return fmt.Sprintf("(%dus, %dus)", w.Min.Microseconds(), w.Max.Microseconds())
}

func (w Window) validate(name string) error {
	if w.Min < 0 || w.Max < 0 {
		return fmt.Errorf("%s %s: %w", name, w, ErrNegativeWindow)
	}
	if w.Min >= w.Max {
		return fmt.Errorf("%s %s: %w", name, w, ErrEmptyWindow)
	}
	return nil
}

// Profile is the set of timing windows for one IR protocol.
type Profile struct {
	HeaderPulse Window `json:"header_pulse"`
	HeaderSpace Window `json:"header_space"`
	// BitPulse is shared by zero, one and trailing gap pulses.
	BitPulse  Window `json:"bit_pulse"`
	ZeroSpace Window `json:"zero_space"`
	OneSpace  Window `json:"one_space"`
	// GapSpace is the trailing space beyond which a bit pulse ends the
	// transmission.
	GapSpace time.Duration `json:"gap_space"`
}

// Default timing values in microseconds.
const (
	DefaultHeaderPulseMinUS = 4400
	DefaultHeaderPulseMaxUS = 4800
	DefaultHeaderSpaceMinUS = DefaultHeaderPulseMinUS
	DefaultHeaderSpaceMaxUS = DefaultHeaderPulseMaxUS
	DefaultBitPulseMinUS    = 400
	DefaultBitPulseMaxUS    = 750
	DefaultZeroSpaceMinUS   = 350
	DefaultZeroSpaceMaxUS   = 750
	DefaultOneSpaceMinUS    = 1500
	DefaultOneSpaceMaxUS    = 1820
	DefaultGapSpaceUS       = 10000
)

// DefaultProfile returns the built-in timing profile: a 4.4-4.8ms header
// followed by pulse-distance coded bits.
func DefaultProfile() Profile {
	return Profile{
		HeaderPulse: MicrosWindow(DefaultHeaderPulseMinUS, DefaultHeaderPulseMaxUS),
		HeaderSpace: MicrosWindow(DefaultHeaderSpaceMinUS, DefaultHeaderSpaceMaxUS),
		BitPulse:    MicrosWindow(DefaultBitPulseMinUS, DefaultBitPulseMaxUS),
		ZeroSpace:   MicrosWindow(DefaultZeroSpaceMinUS, DefaultZeroSpaceMaxUS),
		OneSpace:    MicrosWindow(DefaultOneSpaceMinUS, DefaultOneSpaceMaxUS),
		GapSpace:    DefaultGapSpaceUS * time.Microsecond,
	}
}

// Validate checks that every window is non-empty and that no pair of widths
// could satisfy two classification rules at once.
func (p Profile) Validate() error {
	windows := []struct {
		name string
		w    Window
	}{
		{"header-pulse", p.HeaderPulse},
		{"header-space", p.HeaderSpace},
		{"bit-pulse", p.BitPulse},
		{"zero-space", p.ZeroSpace},
		{"one-space", p.OneSpace},
	}
	for _, nw := range windows {
		if err := nw.w.validate(nw.name); err != nil {
			return err
		}
	}

	if p.HeaderPulse.Overlaps(p.BitPulse) {
		return fmt.Errorf("%s vs %s: %w", p.HeaderPulse, p.BitPulse, ErrOverlappingPulseWindows)
	}
	if p.ZeroSpace.Overlaps(p.OneSpace) {
		return fmt.Errorf("%s vs %s: %w", p.ZeroSpace, p.OneSpace, ErrOverlappingSpaceWindows)
	}
	// A gap space must be longer than anything a data bit can carry.
	if p.GapSpace < p.OneSpace.Max || p.GapSpace < p.ZeroSpace.Max {
		return fmt.Errorf("gap space %dus: %w", p.GapSpace.Microseconds(), ErrGapThreshold)
	}
	return nil
}
