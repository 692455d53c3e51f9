// Package testutil holds helpers shared by package tests: a log capture for
// the monitoring logger and a builder for pulse/space capture text.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/irdecode/internal/monitoring"
)

// LogCapture collects lines written through monitoring.Logf.
type LogCapture struct {
	mu    sync.Mutex
	lines []string
}

// CaptureLogs redirects monitoring.Logf for the duration of the test.
func CaptureLogs(t testing.TB) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lines = append(c.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return c
}

// Lines returns a copy of the captured lines.
func (c *LogCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Contains reports whether any captured line contains substr.
func (c *LogCapture) Contains(substr string) bool {
	for _, l := range c.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Timing holds the widths, in microseconds, a Capture writes.
type Timing struct {
	HeaderPulse int64
	HeaderSpace int64
	BitPulse    int64
	ZeroSpace   int64
	OneSpace    int64
	GapSpace    int64
}

// NECTiming is typical of a Samsung-style remote read through a USB
// receiver, inside the default profile windows.
var NECTiming = Timing{
	HeaderPulse: 4520,
	HeaderSpace: 4480,
	BitPulse:    580,
	ZeroSpace:   540,
	OneSpace:    1660,
	GapSpace:    47000,
}

// Capture builds receiver output line by line.
type Capture struct {
	T Timing
	b strings.Builder
}

// NewCapture returns an empty capture using NECTiming.
func NewCapture() *Capture {
	return &Capture{T: NECTiming}
}

// Line appends a raw line.
func (c *Capture) Line(s string) *Capture {
	c.b.WriteString(s)
	c.b.WriteByte('\n')
	return c
}

func (c *Capture) Pulse(us int64) *Capture { return c.Line(fmt.Sprintf("pulse %d", us)) }
func (c *Capture) Space(us int64) *Capture { return c.Line(fmt.Sprintf("space %d", us)) }

// Header appends a header pair.
func (c *Capture) Header() *Capture {
	return c.Pulse(c.T.HeaderPulse).Space(c.T.HeaderSpace)
}

// Bits appends the low n bits of v, most significant first.
func (c *Capture) Bits(v byte, n int) *Capture {
	for i := n - 1; i >= 0; i-- {
		c.Pulse(c.T.BitPulse)
		if (v>>i)&1 == 1 {
			c.Space(c.T.OneSpace)
		} else {
			c.Space(c.T.ZeroSpace)
		}
	}
	return c
}

// Gap appends a trailing pulse and a gap space.
func (c *Capture) Gap() *Capture {
	return c.Pulse(c.T.BitPulse).Space(c.T.GapSpace)
}

// Message appends a full transmission: header, payload bytes and gap.
func (c *Capture) Message(payload ...byte) *Capture {
	c.Header()
	for _, by := range payload {
		c.Bits(by, 8)
	}
	return c.Gap()
}

func (c *Capture) String() string { return c.b.String() }
