// Package feeder turns line-oriented pulse/space capture output into
// timing pairs. It owns the read timeout that lets a trailing pulse with no
// measured space end a transmission.
package feeder

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/irdecode/internal/ir"
	"github.com/banshee-data/irdecode/internal/monitoring"
	"github.com/banshee-data/irdecode/internal/timeutil"
)

// DefaultPollInterval is how long the feeder waits for a line before it
// treats a pending pulse as the end of a transmission.
const DefaultPollInterval = 100 * time.Millisecond

// Sink consumes timing pairs. *ir.Decoder satisfies it.
type Sink interface {
	Feed(ir.Pair) ir.Classification
}

// Options configures a Feeder. Zero values select the defaults.
type Options struct {
	PollInterval time.Duration
	Clock        timeutil.Clock
	Logger       *monitoring.Logger
	// FlushOnEOF delivers a pending pulse as a timeout pair when the input
	// ends. By default it is dropped along with any partial message.
	FlushOnEOF bool
}

// Stats counts what the feeder has read. It is only safe to inspect once
// Run has returned.
type Stats struct {
	Lines     int `json:"lines"`
	Pairs     int `json:"pairs"`
	Malformed int `json:"malformed"`
	Timeouts  int `json:"timeouts"`
	IdleGaps  int `json:"idle_gaps"`
	Replaced  int `json:"replaced_pulses"`
}

// Feeder reads capture lines and hands complete pairs to a Sink.
type Feeder struct {
	r    io.Reader
	opts Options
	log  *monitoring.Logger

	pending    time.Duration
	hasPending bool
	stats      Stats
}

// New returns a Feeder reading from r.
func New(r io.Reader, opts Options) *Feeder {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Feeder{r: r, opts: opts, log: opts.Logger}
}

// Stats returns the running counters.
func (f *Feeder) Stats() Stats { return f.stats }

// Run reads until the input ends, a read fails or ctx is cancelled. It
// returns nil on end of input, the read error, or ctx.Err(). A read blocked
// in the underlying reader only returns once the caller closes it.
func (f *Feeder) Run(ctx context.Context, sink Sink) error {
	scan := bufio.NewScanner(f.r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs on its own goroutine so the loop below can
	// wait on lines, the poll timer and cancellation together.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	timer := f.opts.Clock.NewTimer(f.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
				}
				if f.opts.FlushOnEOF {
					f.flushPending(sink)
				}
				return nil
			}
			f.handleLine(line, sink)
			timeutil.Rearm(timer, f.opts.PollInterval)

		case <-timer.C():
			f.stats.Timeouts++
			f.flushPending(sink)
			timer.Reset(f.opts.PollInterval)
		}
	}
}

func (f *Feeder) handleLine(raw string, sink Sink) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	f.stats.Lines++

	l, err := ParseLine(line)
	switch {
	case errors.Is(err, ErrUnknownToken):
		f.stats.Malformed++
		f.log.Errorf("Cannot parse %s (%s)", line, l.Token)
		return
	case err != nil:
		f.stats.Malformed++
		f.log.Warnf("Cannot parse %s", line)
		return
	}

	switch l.Kind {
	case LinePulse:
		if f.hasPending {
			f.stats.Replaced++
			f.log.Debugf("pulse %d replaces pending pulse %d", l.Width.Microseconds(), f.pending.Microseconds())
		}
		f.pending = l.Width
		f.hasPending = true

	case LineSpace:
		if !f.hasPending {
			// A space with nothing before it is the idle time between
			// transmissions.
			f.stats.IdleGaps++
			f.log.Infof("gap %d us", l.Width.Microseconds())
			return
		}
		f.deliver(sink, ir.NewPair(f.pending, l.Width))
	}
}

// flushPending hands a pending pulse to sink without a space, exactly once.
func (f *Feeder) flushPending(sink Sink) {
	if !f.hasPending {
		return
	}
	f.deliver(sink, ir.PulseOnly(f.pending))
}

func (f *Feeder) deliver(sink Sink, p ir.Pair) {
	f.pending = 0
	f.hasPending = false
	f.stats.Pairs++
	sink.Feed(p)
}
