package ir

import "github.com/banshee-data/irdecode/internal/monitoring"

// LogListener writes human readable diagnostics for decoder events.
// Classification lines go to classifier, byte assembly and message lines to
// accumulator. Either logger may be nil to silence it.
type LogListener struct {
	classifier  *monitoring.Logger
	accumulator *monitoring.Logger
}

// NewLogListener returns a LogListener writing to the given loggers.
func NewLogListener(classifier, accumulator *monitoring.Logger) *LogListener {
	return &LogListener{classifier: classifier, accumulator: accumulator}
}

func (l *LogListener) HandleEvent(e Event) {
	switch e.Type {
	case EventGap:
		if l.classifier.Enabled(monitoring.LevelInfo) {
			if e.Pair.HasSpace {
				l.classifier.Infof("gap %d us", e.Pair.Space.Microseconds())
			} else {
				l.classifier.Infof("gap (no trailing space)")
			}
		}
	case EventHeader:
		if l.classifier.Enabled(monitoring.LevelDebug) {
			l.classifier.Debugf("header")
		}
	case EventBit:
		if l.classifier.Enabled(monitoring.LevelDebug) {
			l.classifier.Debugf("%s", Classification{Kind: KindBit, Bit: e.Bit})
		}
	case EventUnknown:
		if l.classifier.Enabled(monitoring.LevelWarn) {
			if e.Pair.HasSpace {
				l.classifier.Warnf("Unknown %d %d", e.Pair.Pulse.Microseconds(), e.Pair.Space.Microseconds())
			} else {
				l.classifier.Warnf("Unknown %d -", e.Pair.Pulse.Microseconds())
			}
		}
	case EventByte:
		if l.accumulator.Enabled(monitoring.LevelDebug) {
			l.accumulator.Debugf("Byte: %02x", e.Byte)
		}
	case EventDiscard:
		if l.accumulator.Enabled(monitoring.LevelWarn) {
			l.accumulator.Warnf("Discarding %d bits", e.Discarded)
		}
	case EventMessage:
		if l.accumulator.Enabled(monitoring.LevelInfo) {
			if e.SincePrevious > 0 {
				l.accumulator.Infof("Read: %s (%d bytes, %s since previous)", e.Message, len(e.Message), e.SincePrevious)
			} else {
				l.accumulator.Infof("Read: %s (%d bytes)", e.Message, len(e.Message))
			}
		}
	}
}
