package ir

import "time"

// EventType identifies what a decoder Event reports.
type EventType int

const (
	// EventHeader is emitted for a header pair. It never touches the
	// accumulator.
	EventHeader EventType = iota
	// EventBit is emitted for each decoded zero or one.
	EventBit
	// EventByte is emitted when eight bits complete a byte.
	EventByte
	// EventUnknown is emitted for a pair matching no timing window.
	EventUnknown
	// EventGap is emitted for the pair that ended a transmission.
	EventGap
	// EventDiscard is emitted when a gap drops the bits of a partial byte.
	EventDiscard
	// EventMessage carries the message completed by a gap, possibly empty.
	EventMessage
)

var eventTypeNames = map[EventType]string{
	EventHeader:  "header",
	EventBit:     "bit",
	EventByte:    "byte",
	EventUnknown: "unknown",
	EventGap:     "gap",
	EventDiscard: "discard",
	EventMessage: "message",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return "invalid"
}

// Event is one diagnostic or result produced while decoding. Only the fields
// relevant to Type are set.
type Event struct {
	Type EventType
	Time time.Time

	// Pair is set for header, bit, unknown and gap events.
	Pair Pair
	// Bit is set for bit events.
	Bit uint8
	// Byte is set for byte events.
	Byte byte
	// Discarded is the number of dropped bits for discard and message events.
	Discarded int
	// Message is set for message events.
	Message Message
	// SincePrevious is the time since the previous message event, zero for
	// the first message of a run.
	SincePrevious time.Duration
}

// Listener receives decoder events. Listeners are called synchronously from
// the decode loop and must not call back into the Decoder.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleEvent(e Event) { f(e) }
