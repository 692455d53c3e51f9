package ir

import "encoding/hex"

// Message is the payload decoded between two gaps.
type Message []byte

// String renders the payload as lowercase hex with no separators.
func (m Message) String() string {
	return hex.EncodeToString(m)
}

// Accumulator packs bits MSB first into bytes and bytes into a Message.
// It is not safe for concurrent use.
type Accumulator struct {
	bitCount  int
	bitBuffer uint8
	message   Message

	emit func(Event)
}

// NewAccumulator returns an empty accumulator. emit receives byte, discard
// and message events and may be nil.
func NewAccumulator(emit func(Event)) *Accumulator {
	return &Accumulator{emit: emit}
}

// Bit shifts one bit into the current byte, flushing it into the message
// once eight bits have been collected.
func (a *Accumulator) Bit(v uint8) {
	a.bitBuffer = a.bitBuffer<<1 | v&1
	a.bitCount++
	if a.bitCount < 8 {
		return
	}
	b := a.bitBuffer
	a.message = append(a.message, b)
	a.resetByte()
	a.send(Event{Type: EventByte, Byte: b})
}

// Gap ends the current message. Bits of an unfinished byte are dropped and
// reported as discarded. The returned message may be empty.
func (a *Accumulator) Gap() (msg Message, discarded int) {
	discarded = a.bitCount
	if discarded != 0 {
		a.send(Event{Type: EventDiscard, Discarded: discarded})
	}
	msg = a.message
	if msg == nil {
		msg = Message{}
	}
	a.resetByte()
	a.message = nil
	a.send(Event{Type: EventMessage, Message: msg, Discarded: discarded})
	return msg, discarded
}

// BitCount returns the number of bits collected since the last full byte.
func (a *Accumulator) BitCount() int { return a.bitCount }

// Len returns the number of complete bytes in the current message.
func (a *Accumulator) Len() int { return len(a.message) }

func (a *Accumulator) resetByte() {
	a.bitCount = 0
	a.bitBuffer = 0
}

func (a *Accumulator) send(e Event) {
	if a.emit != nil {
		a.emit(e)
	}
}
