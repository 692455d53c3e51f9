package db

import (
	"sync/atomic"

	"github.com/banshee-data/irdecode/internal/ir"
	"github.com/banshee-data/irdecode/internal/monitoring"
)

// Recorder is an ir.Listener that stores message and unknown pair events for
// one session. Write failures are logged and counted, never fatal to
// decoding.
type Recorder struct {
	db        *DB
	sessionID string
	log       *monitoring.Logger

	messages atomic.Int64
	unknown  atomic.Int64
	failures atomic.Int64
}

// NewRecorder returns a Recorder writing to db under sessionID. logger may be
// nil.
func NewRecorder(db *DB, sessionID string, logger *monitoring.Logger) *Recorder {
	return &Recorder{db: db, sessionID: sessionID, log: logger}
}

func (r *Recorder) HandleEvent(e ir.Event) {
	switch e.Type {
	case ir.EventMessage:
		m := MessageFromEvent(r.sessionID, e)
		if err := r.db.RecordMessage(&m); err != nil {
			r.fail(err)
			return
		}
		r.messages.Add(1)
	case ir.EventUnknown:
		if err := r.db.RecordUnknown(r.sessionID, e.Pair, e.Time); err != nil {
			r.fail(err)
			return
		}
		r.unknown.Add(1)
	}
}

func (r *Recorder) fail(err error) {
	r.failures.Add(1)
	r.log.Errorf("store: %v", err)
}

// SessionID returns the session events are recorded under.
func (r *Recorder) SessionID() string { return r.sessionID }

// Messages returns the number of messages stored.
func (r *Recorder) Messages() int64 { return r.messages.Load() }

// Unknown returns the number of unknown pairs stored.
func (r *Recorder) Unknown() int64 { return r.unknown.Load() }

// Failures returns the number of events that could not be stored.
func (r *Recorder) Failures() int64 { return r.failures.Load() }
