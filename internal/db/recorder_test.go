package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/irdecode/internal/ir"
	"github.com/banshee-data/irdecode/internal/timeutil"
)

func TestRecorder_StoresDecodedMessages(t *testing.T) {
	db := newTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	s, err := db.StartSession("-", ir.DefaultProfile(), clock.Now())
	require.NoError(t, err)
	rec := NewRecorder(db, s.ID, nil)

	classifier, err := ir.NewClassifier(ir.DefaultProfile())
	require.NoError(t, err)
	dec := ir.NewDecoder(classifier, clock, rec)

	dec.Feed(ir.MicrosPair(4500, 4500))
	for i := 0; i < 8; i++ {
		dec.Feed(ir.MicrosPair(560, 1690))
	}
	dec.Feed(ir.MicrosPair(560, 40000))
	dec.Feed(ir.MicrosPair(1200, 1200))
	clock.Advance(110 * time.Millisecond)
	dec.Feed(ir.MicrosPair(560, 40000))

	assert.Equal(t, s.ID, rec.SessionID())
	assert.Equal(t, int64(2), rec.Messages())
	assert.Equal(t, int64(1), rec.Unknown())
	assert.Zero(t, rec.Failures())

	recent, err := db.RecentMessages(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "", recent[0].PayloadHex)
	require.NotNil(t, recent[0].SincePrevMs)
	assert.InDelta(t, 110.0, *recent[0].SincePrevMs, 1e-6)
	assert.Equal(t, "ff", recent[1].PayloadHex)

	sum, err := db.SessionSummary(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.UnknownPairs)
}

func TestRecorder_CountsFailures(t *testing.T) {
	db := newTestDB(t)
	rec := NewRecorder(db, "no-such-session", nil)

	rec.HandleEvent(ir.Event{Type: ir.EventMessage, Time: time.Now(), Message: ir.Message{0x01}})
	rec.HandleEvent(ir.Event{Type: ir.EventUnknown, Time: time.Now(), Pair: ir.MicrosPair(1, 1)})
	rec.HandleEvent(ir.Event{Type: ir.EventByte, Byte: 0x01})

	assert.Equal(t, int64(2), rec.Failures())
	assert.Zero(t, rec.Messages())
}
