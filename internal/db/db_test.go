package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/irdecode/internal/ir"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "irdecode.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous, "synchronous should be NORMAL")

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestStartAndEndSession(t *testing.T) {
	db := newTestDB(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := db.StartSession("/dev/ttyUSB0", ir.DefaultProfile(), start)
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err, "session id should be a uuid")

	sum, err := db.SessionSummary(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", sum.Source)
	assert.Equal(t, ir.DefaultProfile(), sum.Profile)
	assert.WithinDuration(t, start, sum.StartedAt, time.Millisecond)
	assert.Nil(t, sum.EndedAt)
	assert.Nil(t, sum.LastMessageAt)
	assert.Zero(t, sum.Messages)

	end := start.Add(90 * time.Second)
	require.NoError(t, db.EndSession(s.ID, end))
	sum, err = db.SessionSummary(s.ID)
	require.NoError(t, err)
	require.NotNil(t, sum.EndedAt)
	assert.WithinDuration(t, end, *sum.EndedAt, time.Millisecond)

	// A session ends once.
	assert.ErrorIs(t, db.EndSession(s.ID, end), ErrSessionNotFound)
}

func TestSessionSummary_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SessionSummary("missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound), "got %v", err)
	assert.ErrorIs(t, db.EndSession("missing", time.Now()), ErrSessionNotFound)
}

func TestRecordMessageAndRecent(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := db.StartSession("capture.txt", ir.DefaultProfile(), base)
	require.NoError(t, err)

	events := []ir.Event{
		{Type: ir.EventMessage, Time: base.Add(time.Second), Message: ir.Message{0xe0, 0xe0, 0x40, 0xbf}},
		{Type: ir.EventMessage, Time: base.Add(1108 * time.Millisecond), Message: ir.Message{}, SincePrevious: 108 * time.Millisecond},
		{Type: ir.EventMessage, Time: base.Add(2 * time.Second), Message: ir.Message{0x01}, Discarded: 3, SincePrevious: 892 * time.Millisecond},
	}
	for _, e := range events {
		m := MessageFromEvent(s.ID, e)
		require.NoError(t, db.RecordMessage(&m))
		assert.NotZero(t, m.ID)
	}

	recent, err := db.RecentMessages(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "01", recent[0].PayloadHex)
	assert.Equal(t, 1, recent[0].ByteCount)
	assert.Equal(t, 3, recent[0].DiscardedBits)
	require.NotNil(t, recent[0].SincePrevMs)
	assert.InDelta(t, 892.0, *recent[0].SincePrevMs, 1e-6)

	assert.Equal(t, "", recent[1].PayloadHex, "empty messages are stored")
	assert.Equal(t, 0, recent[1].ByteCount)
	assert.WithinDuration(t, base.Add(1108*time.Millisecond), recent[1].ReceivedAt, time.Millisecond)

	all, err := db.RecentMessages(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e0e040bf", all[2].PayloadHex)
	assert.Nil(t, all[2].SincePrevMs)

	sum, err := db.SessionSummary(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Messages)
	assert.Equal(t, 5, sum.Bytes)
	assert.Equal(t, 3, sum.DiscardedBits)
	require.NotNil(t, sum.LastMessageAt)
	assert.WithinDuration(t, base.Add(2*time.Second), *sum.LastMessageAt, time.Millisecond)
}

func TestRecordMessage_UnknownSessionRejected(t *testing.T) {
	db := newTestDB(t)
	m := MessageRecord{SessionID: "nope", PayloadHex: "01", ByteCount: 1, ReceivedAt: time.Now()}
	assert.Error(t, db.RecordMessage(&m), "foreign key should reject an unknown session")
}

func TestRecordUnknown(t *testing.T) {
	db := newTestDB(t)
	s, err := db.StartSession("-", ir.DefaultProfile(), time.Now())
	require.NoError(t, err)

	require.NoError(t, db.RecordUnknown(s.ID, ir.MicrosPair(1200, 1200), time.Now()))
	require.NoError(t, db.RecordUnknown(s.ID, ir.PulseOnly(4600*time.Microsecond), time.Now()))

	rows, err := db.Query(`SELECT pulse_us, space_us FROM ir_unknown_pairs WHERE session_id = ? ORDER BY id`, s.ID)
	require.NoError(t, err)
	defer rows.Close()

	type row struct {
		pulse int64
		space *int64
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.pulse, &r.space))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)
	assert.Equal(t, int64(1200), got[0].pulse)
	require.NotNil(t, got[0].space)
	assert.Equal(t, int64(1200), *got[0].space)
	assert.Equal(t, int64(4600), got[1].pulse)
	assert.Nil(t, got[1].space)

	sum, err := db.SessionSummary(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.UnknownPairs)
}

func TestUnixSecondsRoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 14, 8, 30, 15, 250_000_000, time.UTC)
	got := fromUnixSeconds(unixSeconds(ts))
	assert.WithinDuration(t, ts, got, time.Microsecond)
}
