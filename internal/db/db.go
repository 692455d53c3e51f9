// Package db persists decode sessions, decoded messages and unrecognised
// pulse/space pairs in SQLite.
package db

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/irdecode/internal/ir"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSessionNotFound is returned for an unknown or already ended session.
var ErrSessionNotFound = errors.New("session not found")

// DefaultRecentLimit caps RecentMessages when no limit is given.
const DefaultRecentLimit = 100

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(1)",
}

type DB struct {
	*sql.DB
	path string
}

// MigrationsFS returns the embedded schema migrations.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}

// OpenDB opens the database at path without running migrations.
func OpenDB(path string) (*DB, error) {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+strings.Join(params, "&"))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return &DB{DB: db, path: path}, nil
}

// NewDB opens the database at path and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(MigrationsFS()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the path the database was opened with.
func (db *DB) Path() string { return db.path }

// Session is one run of the decoder over one input.
type Session struct {
	ID        string     `json:"session_id"`
	Source    string     `json:"source"`
	Profile   ir.Profile `json:"profile"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// StartSession records the start of a decode run and returns it with a new
// random id.
func (db *DB) StartSession(source string, profile ir.Profile, at time.Time) (*Session, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	s := &Session{
		ID:        uuid.NewString(),
		Source:    source,
		Profile:   profile,
		StartedAt: at,
	}
	_, err = db.Exec(
		`INSERT INTO ir_sessions (session_id, source, profile_json, started_unix) VALUES (?, ?, ?, ?)`,
		s.ID, s.Source, string(profileJSON), unixSeconds(at),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return s, nil
}

// EndSession marks an open session as ended.
func (db *DB) EndSession(id string, at time.Time) error {
	res, err := db.Exec(
		`UPDATE ir_sessions SET ended_unix = ? WHERE session_id = ? AND ended_unix IS NULL`,
		unixSeconds(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// MessageRecord is one decoded message as stored.
type MessageRecord struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	PayloadHex    string    `json:"payload_hex"`
	ByteCount     int       `json:"byte_count"`
	DiscardedBits int       `json:"discarded_bits"`
	ReceivedAt    time.Time `json:"received_at"`
	// SincePrevMs is the time since the session's previous message.
	SincePrevMs *float64 `json:"since_prev_ms,omitempty"`
}

// MessageFromEvent converts a message event into a record for sessionID.
func MessageFromEvent(sessionID string, e ir.Event) MessageRecord {
	m := MessageRecord{
		SessionID:     sessionID,
		PayloadHex:    e.Message.String(),
		ByteCount:     len(e.Message),
		DiscardedBits: e.Discarded,
		ReceivedAt:    e.Time,
	}
	if e.SincePrevious > 0 {
		ms := float64(e.SincePrevious) / float64(time.Millisecond)
		m.SincePrevMs = &ms
	}
	return m
}

// RecordMessage inserts m and sets its ID.
func (db *DB) RecordMessage(m *MessageRecord) error {
	res, err := db.Exec(
		`INSERT INTO ir_messages (
			session_id, payload_hex, byte_count, discarded_bits, received_unix, since_prev_ms
		) VALUES (?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.PayloadHex, m.ByteCount, m.DiscardedBits, unixSeconds(m.ReceivedAt), m.SincePrevMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// RecordUnknown stores a pair that matched no timing window.
func (db *DB) RecordUnknown(sessionID string, p ir.Pair, at time.Time) error {
	var space sql.NullInt64
	if p.HasSpace {
		space = sql.NullInt64{Int64: p.Space.Microseconds(), Valid: true}
	}
	_, err := db.Exec(
		`INSERT INTO ir_unknown_pairs (session_id, pulse_us, space_us, seen_unix) VALUES (?, ?, ?, ?)`,
		sessionID, p.Pulse.Microseconds(), space, unixSeconds(at),
	)
	if err != nil {
		return fmt.Errorf("failed to insert unknown pair: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages across all sessions, newest
// first. A non-positive limit means DefaultRecentLimit.
func (db *DB) RecentMessages(limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := db.Query(
		`SELECT message_id, session_id, payload_hex, byte_count, discarded_bits, received_unix, since_prev_ms
		FROM ir_messages ORDER BY message_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var (
			m        MessageRecord
			received float64
			since    sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.PayloadHex, &m.ByteCount, &m.DiscardedBits, &received, &since); err != nil {
			return nil, err
		}
		m.ReceivedAt = fromUnixSeconds(received)
		if since.Valid {
			v := since.Float64
			m.SincePrevMs = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SessionSummary aggregates what was recorded for one session.
type SessionSummary struct {
	Session
	Messages      int        `json:"messages"`
	Bytes         int        `json:"bytes"`
	DiscardedBits int        `json:"discarded_bits"`
	UnknownPairs  int        `json:"unknown_pairs"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// SessionSummary returns the session with message and unknown pair totals.
func (db *DB) SessionSummary(id string) (*SessionSummary, error) {
	var (
		s           SessionSummary
		profileJSON string
		started     float64
		ended       sql.NullFloat64
	)
	err := db.QueryRow(
		`SELECT session_id, source, profile_json, started_unix, ended_unix FROM ir_sessions WHERE session_id = ?`, id,
	).Scan(&s.ID, &s.Source, &profileJSON, &started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(profileJSON), &s.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode session profile: %w", err)
	}
	s.StartedAt = fromUnixSeconds(started)
	if ended.Valid {
		t := fromUnixSeconds(ended.Float64)
		s.EndedAt = &t
	}

	var last sql.NullFloat64
	err = db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(byte_count), 0), COALESCE(SUM(discarded_bits), 0), MAX(received_unix)
		FROM ir_messages WHERE session_id = ?`, id,
	).Scan(&s.Messages, &s.Bytes, &s.DiscardedBits, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		t := fromUnixSeconds(last.Float64)
		s.LastMessageAt = &t
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM ir_unknown_pairs WHERE session_id = ?`, id).Scan(&s.UnknownPairs); err != nil {
		return nil, err
	}
	return &s, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
