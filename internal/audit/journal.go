// Package audit journals bus events into SQLite and exports the journal to
// an Excel workbook. It records what happened during a session, never the
// cart or buyer state itself.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"larek/internal/events"
)

// Entry is one journaled bus event.
type Entry struct {
	ID        int64
	SessionID string
	Event     string
	Payload   string
	CreatedAt time.Time
}

// Journal persists bus events for one or more sessions.
type Journal struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// Open initializes the journal database, creating the schema if needed.
func Open(path string, logger *zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	j := &Journal{db: db, logger: logger}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("create journal tables: %w", err)
	}
	return j, nil
}

func (j *Journal) createTables() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			event       TEXT NOT NULL,
			payload     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
	`)
	return err
}

// Recorder returns a wildcard handler journaling every bus event under the
// given session id. Register it with bus.OnAll; keep the returned value to
// unsubscribe it later.
func (j *Journal) Recorder(sessionID string) events.WildcardHandler {
	return func(ev events.EmitterEvent) {
		j.record(sessionID, ev)
	}
}

func (j *Journal) record(sessionID string, ev events.EmitterEvent) {
	payload := ""
	if ev.Payload != nil {
		if data, err := json.Marshal(ev.Payload); err == nil {
			payload = string(data)
		}
	}
	_, err := j.db.Exec(
		`INSERT INTO session_events (session_id, event, payload, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, ev.Name, payload, time.Now().UTC(),
	)
	if err != nil {
		j.logger.Error().Err(err).Str("event", ev.Name).Msg("journal insert failed")
	}
}

// Entries returns the journaled events for a session in insertion order.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, event, payload, created_at
		FROM session_events
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllEntries returns every journaled event in insertion order.
func (j *Journal) AllEntries(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_id, event, payload, created_at
		FROM session_events
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes journal rows older than the given duration and
// returns the number deleted.
func (j *Journal) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := j.db.ExecContext(ctx, `DELETE FROM session_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}

// PingContext reports journal database health.
func (j *Journal) PingContext(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
