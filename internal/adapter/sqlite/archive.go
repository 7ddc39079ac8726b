// Package sqlite archives committed hazard events in a local SQLite file so
// events that scroll out of the live feeds stay queryable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

const defaultLimit = 100

const schema = `
CREATE TABLE IF NOT EXISTS events (
  id            TEXT PRIMARY KEY,
  kind          TEXT NOT NULL,
  title         TEXT NOT NULL,
  source        TEXT NOT NULL,
  occurred_at   INTEGER NOT NULL,
  payload       TEXT NOT NULL,
  first_seen_at INTEGER NOT NULL,
  last_seen_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_occurred ON events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind, occurred_at);
`

// ArchivedEvent is an event together with the times it was first and last
// seen in a committed cycle.
type ArchivedEvent struct {
	domain.Event
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Archive is a SQLite-backed event history. It implements ingest.BatchLoader.
type Archive struct {
	sql *sql.DB
	now func() time.Time
}

// Open opens or creates the archive at path and ensures the schema exists.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("open archive: empty path")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{sql: db, now: domain.Now}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.sql == nil {
		return nil
	}
	return a.sql.Close()
}

// LoadBatch upserts events in one transaction. New events get first_seen_at
// set; existing ones keep it and have their payload and last_seen_at refreshed.
func (a *Archive) LoadBatch(ctx context.Context, events []domain.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	seen := a.now().UTC().UnixMilli()

	tx, err := a.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin archive batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO events(id, kind, title, source, occurred_at, payload, first_seen_at, last_seen_at)
VALUES(?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  kind = excluded.kind,
  title = excluded.title,
  source = excluded.source,
  occurred_at = excluded.occurred_at,
  payload = excluded.payload,
  last_seen_at = excluded.last_seen_at`)
	if err != nil {
		return fmt.Errorf("prepare archive upsert: %w", err)
	}
	defer stmt.Close()

	for i := range events {
		e := events[i]
		payload, merr := json.Marshal(e)
		if merr != nil {
			err = fmt.Errorf("serialize event %s: %w", e.ID, merr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, e.ID, string(e.Kind), e.Title, e.Source,
			e.OccurredAt.UTC().UnixMilli(), string(payload), seen, seen); err != nil {
			return fmt.Errorf("archive event %s: %w", e.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit archive batch: %w", err)
	}
	return nil
}

// Since returns archived events that occurred at or after t, newest first.
// A non-positive limit uses the default of 100.
func (a *Archive) Since(ctx context.Context, t time.Time, limit int) ([]ArchivedEvent, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := a.sql.QueryContext(ctx,
		`SELECT payload, first_seen_at, last_seen_at FROM events WHERE occurred_at >= ? ORDER BY occurred_at DESC, id LIMIT ?`,
		t.UTC().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	out := []ArchivedEvent{}
	for rows.Next() {
		var (
			payload     string
			first, last int64
		)
		if err := rows.Scan(&payload, &first, &last); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		var ae ArchivedEvent
		if err := json.Unmarshal([]byte(payload), &ae.Event); err != nil {
			return nil, fmt.Errorf("decode archived event: %w", err)
		}
		ae.FirstSeenAt = time.UnixMilli(first).UTC()
		ae.LastSeenAt = time.UnixMilli(last).UTC()
		out = append(out, ae)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return out, nil
}

// Count returns the number of archived events.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}
