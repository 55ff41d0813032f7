// Package storage persists the resolved-title cache and the unresolved
// audit log between check runs, backed by SQLite.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Reasons a title can land in the unresolved log.
const (
	ReasonNotFound   = "not_found"
	ReasonNoResponse = "no_response"
)

// Unresolved is one audit row from a check run.
type Unresolved struct {
	Title   string // romaji title used for the lookup
	English string
	Year    string
	Format  string
	Reason  string
}

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS resolved_titles (
  title             TEXT PRIMARY KEY,
  first_resolved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_checked_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS unresolved (
  id          INTEGER PRIMARY KEY,
  title       TEXT NOT NULL,
  english     TEXT,
  year        TEXT,
  format      TEXT,
  reason      TEXT NOT NULL CHECK (reason IN ('not_found','no_response')),
  recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(title, reason)
);
CREATE INDEX IF NOT EXISTS idx_unresolved_reason ON unresolved(reason);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// IsResolved reports whether a title previously matched on AniList; the
// check job skips these without querying.
func (d *DB) IsResolved(ctx context.Context, title string) (bool, error) {
	var one int
	err := d.sql.QueryRowContext(ctx, "SELECT 1 FROM resolved_titles WHERE title = ?", title).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkResolved records a successful lookup and clears any stale unresolved
// rows for the title.
func (d *DB) MarkResolved(ctx context.Context, title string) error {
	now := time.Now().UTC()
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO resolved_titles(title, first_resolved_at, last_checked_at) VALUES(?,?,?)
ON CONFLICT(title) DO UPDATE SET last_checked_at = excluded.last_checked_at`,
		title, now, now)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx, "DELETE FROM unresolved WHERE title = ?", title)
	return err
}

// RecordUnresolved upserts an audit row for a failed lookup.
func (d *DB) RecordUnresolved(ctx context.Context, u Unresolved) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO unresolved(title, english, year, format, reason) VALUES(?,?,?,?,?)
ON CONFLICT(title, reason) DO UPDATE SET
  english = excluded.english, year = excluded.year,
  format = excluded.format, recorded_at = CURRENT_TIMESTAMP`,
		u.Title, u.English, u.Year, u.Format, u.Reason)
	return err
}

// ListUnresolved returns the audit rows for one reason, oldest first. The
// retry job feeds on the no_response rows.
func (d *DB) ListUnresolved(ctx context.Context, reason string) ([]Unresolved, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT title, english, year, format, reason FROM unresolved WHERE reason = ? ORDER BY recorded_at, id", reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unresolved
	for rows.Next() {
		var u Unresolved
		if err := rows.Scan(&u.Title, &u.English, &u.Year, &u.Format, &u.Reason); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AllUnresolved returns every audit row for the CSV export.
func (d *DB) AllUnresolved(ctx context.Context) ([]Unresolved, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT title, english, year, format, reason FROM unresolved ORDER BY recorded_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unresolved
	for rows.Next() {
		var u Unresolved
		if err := rows.Scan(&u.Title, &u.English, &u.Year, &u.Format, &u.Reason); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ResolvedCount reports the cache size for the run summary.
func (d *DB) ResolvedCount(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM resolved_titles").Scan(&n)
	return n, err
}
