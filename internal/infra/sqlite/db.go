// Package sqlite provides SQLite-based persistent storage for Tend.
// Uses WAL mode for concurrent reads and crash-safe writes.
//
// The single writer connection serializes individual statements, not
// multi-statement sequences. The progression service holds a per-user
// lock across each read-then-append sequence; this package only has to
// keep each statement durable and ordered.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single writer: SQLite serializes writes anyway, so one connection
	// avoids SQLITE_BUSY churn between concurrent statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Subskill taxonomy: a subskill belongs to one parent category.
		`CREATE TABLE IF NOT EXISTS subskills (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT ''
		)`,

		// Raw events: signals and reflections.
		`CREATE TABLE IF NOT EXISTS signals (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			subskill_id  TEXT NOT NULL,
			note         TEXT NOT NULL DEFAULT '',
			artifact_url TEXT NOT NULL DEFAULT '',
			created_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_user_ts ON signals(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS reflections (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			content    TEXT NOT NULL,
			domains    TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reflections_user_ts ON reflections(user_id, created_at)`,

		// Append-only XP ledger — the source of truth for all totals.
		// Entries are never mutated or deleted; amount may be 0 but the
		// CHECK keeps negative awards unrepresentable.
		`CREATE TABLE IF NOT EXISTS xp_ledger (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     TEXT NOT NULL,
			amount      INTEGER NOT NULL CHECK(amount >= 0),
			source      TEXT NOT NULL,
			subskill_id TEXT,
			quest_key   TEXT,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user_ts ON xp_ledger(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_quest ON xp_ledger(user_id, quest_key)`,

		// Per-user progression snapshot (streaks + running total).
		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id        TEXT PRIMARY KEY,
			total_xp       INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_log_date  TEXT NOT NULL DEFAULT ''
		)`,

		// Per-(user, subskill) signal progress.
		`CREATE TABLE IF NOT EXISTS subskill_progress (
			user_id          TEXT NOT NULL,
			subskill_id      TEXT NOT NULL,
			xp_earned        INTEGER NOT NULL DEFAULT 0,
			signal_count     INTEGER NOT NULL DEFAULT 0,
			last_signal_date TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, subskill_id)
		)`,

		// Quest completion markers — the idempotence mechanism that
		// prevents a quest instance from awarding twice.
		`CREATE TABLE IF NOT EXISTS quest_completions (
			user_id      TEXT NOT NULL,
			quest_key    TEXT NOT NULL,
			completed_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, quest_key)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// dayBounds returns the [start, end) unix bounds of t's calendar day.
func dayBounds(t time.Time) (int64, int64) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start.Unix(), start.AddDate(0, 0, 1).Unix()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
