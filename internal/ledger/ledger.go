// Package ledger persists batch runs, per-item outcomes, scheduled batches,
// calculator secrets, and the adsorbate catalog in SQLite.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Enable WAL mode for concurrent read/write access and set a busy
	// timeout so writers retry instead of immediately returning SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return l, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			base_dir     TEXT NOT NULL,
			workers      INTEGER NOT NULL,
			status       TEXT DEFAULT 'running',
			total        INTEGER DEFAULT 0,
			ok           INTEGER DEFAULT 0,
			failed       INTEGER DEFAULT 0,
			report       TEXT,
			started_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS run_items (
			run_id       TEXT NOT NULL REFERENCES runs(id),
			item         TEXT NOT NULL,
			status       TEXT NOT NULL,
			error        TEXT,
			best_site    TEXT,
			barriers     TEXT,
			stages       TEXT,
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, item)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_items_run ON run_items(run_id, completed_at)`,
		`CREATE TABLE IF NOT EXISTS batches (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			schedule    TEXT NOT NULL,
			adsorbates  TEXT NOT NULL,
			status      TEXT DEFAULT 'active',
			next_run_at DATETIME,
			last_run_at DATETIME,
			last_status TEXT,
			last_error  TEXT,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_next_run ON batches(status, next_run_at)`,
		`CREATE TABLE IF NOT EXISTS secrets (
			name        TEXT PRIMARY KEY,
			description TEXT,
			value       BLOB NOT NULL,
			nonce       BLOB NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS catalog (
			name        TEXT PRIMARY KEY,
			formula     TEXT NOT NULL,
			charge      INTEGER DEFAULT 0,
			magmom      REAL DEFAULT 0,
			description TEXT,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := l.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	return nil
}
