// Package journal provides SQLite-backed persistence of sync run history.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	uploaded   INTEGER NOT NULL DEFAULT 0,
	downloaded INTEGER NOT NULL DEFAULT 0,
	archived   INTEGER NOT NULL DEFAULT 0,
	skipped    INTEGER NOT NULL DEFAULT 0,
	conflicts  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS failures (
	run_id  INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path    TEXT NOT NULL DEFAULT '',
	kind    TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
`

// Run is one recorded sync pass.
type Run struct {
	ID         int64
	Started    time.Time
	Finished   time.Time
	Uploaded   int
	Downloaded int
	Archived   int
	Skipped    int
	Conflicts  int
	Failures   []models.Failure
}

// Journal defines the run-history operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing
// with mocks.
type Journal interface {
	SaveRun(summary *models.Summary) (int64, error)
	LastRun() (*Run, error)
	ListRuns(limit int) ([]Run, error)
	Close() error
}

var _ Journal = (*DB)(nil)

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveRun records a completed pass and its terminal failures in one
// transaction, returning the new run id.
func (db *DB) SaveRun(summary *models.Summary) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, uploaded, downloaded, archived, skipped, conflicts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, summary.Started, summary.Finished, summary.Uploaded, summary.Downloaded,
		summary.Archived, summary.Skipped, summary.Conflicts)
	if err != nil {
		return 0, fmt.Errorf("journal: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: run id: %w", err)
	}

	if len(summary.Failures) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO failures (run_id, path, kind, message) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, fmt.Errorf("journal: prepare failure insert: %w", err)
		}
		defer stmt.Close()
		for _, f := range summary.Failures {
			if _, err := stmt.Exec(runID, f.Path, string(f.Kind), f.Message); err != nil {
				return 0, fmt.Errorf("journal: insert failure: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return runID, nil
}

// LastRun returns the most recent run, or nil when the journal is empty.
func (db *DB) LastRun() (*Run, error) {
	runs, err := db.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first, with their failures.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, uploaded, downloaded, archived, skipped, conflicts
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Started, &r.Finished, &r.Uploaded,
			&r.Downloaded, &r.Archived, &r.Skipped, &r.Conflicts); err != nil {
			return nil, fmt.Errorf("journal: scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		failures, err := db.runFailures(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Failures = failures
	}
	return out, nil
}

func (db *DB) runFailures(runID int64) ([]models.Failure, error) {
	rows, err := db.conn.Query(`SELECT path, kind, message FROM failures WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal: run failures: %w", err)
	}
	defer rows.Close()

	var out []models.Failure
	for rows.Next() {
		var f models.Failure
		var kind string
		if err := rows.Scan(&f.Path, &kind, &f.Message); err != nil {
			return nil, fmt.Errorf("journal: scan failure: %w", err)
		}
		f.Kind = models.OpKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}
