// Package ledger records regeneration history in SQLite: one row per build
// attempt with its input hash, scan counts, duration, and outcome. The
// pipeline writes to it best-effort; the status command reads it.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger is the SQLite data access layer for build history.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at path with WAL mode enabled.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Migrate creates the builds table and its indexes. Idempotent.
func (l *Ledger) Migrate() error {
	if _, err := l.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS builds (
  id            INTEGER PRIMARY KEY,
  artifact      TEXT NOT NULL,
  input_hash    TEXT,
  ignored       INTEGER DEFAULT 0,
  scanned       INTEGER DEFAULT 0,
  contributed   INTEGER DEFAULT 0,
  status        TEXT NOT NULL,
  error         TEXT,
  duration_ms   INTEGER,
  built_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_builds_artifact ON builds(artifact);
CREATE INDEX IF NOT EXISTS idx_builds_built_at ON builds(built_at);
`

// Build statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Build is one regeneration attempt.
type Build struct {
	ID          int64
	Artifact    string
	InputHash   string
	Ignored     int
	Scanned     int
	Contributed int
	Status      string
	Error       string
	DurationMS  int64
	BuiltAt     time.Time
}

// Record inserts a build row and returns its ID.
func (l *Ledger) Record(b *Build) (int64, error) {
	if b.BuiltAt.IsZero() {
		b.BuiltAt = time.Now()
	}
	res, err := l.db.Exec(
		`INSERT INTO builds (artifact, input_hash, ignored, scanned, contributed, status, error, duration_ms, built_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Artifact, b.InputHash, b.Ignored, b.Scanned, b.Contributed,
		b.Status, b.Error, b.DurationMS, b.BuiltAt,
	)
	if err != nil {
		return 0, fmt.Errorf("record build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record build id: %w", err)
	}
	b.ID = id
	return id, nil
}

// Latest returns the most recent build per artifact, sorted by artifact.
func (l *Ledger) Latest() ([]Build, error) {
	rows, err := l.db.Query(
		`SELECT b.id, b.artifact, b.input_hash, b.ignored, b.scanned, b.contributed,
		        b.status, b.error, b.duration_ms, b.built_at
		 FROM builds b
		 JOIN (SELECT artifact, MAX(id) AS max_id FROM builds GROUP BY artifact) last
		   ON b.id = last.max_id
		 ORDER BY b.artifact`,
	)
	if err != nil {
		return nil, fmt.Errorf("query latest builds: %w", err)
	}
	defer rows.Close()
	return scanBuilds(rows)
}

// History returns up to limit builds for one artifact, newest first.
func (l *Ledger) History(artifact string, limit int) ([]Build, error) {
	rows, err := l.db.Query(
		`SELECT id, artifact, input_hash, ignored, scanned, contributed,
		        status, error, duration_ms, built_at
		 FROM builds WHERE artifact = ? ORDER BY id DESC LIMIT ?`,
		artifact, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer rows.Close()
	return scanBuilds(rows)
}

func scanBuilds(rows *sql.Rows) ([]Build, error) {
	var builds []Build
	for rows.Next() {
		var b Build
		var inputHash, errMsg sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(
			&b.ID, &b.Artifact, &inputHash, &b.Ignored, &b.Scanned, &b.Contributed,
			&b.Status, &errMsg, &duration, &b.BuiltAt,
		); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.InputHash = inputHash.String
		b.Error = errMsg.String
		b.DurationMS = duration.Int64
		builds = append(builds, b)
	}
	return builds, rows.Err()
}
