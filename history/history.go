// Package history keeps a SQLite log of completed scan runs so past
// results stay comparable after their CSV files rotate.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          string
	Kind        string
	Universe    int
	Succeeded   int
	Terminal    int
	Abandoned   int
	Resumed     int
	Cancelled   bool
	Elapsed     time.Duration
	ResultsPath string
	StartedAt   time.Time
}

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	universe INTEGER NOT NULL,
	succeeded INTEGER NOT NULL,
	terminal INTEGER NOT NULL,
	abandoned INTEGER NOT NULL,
	resumed INTEGER NOT NULL,
	cancelled INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	results_path TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_kind_started ON runs(kind, started_at);
`

// Open opens or creates the runs database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a finished run and returns its generated id.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, universe, succeeded, terminal, abandoned,
			resumed, cancelled, elapsed_ms, results_path, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Kind, r.Universe, r.Succeeded, r.Terminal, r.Abandoned,
		r.Resumed, r.Cancelled, r.Elapsed.Milliseconds(), r.ResultsPath, r.StartedAt,
	)
	if err != nil {
		return "", fmt.Errorf("history: record run: %w", err)
	}
	return r.ID, nil
}

// Recent returns the latest runs for kind, newest first. An empty kind
// returns runs of every kind.
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, universe, succeeded, terminal, abandoned,
			resumed, cancelled, elapsed_ms, results_path, started_at
		FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var elapsedMS int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Universe, &r.Succeeded, &r.Terminal,
			&r.Abandoned, &r.Resumed, &r.Cancelled, &elapsedMS, &r.ResultsPath, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}
