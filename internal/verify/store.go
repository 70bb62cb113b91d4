package verify

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// File statuses recorded by the scanner.
const (
	StatusOK      = "ok"
	StatusCorrupt = "corrupt"
	StatusError   = "error"
)

// FileState is one file's integrity record.
type FileState struct {
	Path        string
	Digest      string
	Size        int64
	ModTime     time.Time
	LastChecked time.Time
	Status      string
	Detail      string
}

// Summary aggregates record counts per status.
type Summary struct {
	Total   int
	OK      int
	Corrupt int
	Errors  int
}

// Store persists per-file scan state in SQLite so repeated passes can skip
// unchanged files and corruption survives daemon restarts.
type Store struct {
	db *sql.DB
}

// OpenStore initializes or connects to the scan-state database.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the record for a path, reporting whether one exists.
func (s *Store) Get(ctx context.Context, path string) (FileState, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT path, digest, size, mod_time, last_checked, status, detail
		 FROM file_state WHERE path = ?`, path)
	state, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return FileState{}, false, nil
	}
	if err != nil {
		return FileState{}, false, fmt.Errorf("query file state: %w", err)
	}
	return state, true, nil
}

// Upsert inserts or replaces a record.
func (s *Store) Upsert(ctx context.Context, state FileState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_state (path, digest, size, mod_time, last_checked, status, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   digest = excluded.digest,
		   size = excluded.size,
		   mod_time = excluded.mod_time,
		   last_checked = excluded.last_checked,
		   status = excluded.status,
		   detail = excluded.detail`,
		state.Path, state.Digest, state.Size,
		state.ModTime.UTC().Unix(), state.LastChecked.UTC().Unix(),
		state.Status, state.Detail)
	if err != nil {
		return fmt.Errorf("upsert file state: %w", err)
	}
	return nil
}

// Flagged returns every record that is not currently OK, ordered by path.
func (s *Store) Flagged(ctx context.Context) ([]FileState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, digest, size, mod_time, last_checked, status, detail
		 FROM file_state WHERE status != ? ORDER BY path`, StatusOK)
	if err != nil {
		return nil, fmt.Errorf("query flagged files: %w", err)
	}
	defer rows.Close()

	var states []FileState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flagged row: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// Summarize returns record counts per status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM file_state GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize file state: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusOK:
			summary.OK = count
		case StatusCorrupt:
			summary.Corrupt = count
		case StatusError:
			summary.Errors = count
		}
	}
	return summary, rows.Err()
}

// Forget removes records whose files no longer exist under the scan root.
func (s *Store) Forget(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_state WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forget file state: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (FileState, error) {
	var state FileState
	var modTime, lastChecked int64
	if err := row.Scan(&state.Path, &state.Digest, &state.Size, &modTime, &lastChecked, &state.Status, &state.Detail); err != nil {
		return FileState{}, err
	}
	state.ModTime = time.Unix(modTime, 0).UTC()
	state.LastChecked = time.Unix(lastChecked, 0).UTC()
	return state, nil
}
