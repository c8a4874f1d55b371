// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists per-image processing progress so runs are
// resumable. Records are keyed by (document hash, image index) and are
// never deleted by the pipeline; clearing progress means removing the
// database file.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dunctk/whitepaper-to-socials/pkg/types"
)

// Store manages the processing-state SQLite database. Any open, schema, or
// statement error is fatal for the run: the pipeline must not proceed on a
// store it cannot trust.
type Store struct {
	db *sql.DB
}

// Record is one row of processing state.
type Record struct {
	DocHash    string
	ImageIndex int
	Status     types.ProcessingStatus
	UpdatedAt  time.Time
}

// NewStore opens or creates the state database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS processing_state (
			pdf_sha256 TEXT NOT NULL,
			image_index INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (pdf_sha256, image_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_state_status ON processing_state(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Begin records that processing has started for an image. Calling it for an
// existing record is a no-op, so a failed image keeps its failed status
// until a stage actually changes it.
func (s *Store) Begin(ctx context.Context, docHash string, index int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processing_state (pdf_sha256, image_index, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		docHash, index, types.StatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("beginning image %d: %w", index, err)
	}
	return nil
}

// MarkCompleted records durable success for an image. Idempotent: repeated
// calls leave the row completed.
func (s *Store) MarkCompleted(ctx context.Context, docHash string, index int) error {
	return s.setStatus(ctx, docHash, index, types.StatusCompleted)
}

// MarkFailed records that an image exhausted its retries and was skipped.
func (s *Store) MarkFailed(ctx context.Context, docHash string, index int) error {
	return s.setStatus(ctx, docHash, index, types.StatusFailed)
}

func (s *Store) setStatus(ctx context.Context, docHash string, index int, status types.ProcessingStatus) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_state (pdf_sha256, image_index, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(pdf_sha256, image_index) DO UPDATE SET
			status=excluded.status, updated_at=excluded.updated_at`,
		docHash, index, status, now, now,
	)
	if err != nil {
		return fmt.Errorf("marking image %d %s: %w", index, status, err)
	}
	return nil
}

// IsCompleted reports whether the image has been fully processed.
func (s *Store) IsCompleted(ctx context.Context, docHash string, index int) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM processing_state WHERE pdf_sha256 = ? AND image_index = ?`,
		docHash, index,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying image %d: %w", index, err)
	}
	return types.ProcessingStatus(status) == types.StatusCompleted, nil
}

// HighestCompleted returns the largest completed index for a document, and
// whether any image has completed at all.
func (s *Store) HighestCompleted(ctx context.Context, docHash string) (int, bool, error) {
	var index sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(image_index) FROM processing_state WHERE pdf_sha256 = ? AND status = ?`,
		docHash, types.StatusCompleted,
	).Scan(&index)
	if err != nil {
		return 0, false, fmt.Errorf("querying highest completed: %w", err)
	}
	if !index.Valid {
		return 0, false, nil
	}
	return int(index.Int64), true, nil
}

// CompletedSet returns the set of completed indices for a document.
func (s *Store) CompletedSet(ctx context.Context, docHash string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_index FROM processing_state WHERE pdf_sha256 = ? AND status = ?`,
		docHash, types.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("querying completed indices: %w", err)
	}
	defer rows.Close()

	completed := make(map[int]bool)
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("scanning completed index: %w", err)
		}
		completed[idx] = true
	}
	return completed, rows.Err()
}

// Records returns all rows for a document in ascending index order,
// for status inspection.
func (s *Store) Records(ctx context.Context, docHash string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pdf_sha256, image_index, status, updated_at
		 FROM processing_state WHERE pdf_sha256 = ? ORDER BY image_index`,
		docHash,
	)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var status, updated string
		if err := rows.Scan(&r.DocHash, &r.ImageIndex, &status, &updated); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.Status = types.ProcessingStatus(status)
		if t, parseErr := time.Parse(time.RFC3339Nano, updated); parseErr == nil {
			r.UpdatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
