package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save stores or replaces a run together with its fragments.
func (s *runStore) Save(ctx context.Context, run *domain.SplitRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, input, size_limit, page_count, dry_run, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			input = excluded.input,
			size_limit = excluded.size_limit,
			page_count = excluded.page_count,
			dry_run = excluded.dry_run,
			status = excluded.status,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, run.ID, run.Input, int64(run.Limit), run.PageCount, boolToInt(run.DryRun),
		string(run.Status), nullString(run.Error),
		formatTime(run.StartedAt), formatNullableTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("clearing fragments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (run_id, part, start_page, end_page, oversized, size, path, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fragment insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range run.Fragments {
		if _, err := stmt.ExecContext(ctx, run.ID, f.Part, f.Start, f.End,
			boolToInt(f.Oversized), f.Size, nullString(f.Path), nullString(f.Digest)); err != nil {
			return fmt.Errorf("saving fragment %d: %w", f.Part, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.SplitRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, input, size_limit, page_count, dry_run, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if run.Fragments, err = s.fragments(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs newest first. limit <= 0 returns all runs.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.SplitRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, input, size_limit, page_count, dry_run, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	var runs []domain.SplitRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	rows.Close()

	// Fragments are loaded after the cursor is closed; the pool may hold a
	// single connection.
	for i := range runs {
		if runs[i].Fragments, err = s.fragments(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Delete removes a run and its fragments.
func (s *runStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *runStore) fragments(ctx context.Context, runID string) ([]domain.Fragment, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT part, start_page, end_page, oversized, size, path, digest
		FROM fragments WHERE run_id = ?
		ORDER BY part
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	var frags []domain.Fragment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Fragment
		var oversized int
		var path, digest sql.NullString
		if err := rows.Scan(&f.Part, &f.Start, &f.End, &oversized, &f.Size, &path, &digest); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		f.Oversized = oversized != 0
		f.Path = path.String
		f.Digest = digest.String
		frags = append(frags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return frags, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.SplitRun, error) {
	var run domain.SplitRun
	var limit int64
	var dryRun int
	var status, startedAt string
	var runErr, finishedAt sql.NullString
	if err := row.Scan(&run.ID, &run.Input, &limit, &run.PageCount, &dryRun,
		&status, &runErr, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	started, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}

	run.Limit = domain.SizeLimit(limit)
	run.DryRun = dryRun != 0
	run.Status = domain.RunStatus(status)
	run.Error = runErr.String
	run.StartedAt = started
	run.FinishedAt = parseNullableTime(finishedAt)
	return &run, nil
}

// formatTime formats t in UTC with the fixed-width layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable timestamp to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{} // Return zero time on parse error
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
