package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

const runColumns = `run_id, session_id, started_at, finished_at, table_version, attempts,
	records, resolved, partial, unresolved, exceptions`

func scanRun(scanner interface{ Scan(dest ...any) error }) (domain.RunRecord, error) {
	var (
		r          domain.RunRecord
		startedAt  string
		finishedAt string
	)

	err := scanner.Scan(
		&r.RunID,
		&r.SessionID,
		&startedAt,
		&finishedAt,
		&r.TableVersion,
		&r.Attempts,
		&r.Records,
		&r.Resolved,
		&r.Partial,
		&r.Unresolved,
		&r.Exceptions,
	)
	if err != nil {
		return r, err
	}

	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return r, err
	}
	if r.FinishedAt, err = parseTime(finishedAt); err != nil {
		return r, err
	}
	return r, nil
}

// RecordRun stores one resolution pass.
func (s *Store) RecordRun(ctx context.Context, run domain.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolution_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.SessionID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		int64(run.TableVersion),
		run.Attempts,
		run.Records,
		run.Resolved,
		run.Partial,
		run.Unresolved,
		run.Exceptions,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert resolution run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM resolution_runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
