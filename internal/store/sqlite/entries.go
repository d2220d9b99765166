package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

// entryColumns is the ordered list of columns selected in entry queries.
// Must match the scan order in scanEntry.
const entryColumns = `entry_id, kind, canonical, target_id, label, ruleset_version, source,
	created_at, updated_at, superseded_at, superseded_by`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (domain.ConversionEntry, error) {
	var (
		e            domain.ConversionEntry
		label        sql.NullString
		createdAt    string
		updatedAt    string
		supersededAt sql.NullString
		supersededBy sql.NullString
	)

	err := scanner.Scan(
		&e.EntryID,
		&e.Kind,
		&e.Canonical,
		&e.ID,
		&label,
		&e.RulesetVersion,
		&e.Source,
		&createdAt,
		&updatedAt,
		&supersededAt,
		&supersededBy,
	)
	if err != nil {
		return e, err
	}

	e.Label = label.String
	e.SupersededBy = supersededBy.String

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return e, err
	}
	if e.SupersededAt, err = parseNullableTime(supersededAt); err != nil {
		return e, err
	}
	return e, nil
}

// LoadEntries returns the stored conversion table in table order.
func (s *Store) LoadEntries(ctx context.Context) ([]domain.ConversionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM conversion_entries ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query conversion_entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.ConversionEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, store.ErrCorruptData.WithCause(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveEntries replaces the stored conversion table in a single transaction.
func (s *Store) SaveEntries(ctx context.Context, entries []domain.ConversionEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversion_entries`); err != nil {
		return fmt.Errorf("delete conversion_entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversion_entries (
			entry_id, position, kind, canonical, target_id, label, ruleset_version, source,
			created_at, updated_at, superseded_at, superseded_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for pos, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.EntryID,
			pos,
			string(e.Kind),
			e.Canonical,
			e.ID,
			nullString(e.Label),
			e.RulesetVersion,
			string(e.Source),
			formatTime(e.CreatedAt),
			formatTime(e.UpdatedAt),
			nullTimeString(e.SupersededAt),
			nullString(e.SupersededBy),
		)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.EntryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("conversion entries saved", "entries", len(entries))
	return nil
}
