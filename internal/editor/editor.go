// Package editor applies operator edits to the conversion table.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
	"github.com/ShoMaruoka/color-size-tool/internal/validation"
)

// Editor validates and applies batches of edits.
type Editor struct {
	table     *table.Table
	validator *validation.Validator
	logger    *slog.Logger
}

// New creates an editor for tbl.
func New(tbl *table.Table, validator *validation.Validator, logger *slog.Logger) *Editor {
	return &Editor{
		table:     tbl,
		validator: validator,
		logger:    logger,
	}
}

// ApplyEdits applies edits one at a time, in order, each against the table state left
// by the edits before it. New-entry edits go through Insert and corrections through
// Supersede. A rejected edit is recorded and skipped; it never undoes earlier ones.
//
// The returned error is reserved for failures the operator cannot fix by changing the
// edit: a corrupt table, a persistence failure, or cancellation. The result still
// reports everything applied before that point.
func (e *Editor) ApplyEdits(ctx context.Context, edits []domain.Edit) (domain.EditResult, error) {
	result := domain.EditResult{
		Rejected: []domain.EditRejection{},
		Entries:  []domain.ConversionEntry{},
	}

	if e.table.Corrupt() {
		return result, domainerrors.TableCorrupt("conversion table has duplicate active entries; edits are blocked").
			WithDetails(e.table.Duplicates())
	}

	for i, edit := range edits {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entry, err := e.apply(ctx, edit)
		if err != nil {
			code := domainerrors.CodeOf(err)
			if !code.Correctable() {
				return result, fmt.Errorf("apply edit %d: %w", i, err)
			}

			e.logger.Warn("edit rejected",
				"index", i,
				"kind", edit.Kind,
				"name", edit.Name,
				"code", code,
				"reason", err.Error(),
			)
			result.Rejected = append(result.Rejected, domain.EditRejection{
				Edit:   edit,
				Code:   string(code),
				Reason: err.Error(),
			})
			continue
		}

		result.Applied++
		result.Entries = append(result.Entries, entry)
	}

	e.logger.Info("edits applied",
		"applied", result.Applied,
		"rejected", len(result.Rejected),
		"version", e.table.Version(),
	)
	return result, nil
}

func (e *Editor) apply(ctx context.Context, edit domain.Edit) (domain.ConversionEntry, error) {
	if err := e.validator.Validate(edit); err != nil {
		return domain.ConversionEntry{}, err
	}

	if edit.IsCorrection() {
		target, ok := e.table.Get(edit.TargetEntryID)
		if ok && target.Kind != edit.Kind {
			return domain.ConversionEntry{}, domainerrors.Validationf(
				"entry %s is a %s entry, not %s", edit.TargetEntryID, target.Kind, edit.Kind)
		}
		return e.table.Supersede(ctx, table.SupersedeRequest{
			EntryID:   edit.TargetEntryID,
			Canonical: edit.Name,
			Label:     edit.Label,
			Source:    domain.SourceOperator,
		})
	}

	return e.table.Insert(ctx, table.InsertRequest{
		Kind:      edit.Kind,
		Canonical: edit.Name,
		ID:        edit.ID,
		Label:     edit.Label,
		Source:    domain.SourceOperator,
	})
}
