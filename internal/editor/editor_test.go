package editor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
	"github.com/ShoMaruoka/color-size-tool/internal/validation"
)

func newTestEditor(t *testing.T, entries ...domain.ConversionEntry) (*Editor, *table.Table, *table.MemoryStore) {
	t.Helper()
	store := table.NewMemoryStore(entries...)
	tbl := table.New(store, slog.New(slog.DiscardHandler))
	require.NoError(t, tbl.Load(context.Background()))
	return New(tbl, validation.New(), slog.New(slog.DiscardHandler)), tbl, store
}

func seedEntry(entryID string, kind domain.AttributeKind, canonical string, id int64) domain.ConversionEntry {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return domain.ConversionEntry{
		EntryID: entryID, Kind: kind, Canonical: canonical, ID: id,
		RulesetVersion: normalize.RulesetVersion, Source: domain.SourceSystem,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestApplyEdits_PartialBatch(t *testing.T) {
	ed, tbl, _ := newTestEditor(t)

	a := domain.Edit{Kind: domain.KindColor, Name: "Red", ID: 1}
	b := domain.Edit{Kind: domain.KindColor, Name: "red", ID: 2}
	c := domain.Edit{Kind: domain.KindColor, Name: "Blue", ID: 3}

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Applied)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, b, res.Rejected[0].Edit)
	assert.Equal(t, string(domainerrors.CodeDuplicateKey), res.Rejected[0].Code)

	active := tbl.Entries(false)
	require.Len(t, active, 2)
	assert.Equal(t, "red", active[0].Canonical)
	assert.Equal(t, "blue", active[1].Canonical)
	assert.Len(t, res.Entries, 2)
}

func TestApplyEdits_LaterEditsSeeEarlierOnes(t *testing.T) {
	ed, tbl, _ := newTestEditor(t)
	before := tbl.Version()

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{
		{Kind: domain.KindSize, Name: "M", ID: 2},
		{Kind: domain.KindSize, Name: "Medium", ID: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Rejected, 1)
	assert.Contains(t, res.Rejected[0].Reason, "id 2")
	assert.Greater(t, tbl.Version(), before)
}

func TestApplyEdits_Corrections(t *testing.T) {
	ed, tbl, _ := newTestEditor(t, seedEntry("seed-1", domain.KindColor, "rd", 1))

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{
		{Kind: domain.KindColor, Name: "Red", TargetEntryID: "seed-1", Label: "Red"},
		{Kind: domain.KindColor, Name: "Crimson", TargetEntryID: "missing"},
		{Kind: domain.KindSize, Name: "M", TargetEntryID: "seed-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Rejected, 2)
	assert.Equal(t, string(domainerrors.CodeNotFound), res.Rejected[0].Code)
	assert.Equal(t, string(domainerrors.CodeValidation), res.Rejected[1].Code)

	e, ok := tbl.Lookup(domain.KindColor, "red")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, "Red", e.Label)
	assert.Equal(t, domain.SourceOperator, e.Source)
}

func TestApplyEdits_ValidationAndInvalidID(t *testing.T) {
	ed, _, _ := newTestEditor(t)

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{
		{Kind: domain.KindColor, Name: "   ", ID: 1},
		{Kind: "WEIGHT", Name: "heavy", ID: 1},
		{Kind: domain.KindColor, Name: "Red", ID: 0},
		{Kind: domain.KindColor, Name: "Red", ID: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Applied)
	codes := make([]string, len(res.Rejected))
	for i, r := range res.Rejected {
		codes[i] = r.Code
	}
	assert.Equal(t, []string{"VALIDATION", "VALIDATION", "INVALID_ID", "INVALID_ID"}, codes)
}

func TestApplyEdits_BlockedWhileCorrupt(t *testing.T) {
	ed, _, _ := newTestEditor(t,
		seedEntry("seed-1", domain.KindColor, "red", 1),
		seedEntry("seed-2", domain.KindColor, "red", 2),
	)

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{{Kind: domain.KindColor, Name: "blue", ID: 3}})
	require.ErrorIs(t, err, domainerrors.ErrTableCorrupt)
	assert.Equal(t, 0, res.Applied)
}

func TestApplyEdits_PersistenceFailureStopsBatch(t *testing.T) {
	ed, _, store := newTestEditor(t)

	res, err := ed.ApplyEdits(context.Background(), []domain.Edit{{Kind: domain.KindColor, Name: "red", ID: 1}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Applied)

	store.FailNextSave(errors.New("connection reset"))
	res, err = ed.ApplyEdits(context.Background(), []domain.Edit{
		{Kind: domain.KindColor, Name: "blue", ID: 2},
		{Kind: domain.KindColor, Name: "green", ID: 3},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, res.Applied)
	assert.Empty(t, res.Rejected)
}
