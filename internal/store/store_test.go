package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntries() []domain.ConversionEntry {
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	retired := created.Add(time.Hour)
	return []domain.ConversionEntry{
		{
			EntryID: "ent-001", Kind: domain.KindColor, Canonical: "レッド", ID: 1, Label: "Red",
			RulesetVersion: 1, Source: domain.SourceSystem, CreatedAt: created, UpdatedAt: retired,
			SupersededAt: &retired, SupersededBy: "ent-003",
		},
		{
			EntryID: "ent-002", Kind: domain.KindSize, Canonical: "m", ID: 2,
			RulesetVersion: 1, Source: domain.SourceSystem, CreatedAt: created, UpdatedAt: created,
		},
		{
			EntryID: "ent-003", Kind: domain.KindColor, Canonical: "red", ID: 1, Label: "Red",
			RulesetVersion: 1, Source: domain.SourceOperator, CreatedAt: retired, UpdatedAt: retired,
		},
	}
}

func TestStore_EmptyDatabase(t *testing.T) {
	s := setupTestStore(t)

	entries, err := s.LoadEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_SaveAndLoadPreservesOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntries(ctx, testEntries()))

	got, err := s.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, testEntries(), got)
}

func TestStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEntries(ctx, testEntries()))
	require.NoError(t, s.SaveEntries(ctx, testEntries()[:1]))

	got, err := s.LoadEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ent-001", got[0].EntryID)
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	s, err := New(dir, logger)
	require.NoError(t, err)
	require.NoError(t, s.SaveEntries(ctx, testEntries()))
	require.NoError(t, s.Close())

	s, err = New(dir, logger)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStore_DetectsMissingEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveEntries(ctx, testEntries()))

	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(1))
	}))

	_, err := s.LoadEntries(ctx)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestStore_DetectsUndecodableEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveEntries(ctx, testEntries()[:1]))

	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(0), []byte("{not json"))
	}))

	_, err := s.LoadEntries(ctx)
	assert.ErrorIs(t, err, ErrCorruptData)
}

func TestStore_InMemory(t *testing.T) {
	s, err := NewInMemory(nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveEntries(context.Background(), testEntries()))
	got, err := s.LoadEntries(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SaveEntries(ctx, testEntries()), context.Canceled)
	_, err := s.LoadEntries(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
