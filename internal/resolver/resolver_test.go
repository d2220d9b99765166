package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

func entry(entryID string, kind domain.AttributeKind, canonical string, id int64) domain.ConversionEntry {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return domain.ConversionEntry{
		EntryID:        entryID,
		Kind:           kind,
		Canonical:      canonical,
		ID:             id,
		RulesetVersion: normalize.RulesetVersion,
		Source:         domain.SourceSystem,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newTable(t *testing.T, entries ...domain.ConversionEntry) *table.Table {
	t.Helper()
	tbl := table.New(table.NewMemoryStore(entries...), slog.New(slog.DiscardHandler))
	require.NoError(t, tbl.Load(context.Background()))
	return tbl
}

func int64Ptr(v int64) *int64 { return &v }

func TestResolve_PartialWithMissingSize(t *testing.T) {
	tbl := newTable(t, entry("e1", domain.KindColor, "red", 1))
	r := New(tbl, 0, slog.New(slog.DiscardHandler))

	records := []domain.ProductRecord{domain.NewProductRecord("P-1", "  Red ", "M")}

	res, err := r.Resolve(context.Background(), records, tbl.Snapshot())
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, domain.ResolvedRecord{
		ProductKey: "P-1",
		ColorID:    int64Ptr(1),
		SizeID:     nil,
		Status:     domain.StatusPartial,
	}, res.Records[0])

	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, domain.ResolutionException{
		ProductKey: "P-1",
		Kind:       domain.KindSize,
		RawText:    "M",
		Reason:     domain.ReasonNoMatch,
	}, res.Exceptions[0])
}

func TestResolve_Statuses(t *testing.T) {
	tbl := newTable(t,
		entry("c1", domain.KindColor, "red", 1),
		entry("c2", domain.KindColor, "レッド", 11),
		entry("s1", domain.KindSize, "m", 2),
	)
	r := New(tbl, 2, slog.New(slog.DiscardHandler))

	records := []domain.ProductRecord{
		domain.NewProductRecord("A", "RED", "m"),
		domain.NewProductRecord("B", "ﾚｯﾄﾞ", "ＸＸＬ"),
		domain.NewProductRecord("C", "teal", "M"),
		domain.NewProductRecord("D", "teal", "huge"),
		domain.NewProductRecord("E", "", ""),
	}

	res, err := r.Resolve(context.Background(), records, tbl.Snapshot())
	require.NoError(t, err)

	statuses := make([]domain.ResolutionStatus, len(res.Records))
	for i, rec := range res.Records {
		statuses[i] = rec.Status
	}
	assert.Equal(t, []domain.ResolutionStatus{
		domain.StatusResolved,
		domain.StatusPartial,
		domain.StatusPartial,
		domain.StatusUnresolved,
		domain.StatusUnresolved,
	}, statuses)

	assert.Equal(t, int64(11), *res.Records[1].ColorID)
	assert.Len(t, res.Exceptions, 6)
	for _, ex := range res.Exceptions {
		assert.Equal(t, domain.ReasonNoMatch, ex.Reason)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	tbl := newTable(t,
		entry("c1", domain.KindColor, "red", 1),
		entry("s1", domain.KindSize, "s", 1),
	)
	r := New(tbl, 3, slog.New(slog.DiscardHandler))

	var records []domain.ProductRecord
	for i := range 25 {
		color := []string{"Red", "blue", "ＲＥＤ"}[i%3]
		size := []string{"S", "m", ""}[i%3]
		records = append(records, domain.NewProductRecord(fmt.Sprintf("P-%02d", i), color, size))
	}
	snap := tbl.Snapshot()

	first, err := r.Resolve(context.Background(), records, snap)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), records, snap)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestResolve_AmbiguousOnDuplicateEntries(t *testing.T) {
	tbl := newTable(t,
		entry("c1", domain.KindColor, "red", 1),
		entry("c2", domain.KindColor, "red", 5),
		entry("s1", domain.KindSize, "m", 2),
	)
	r := New(tbl, 0, slog.New(slog.DiscardHandler))

	res, err := r.Resolve(context.Background(),
		[]domain.ProductRecord{domain.NewProductRecord("P-1", "Red", "M")}, tbl.Snapshot())
	require.NoError(t, err)

	assert.Nil(t, res.Records[0].ColorID, "an ambiguous name must not resolve to either id")
	assert.Equal(t, domain.StatusPartial, res.Records[0].Status)
	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, domain.ReasonAmbiguous, res.Exceptions[0].Reason)
	assert.True(t, HasAmbiguous(res.Exceptions))
}

func TestResolve_StaleSnapshot(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t, entry("c1", domain.KindColor, "red", 1))
	r := New(tbl, 0, slog.New(slog.DiscardHandler))

	snap := tbl.Snapshot()
	_, err := tbl.Insert(ctx, table.InsertRequest{Kind: domain.KindSize, Canonical: "m", ID: 2})
	require.NoError(t, err)

	res, err := r.Resolve(ctx, []domain.ProductRecord{domain.NewProductRecord("P-1", "red", "m")}, snap)
	assert.Nil(t, res)
	require.ErrorIs(t, err, domainerrors.ErrSnapshotStale)

	res, err = r.Resolve(ctx, []domain.ProductRecord{domain.NewProductRecord("P-1", "red", "m")}, tbl.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, res.Records[0].Status)
}

func TestResolve_IdempotentExceptions(t *testing.T) {
	tbl := newTable(t)
	r := New(tbl, 0, slog.New(slog.DiscardHandler))
	records := []domain.ProductRecord{domain.NewProductRecord("P-1", "mauve", "XS")}

	first, err := r.Resolve(context.Background(), records, tbl.Snapshot())
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), records, tbl.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, first.Exceptions, second.Exceptions)
}

func TestResolve_CanceledContext(t *testing.T) {
	tbl := newTable(t)
	r := New(tbl, 1, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Resolve(ctx, []domain.ProductRecord{domain.NewProductRecord("P-1", "a", "b")}, tbl.Snapshot())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_EmptyBatch(t *testing.T) {
	tbl := newTable(t)
	r := New(tbl, 0, slog.New(slog.DiscardHandler))

	res, err := r.Resolve(context.Background(), nil, tbl.Snapshot())
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Exceptions)
}
