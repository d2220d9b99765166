package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/store"
)

func makeTestEntries() []domain.ConversionEntry {
	retired := testNow.Add(time.Hour)
	return []domain.ConversionEntry{
		{
			EntryID: "ent-001", Kind: domain.KindColor, Canonical: "レッド", ID: 1, Label: "Red",
			RulesetVersion: 1, Source: domain.SourceSystem, CreatedAt: testNow, UpdatedAt: retired,
			SupersededAt: &retired, SupersededBy: "ent-003",
		},
		{
			EntryID: "ent-002", Kind: domain.KindSize, Canonical: "m", ID: 2,
			RulesetVersion: 1, Source: domain.SourceSystem, CreatedAt: testNow, UpdatedAt: testNow,
		},
		{
			EntryID: "ent-003", Kind: domain.KindColor, Canonical: "red", ID: 1, Label: "Red",
			RulesetVersion: 1, Source: domain.SourceOperator, CreatedAt: retired, UpdatedAt: retired,
		},
	}
}

func TestSaveAndLoadEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveEntries(ctx, makeTestEntries()); err != nil {
		t.Fatalf("save entries: %v", err)
	}

	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if !reflect.DeepEqual(got, makeTestEntries()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, makeTestEntries())
	}
}

func TestLoadEntries_Empty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LoadEntries(context.Background())
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSaveEntries_ReplacesTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveEntries(ctx, makeTestEntries()); err != nil {
		t.Fatalf("save entries: %v", err)
	}
	if err := s.SaveEntries(ctx, makeTestEntries()[1:2]); err != nil {
		t.Fatalf("save entries: %v", err)
	}

	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(got) != 1 || got[0].EntryID != "ent-002" {
		t.Errorf("expected only ent-002, got %+v", got)
	}
}

func TestSaveEntries_KeepsDuplicateNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := makeTestEntries()
	dup := entries[2]
	dup.EntryID = "ent-004"
	dup.ID = 9
	entries = append(entries, dup)

	if err := s.SaveEntries(ctx, entries); err != nil {
		t.Fatalf("duplicate names must be storable: %v", err)
	}
	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 entries, got %d", len(got))
	}
}

func TestSaveEntries_RollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveEntries(ctx, makeTestEntries()); err != nil {
		t.Fatalf("save entries: %v", err)
	}

	bad := makeTestEntries()
	bad[1].EntryID = bad[0].EntryID
	if err := s.SaveEntries(ctx, bad); err == nil {
		t.Fatal("expected primary key violation")
	}

	got, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected previous table to survive, got %d entries", len(got))
	}
}

func TestLoadEntries_CorruptTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveEntries(ctx, makeTestEntries()[:1]); err != nil {
		t.Fatalf("save entries: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE conversion_entries SET created_at = 'yesterday'`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	_, err := s.LoadEntries(ctx)
	if !errors.Is(err, store.ErrCorruptData) {
		t.Errorf("expected ErrCorruptData, got %v", err)
	}
}
