// Package table owns the conversion table: the versioned set of entries mapping
// (kind, canonical name) to a numeric ID.
//
// Every mutation validates against the current state, writes the full entry set
// through Persistence, and only then becomes visible, bumping the version. Readers
// work against a Snapshot and learn about newer versions through Version.
package table

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/id"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
)

// Persistence stores the whole entry set. SaveEntries replaces what is stored.
type Persistence interface {
	LoadEntries(ctx context.Context) ([]domain.ConversionEntry, error)
	SaveEntries(ctx context.Context, entries []domain.ConversionEntry) error
}

// Duplicate describes active entries that violate a uniqueness key.
type Duplicate struct {
	Kind      domain.AttributeKind `json:"kind"`
	Canonical string               `json:"canonical,omitempty"`
	ID        int64                `json:"id,omitempty"`
	EntryIDs  []string             `json:"entry_ids"`
}

// InsertRequest describes a new entry.
type InsertRequest struct {
	Kind      domain.AttributeKind
	Canonical string
	ID        int64
	Label     string
	Source    domain.EntrySource
}

// SupersedeRequest replaces the canonical key of an active entry. An empty Label keeps the old one.
type SupersedeRequest struct {
	EntryID   string
	Canonical string
	Label     string
	Source    domain.EntrySource
}

// Table is the in-memory conversion table. It is safe for concurrent use, although
// the maintenance workflow drives it from a single session.
type Table struct {
	store  Persistence
	logger *slog.Logger
	now    func() time.Time
	newID  func() (string, error)

	mu      sync.RWMutex
	entries []domain.ConversionEntry
	idx     index
	dups    []Duplicate
	version uint64
}

// Option configures a Table.
type Option func(*Table)

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// WithIDGenerator replaces the entry ID generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(t *Table) { t.newID = gen }
}

// New creates an empty table at version 0. Call Load to read persisted entries.
func New(store Persistence, logger *slog.Logger, opts ...Option) *Table {
	t := &Table{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  id.NewEntryID,
		idx:    buildIndex(nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the table contents with the persisted entries.
// Duplicate active keys do not fail the load; they mark the table corrupt so the
// operator can see and remove them.
func (t *Table) Load(ctx context.Context) error {
	entries, err := t.store.LoadEntries(ctx)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		if !e.Kind.Valid() {
			return fmt.Errorf("load entries: entry %s has unknown kind %q", e.EntryID, e.Kind)
		}
		if e.EntryID == "" || seen[e.EntryID] {
			return fmt.Errorf("load entries: missing or repeated entry id %q", e.EntryID)
		}
		seen[e.EntryID] = true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.install(entries)

	t.logger.Info("conversion table loaded",
		"entries", len(entries),
		"version", t.version,
		"duplicates", len(t.dups),
	)
	for _, d := range t.dups {
		t.logger.Error("conversion table has duplicate active entries",
			"kind", d.Kind,
			"canonical", d.Canonical,
			"id", d.ID,
			"entry_ids", d.EntryIDs,
		)
	}

	return nil
}

// Version returns the current table version. Every committed mutation increments it.
func (t *Table) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Lookup returns the unique active entry for (kind, canonical).
// It reports false when there is none or when the key is duplicated.
func (t *Table) Lookup(kind domain.AttributeKind, canonical string) (domain.ConversionEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	positions := t.idx.byName[nameKey{kind: kind, canonical: canonical}]
	if len(positions) != 1 {
		return domain.ConversionEntry{}, false
	}
	return t.entries[positions[0]], true
}

// Get returns any entry, active or not, by its entry ID.
func (t *Table) Get(entryID string) (domain.ConversionEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pos, ok := t.idx.byEntry[entryID]
	if !ok {
		return domain.ConversionEntry{}, false
	}
	return t.entries[pos], true
}

// Entries returns a copy of the entries in creation order.
func (t *Table) Entries(includeSuperseded bool) []domain.ConversionEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.ConversionEntry, 0, len(t.entries))
	for _, e := range t.entries {
		if includeSuperseded || e.Active() {
			out = append(out, e)
		}
	}
	return out
}

// Duplicates lists the uniqueness violations among active entries.
func (t *Table) Duplicates() []Duplicate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.dups)
}

// Corrupt reports whether any uniqueness key is violated.
func (t *Table) Corrupt() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.dups) > 0
}

// StaleEntries returns active entries keyed under a different normalization ruleset
// or whose key would normalize differently today.
func (t *Table) StaleEntries() []domain.ConversionEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stale []domain.ConversionEntry
	for _, e := range t.entries {
		if !e.Active() {
			continue
		}
		if e.RulesetVersion != normalize.RulesetVersion || normalize.Canonical(e.Canonical) != e.Canonical {
			stale = append(stale, e)
		}
	}
	return stale
}

// Insert adds a new active entry.
// Fails with ErrInvalidID for a non-positive id and ErrDuplicateKey when the
// canonical name or the id is already active for the kind.
func (t *Table) Insert(ctx context.Context, req InsertRequest) (domain.ConversionEntry, error) {
	if !req.Kind.Valid() {
		return domain.ConversionEntry{}, domainerrors.Validationf("unknown attribute kind %q", req.Kind)
	}
	canonical := normalize.Canonical(req.Canonical)
	if canonical == "" {
		return domain.ConversionEntry{}, domainerrors.Validation("name is empty after normalization")
	}
	if req.ID <= 0 {
		return domain.ConversionEntry{}, domainerrors.InvalidIDf("id must be a positive integer, got %d", req.ID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkConsistent(); err != nil {
		return domain.ConversionEntry{}, err
	}
	if err := t.checkNameFree(req.Kind, canonical); err != nil {
		return domain.ConversionEntry{}, err
	}
	if positions := t.idx.byID[idKey{kind: req.Kind, id: req.ID}]; len(positions) > 0 {
		holder := t.entries[positions[0]]
		return domain.ConversionEntry{}, domainerrors.DuplicateKeyf("%s id %d is already used by %q (entry %s)",
			req.Kind, req.ID, holder.Canonical, holder.EntryID)
	}

	entryID, err := t.newID()
	if err != nil {
		return domain.ConversionEntry{}, fmt.Errorf("insert entry: %w", err)
	}

	now := t.now().UTC()
	entry := domain.ConversionEntry{
		EntryID:        entryID,
		Kind:           req.Kind,
		Canonical:      canonical,
		ID:             req.ID,
		Label:          req.Label,
		RulesetVersion: normalize.RulesetVersion,
		Source:         sourceOrDefault(req.Source),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	next := slices.Clone(t.entries)
	next = append(next, entry)
	if err := t.commit(ctx, next); err != nil {
		return domain.ConversionEntry{}, err
	}

	t.logger.Debug("conversion entry inserted",
		"entry_id", entry.EntryID,
		"kind", entry.Kind,
		"canonical", entry.Canonical,
		"id", entry.ID,
		"version", t.version,
	)
	return entry, nil
}

// Supersede retires an active entry and creates its replacement with the same kind
// and id under a new canonical name. The old entry stays in the table for audit.
func (t *Table) Supersede(ctx context.Context, req SupersedeRequest) (domain.ConversionEntry, error) {
	canonical := normalize.Canonical(req.Canonical)
	if canonical == "" {
		return domain.ConversionEntry{}, domainerrors.Validation("name is empty after normalization")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkConsistent(); err != nil {
		return domain.ConversionEntry{}, err
	}

	pos, err := t.activePosition(req.EntryID)
	if err != nil {
		return domain.ConversionEntry{}, err
	}
	old := t.entries[pos]

	if err := t.checkNameFree(old.Kind, canonical); err != nil {
		return domain.ConversionEntry{}, err
	}

	entryID, err := t.newID()
	if err != nil {
		return domain.ConversionEntry{}, fmt.Errorf("supersede entry: %w", err)
	}

	now := t.now().UTC()
	label := req.Label
	if label == "" {
		label = old.Label
	}
	replacement := domain.ConversionEntry{
		EntryID:        entryID,
		Kind:           old.Kind,
		Canonical:      canonical,
		ID:             old.ID,
		Label:          label,
		RulesetVersion: normalize.RulesetVersion,
		Source:         sourceOrDefault(req.Source),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	next := slices.Clone(t.entries)
	retired := &next[pos]
	retired.SupersededAt = &now
	retired.SupersededBy = replacement.EntryID
	retired.UpdatedAt = now
	next = append(next, replacement)

	if err := t.commit(ctx, next); err != nil {
		return domain.ConversionEntry{}, err
	}

	t.logger.Debug("conversion entry superseded",
		"entry_id", old.EntryID,
		"replacement", replacement.EntryID,
		"kind", old.Kind,
		"from", old.Canonical,
		"to", replacement.Canonical,
		"version", t.version,
	)
	return replacement, nil
}

// Deactivate retires an active entry without a replacement.
// It is the one mutation accepted while the table is corrupt, since it is how a
// duplicate gets removed.
func (t *Table) Deactivate(ctx context.Context, entryID string) (domain.ConversionEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, err := t.activePosition(entryID)
	if err != nil {
		return domain.ConversionEntry{}, err
	}

	now := t.now().UTC()
	next := slices.Clone(t.entries)
	retired := &next[pos]
	retired.SupersededAt = &now
	retired.UpdatedAt = now

	if err := t.commit(ctx, next); err != nil {
		return domain.ConversionEntry{}, err
	}

	t.logger.Info("conversion entry deactivated",
		"entry_id", entryID,
		"kind", retired.Kind,
		"canonical", retired.Canonical,
		"version", t.version,
		"duplicates_left", len(t.dups),
	)
	return next[pos], nil
}

// Snapshot returns an immutable view of the active entries at the current version.
func (t *Table) Snapshot() *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Snapshot{
		version: t.version,
		entries: t.entries,
		byName:  t.idx.byName,
	}
}

// commit persists next and installs it. On failure nothing changes.
// Callers hold the write lock.
func (t *Table) commit(ctx context.Context, next []domain.ConversionEntry) error {
	if err := t.store.SaveEntries(ctx, next); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	t.install(next)
	return nil
}

// install swaps in a new entry slice. Slices handed to snapshots are never written again.
func (t *Table) install(entries []domain.ConversionEntry) {
	t.version++
	t.entries = entries
	t.idx = buildIndex(entries)
	t.dups = t.idx.duplicates(entries)
}

func (t *Table) checkConsistent() error {
	if len(t.dups) == 0 {
		return nil
	}
	return domainerrors.TableCorrupt("conversion table has duplicate active entries; deactivate them before editing").
		WithDetails(slices.Clone(t.dups))
}

func (t *Table) checkNameFree(kind domain.AttributeKind, canonical string) error {
	positions := t.idx.byName[nameKey{kind: kind, canonical: canonical}]
	if len(positions) == 0 {
		return nil
	}
	holder := t.entries[positions[0]]
	return domainerrors.DuplicateKeyf("%s %q is already mapped to id %d (entry %s)",
		kind, canonical, holder.ID, holder.EntryID)
}

func (t *Table) activePosition(entryID string) (int, error) {
	pos, ok := t.idx.byEntry[entryID]
	if !ok {
		return 0, domainerrors.NotFoundf("conversion entry %q not found", entryID)
	}
	if !t.entries[pos].Active() {
		return 0, domainerrors.NotFoundf("conversion entry %q is no longer active", entryID)
	}
	return pos, nil
}

func sourceOrDefault(s domain.EntrySource) domain.EntrySource {
	if s == "" {
		return domain.SourceOperator
	}
	return s
}

type nameKey struct {
	kind      domain.AttributeKind
	canonical string
}

type idKey struct {
	kind domain.AttributeKind
	id   int64
}

// index maps keys to positions in the entry slice. byName and byID hold active entries only.
type index struct {
	byName  map[nameKey][]int
	byID    map[idKey][]int
	byEntry map[string]int
}

func buildIndex(entries []domain.ConversionEntry) index {
	idx := index{
		byName:  make(map[nameKey][]int, len(entries)),
		byID:    make(map[idKey][]int, len(entries)),
		byEntry: make(map[string]int, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		idx.byEntry[e.EntryID] = i
		if !e.Active() {
			continue
		}
		nk := nameKey{kind: e.Kind, canonical: e.Canonical}
		idx.byName[nk] = append(idx.byName[nk], i)
		ik := idKey{kind: e.Kind, id: e.ID}
		idx.byID[ik] = append(idx.byID[ik], i)
	}
	return idx
}

func (idx index) duplicates(entries []domain.ConversionEntry) []Duplicate {
	var dups []Duplicate
	for k, positions := range idx.byName {
		if len(positions) > 1 {
			dups = append(dups, Duplicate{Kind: k.kind, Canonical: k.canonical, EntryIDs: entryIDs(entries, positions)})
		}
	}
	for k, positions := range idx.byID {
		if len(positions) > 1 {
			dups = append(dups, Duplicate{Kind: k.kind, ID: k.id, EntryIDs: entryIDs(entries, positions)})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		a, b := dups[i], dups[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Canonical != b.Canonical {
			return a.Canonical < b.Canonical
		}
		return a.ID < b.ID
	})
	return dups
}

func entryIDs(entries []domain.ConversionEntry, positions []int) []string {
	ids := make([]string, len(positions))
	for i, pos := range positions {
		ids[i] = entries[pos].EntryID
	}
	return ids
}
