// Package session runs the operator workflow: load products, resolve them, review
// exceptions, edit the table, re-resolve, and hand accepted records to a writer.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/editor"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/id"
	"github.com/ShoMaruoka/color-size-tool/internal/resolver"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

// DefaultMaxStaleRetries bounds how often Resolve re-snapshots after ErrSnapshotStale.
const DefaultMaxStaleRetries = 3

// Loader fetches raw product rows. A failure halts the batch before resolution.
type Loader interface {
	FetchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductRecord, error)
}

// Writer persists resolved rows.
type Writer interface {
	Persist(ctx context.Context, records []domain.ResolvedRecord) error
}

// RunRecorder keeps a history of resolution passes.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error
}

// Config holds the collaborators of a Session. Runs may be nil.
type Config struct {
	Table           *table.Table
	Resolver        *resolver.Resolver
	Editor          *editor.Editor
	Loader          Loader
	Writer          Writer
	Runs            RunRecorder
	MaxStaleRetries int
	Logger          *slog.Logger
}

// Session holds one maintainer's batch. Operations are serialized: each completes
// before the next begins.
type Session struct {
	id              string
	table           *table.Table
	resolver        *resolver.Resolver
	editor          *editor.Editor
	loader          Loader
	writer          Writer
	runs            RunRecorder
	maxStaleRetries int
	logger          *slog.Logger
	now             func() time.Time

	mu         sync.Mutex
	records    []domain.ProductRecord
	position   map[string]int
	results    []domain.ResolvedRecord
	exceptions []domain.ResolutionException
	overrides  map[string]bool
	resolved   bool
	version    uint64
}

// New creates a session.
func New(cfg Config) *Session {
	retries := cfg.MaxStaleRetries
	if retries <= 0 {
		retries = DefaultMaxStaleRetries
	}
	sessionID := uuid.NewString()
	return &Session{
		id:              sessionID,
		table:           cfg.Table,
		resolver:        cfg.Resolver,
		editor:          cfg.Editor,
		loader:          cfg.Loader,
		writer:          cfg.Writer,
		runs:            cfg.Runs,
		maxStaleRetries: retries,
		logger:          cfg.Logger.With("session_id", sessionID),
		now:             time.Now,
		overrides:       map[string]bool{},
	}
}

// ID returns the session identifier recorded with every run.
func (s *Session) ID() string {
	return s.id
}

// Load replaces the batch with products from the loader. On failure the previous
// batch is kept and nothing is resolved.
func (s *Session) Load(ctx context.Context, filter domain.ProductFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loader.FetchProducts(ctx, filter)
	if err != nil {
		s.logger.Error("product load failed", "error", err)
		return 0, err
	}

	position := make(map[string]int, len(records))
	for i, rec := range records {
		if _, dup := position[rec.ProductKey]; dup {
			return 0, domainerrors.Validationf("loader returned product %q twice", rec.ProductKey)
		}
		position[rec.ProductKey] = i
	}

	s.records = records
	s.position = position
	s.results = nil
	s.exceptions = nil
	s.overrides = map[string]bool{}
	s.resolved = false

	s.logger.Info("products loaded", "records", len(records))
	return len(records), nil
}

// Resolve resolves the whole batch, re-snapshotting on staleness up to the retry limit.
func (s *Session) Resolve(ctx context.Context) (domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.now()
	res, attempts, err := s.resolveWithRetry(ctx, s.records)
	if err != nil {
		return domain.Summary{}, err
	}

	s.results = res.Records
	s.exceptions = res.Exceptions
	s.version = res.Version
	s.resolved = true

	summary := s.summaryLocked()
	if summary.Ambiguous > 0 {
		s.logger.Error("resolution found ambiguous names; session is blocked until duplicates are removed",
			"ambiguous", summary.Ambiguous,
			"duplicates", s.table.Duplicates(),
		)
	}

	s.recordRun(ctx, started, attempts, summary)
	return summary, nil
}

// Exceptions returns the current exceptions in record order.
func (s *Session) Exceptions() []domain.ResolutionException {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.exceptions)
}

// Results returns the current resolved records in input order.
func (s *Session) Results() []domain.ResolvedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// Records returns the loaded product records.
func (s *Session) Records() []domain.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Blocked reports whether edits and commits are refused because the table is corrupt.
func (s *Session) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockedLocked()
}

// ApplyEdits applies operator edits and re-resolves the records that had exceptions,
// plus the records that resolved through an entry a correction replaced.
func (s *Session) ApplyEdits(ctx context.Context, edits []domain.Edit) (domain.EditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blockedLocked() {
		return domain.EditResult{}, s.blockedError()
	}

	result, err := s.editor.ApplyEdits(ctx, edits)
	if err != nil {
		return result, err
	}

	if result.Applied > 0 {
		// Inserted ids were free, so only corrections can match existing results.
		if err := s.reresolveLocked(ctx, result.Entries...); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Deactivate retires a conversion entry. It is allowed while blocked so a duplicate
// can be removed. Records with exceptions and records that resolved to the retired
// id are re-resolved afterwards.
func (s *Session) Deactivate(ctx context.Context, entryID string) (domain.ConversionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.table.Deactivate(ctx, entryID)
	if err != nil {
		return domain.ConversionEntry{}, err
	}

	if err := s.reresolveLocked(ctx, entry); err != nil {
		return entry, err
	}
	if !s.blockedLocked() {
		s.logger.Info("session unblocked", "version", s.table.Version())
	}
	return entry, nil
}

// Override accepts PARTIAL or UNRESOLVED records for writing.
func (s *Session) Override(productKeys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.resolved {
		return domainerrors.Validation("resolve the batch before accepting overrides")
	}
	for _, key := range productKeys {
		if _, ok := s.position[key]; !ok {
			return domainerrors.NotFoundf("product %q is not in the current batch", key)
		}
	}
	for _, key := range productKeys {
		s.overrides[key] = true
	}

	s.logger.Info("overrides accepted", "products", len(productKeys), "total_overrides", len(s.overrides))
	return nil
}

// Commit hands the writer every RESOLVED record plus the overridden ones, in input
// order, and returns how many were written. Writer errors come back unchanged.
// Results taken at an older table version are refused with ErrSnapshotStale;
// resolve again first.
func (s *Session) Commit(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.resolved {
		return 0, domainerrors.Validation("nothing has been resolved yet")
	}
	if s.blockedLocked() {
		return 0, s.blockedError()
	}
	if current := s.table.Version(); s.version != current {
		return 0, domainerrors.SnapshotStale(s.version, current)
	}

	accepted := make([]domain.ResolvedRecord, 0, len(s.results))
	for _, rec := range s.results {
		if rec.Status == domain.StatusResolved || s.overrides[rec.ProductKey] {
			accepted = append(accepted, rec)
		}
	}
	if len(accepted) == 0 {
		return 0, nil
	}

	if err := s.writer.Persist(ctx, accepted); err != nil {
		s.logger.Error("persist failed", "records", len(accepted), "error", err)
		return 0, err
	}

	s.logger.Info("resolved records written", "records", len(accepted), "skipped", len(s.results)-len(accepted))
	return len(accepted), nil
}

// Summary aggregates the current results.
func (s *Session) Summary() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) resolveWithRetry(ctx context.Context, records []domain.ProductRecord) (*resolver.Result, int, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxStaleRetries+1; attempt++ {
		res, err := s.resolver.Resolve(ctx, records, s.table.Snapshot())
		if err == nil {
			return res, attempt, nil
		}
		if !domainerrors.Is(err, domainerrors.ErrSnapshotStale) {
			return nil, attempt, err
		}
		lastErr = err
		s.logger.Warn("snapshot went stale during resolution, retrying", "attempt", attempt)
	}
	return nil, s.maxStaleRetries + 1, fmt.Errorf("resolve after %d attempts: %w", s.maxStaleRetries+1, lastErr)
}

// reresolveLocked re-runs the records that currently have exceptions, together with
// the records whose results carry the (kind, id) of a changed entry, and merges their
// new outcome into the batch. Every other result already matches the current table.
func (s *Session) reresolveLocked(ctx context.Context, changed ...domain.ConversionEntry) error {
	if !s.resolved {
		return nil
	}

	subset := s.affectedLocked(changed)
	if len(subset) == 0 {
		s.version = s.table.Version()
		return nil
	}

	res, _, err := s.resolveWithRetry(ctx, subset)
	if err != nil {
		return err
	}

	redone := make(map[string]bool, len(subset))
	for i, rec := range res.Records {
		s.results[s.position[rec.ProductKey]] = res.Records[i]
		redone[rec.ProductKey] = true
	}

	byKey := make(map[string][]domain.ResolutionException, len(res.Exceptions))
	for _, ex := range res.Exceptions {
		byKey[ex.ProductKey] = append(byKey[ex.ProductKey], ex)
	}

	// Rebuild in record order so the list reads the same as a full resolve.
	merged := make([]domain.ResolutionException, 0, len(s.exceptions))
	current := make(map[string][]domain.ResolutionException, len(s.exceptions))
	for _, ex := range s.exceptions {
		current[ex.ProductKey] = append(current[ex.ProductKey], ex)
	}
	for _, rec := range s.records {
		if redone[rec.ProductKey] {
			merged = append(merged, byKey[rec.ProductKey]...)
		} else {
			merged = append(merged, current[rec.ProductKey]...)
		}
	}

	s.exceptions = merged
	s.version = res.Version

	s.logger.Info("exception subset re-resolved",
		"records", len(subset),
		"exceptions_left", len(merged),
		"version", res.Version,
	)
	return nil
}

// affectedLocked returns, in record order, the records with exceptions and the
// records resolved to the id of one of the changed entries.
func (s *Session) affectedLocked(changed []domain.ConversionEntry) []domain.ProductRecord {
	type kindID struct {
		kind domain.AttributeKind
		id   int64
	}
	touched := make(map[kindID]bool, len(changed))
	for _, e := range changed {
		touched[kindID{e.Kind, e.ID}] = true
	}

	failed := make(map[string]bool, len(s.exceptions))
	for _, ex := range s.exceptions {
		failed[ex.ProductKey] = true
	}

	var subset []domain.ProductRecord
	for i, rec := range s.records {
		res := s.results[i]
		if failed[rec.ProductKey] ||
			(res.ColorID != nil && touched[kindID{domain.KindColor, *res.ColorID}]) ||
			(res.SizeID != nil && touched[kindID{domain.KindSize, *res.SizeID}]) {
			subset = append(subset, rec)
		}
	}
	return subset
}

func (s *Session) blockedLocked() bool {
	return s.table.Corrupt() || resolver.HasAmbiguous(s.exceptions)
}

func (s *Session) blockedError() error {
	return domainerrors.TableCorrupt("session is blocked: duplicate conversion entries must be deactivated first").
		WithDetails(s.table.Duplicates())
}

func (s *Session) summaryLocked() domain.Summary {
	sum := domain.Summary{
		SessionID:    s.id,
		TableVersion: s.version,
		Total:        len(s.results),
		Blocked:      s.blockedLocked(),
	}

	for _, rec := range s.results {
		switch rec.Status {
		case domain.StatusResolved:
			sum.Resolved++
		case domain.StatusPartial:
			sum.Partial++
		case domain.StatusUnresolved:
			sum.Unresolved++
		}
		if rec.ColorID != nil {
			sum.ColorReady++
		}
		if rec.SizeID != nil {
			sum.SizeReady++
		}
		if rec.Status != domain.StatusResolved && s.overrides[rec.ProductKey] {
			sum.Overridden++
		}
	}

	for _, ex := range s.exceptions {
		if ex.Reason == domain.ReasonAmbiguous {
			sum.Ambiguous++
		} else {
			sum.NoMatch++
		}
	}

	if sum.Total > 0 {
		sum.ConversionRate = float64(sum.ColorReady+sum.SizeReady) / float64(2*sum.Total)
	}
	return sum
}

func (s *Session) recordRun(ctx context.Context, started time.Time, attempts int, sum domain.Summary) {
	if s.runs == nil {
		return
	}

	runID, err := id.NewRunID()
	if err != nil {
		s.logger.Warn("could not allocate run id", "error", err)
		return
	}

	run := domain.RunRecord{
		RunID:        runID,
		SessionID:    s.id,
		StartedAt:    started.UTC(),
		FinishedAt:   s.now().UTC(),
		TableVersion: sum.TableVersion,
		Attempts:     attempts,
		Records:      sum.Total,
		Resolved:     sum.Resolved,
		Partial:      sum.Partial,
		Unresolved:   sum.Unresolved,
		Exceptions:   sum.NoMatch + sum.Ambiguous,
	}
	if err := s.runs.RecordRun(ctx, run); err != nil {
		s.logger.Warn("could not record resolution run", "run_id", runID, "error", err)
	}
}
