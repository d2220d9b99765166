// Package resolver turns product records into resolved records and resolution exceptions.
package resolver

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

// DefaultChunkSize is how many records are resolved between yields.
const DefaultChunkSize = 100

// VersionSource reports the live table version so stale snapshots can be detected.
type VersionSource interface {
	Version() uint64
}

// Result is a complete batch outcome. Records and Exceptions follow input order.
type Result struct {
	Version    uint64                       `json:"version"`
	Records    []domain.ResolvedRecord      `json:"records"`
	Exceptions []domain.ResolutionException `json:"exceptions"`
}

// Resolver matches names against a table snapshot.
type Resolver struct {
	table     VersionSource
	chunkSize int
	logger    *slog.Logger
}

// New creates a resolver. chunkSize <= 0 uses DefaultChunkSize.
func New(table VersionSource, chunkSize int, logger *slog.Logger) *Resolver {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Resolver{
		table:     table,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Resolve classifies every record against snap. The output depends only on
// (records, snap); nothing is returned until the whole batch is done.
//
// If the table has moved past the snapshot's version by the time results are ready,
// Resolve fails with ErrSnapshotStale and the caller must take a new snapshot.
func (r *Resolver) Resolve(ctx context.Context, records []domain.ProductRecord, snap *table.Snapshot) (*Result, error) {
	res := &Result{
		Version:    snap.Version(),
		Records:    make([]domain.ResolvedRecord, 0, len(records)),
		Exceptions: []domain.ResolutionException{},
	}

	for start := 0; start < len(records); start += r.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+r.chunkSize, len(records))
		for _, rec := range records[start:end] {
			resolved, exceptions := resolveOne(rec, snap)
			res.Records = append(res.Records, resolved)
			res.Exceptions = append(res.Exceptions, exceptions...)
		}

		if end < len(records) {
			runtime.Gosched()
		}
	}

	if current := r.table.Version(); current != snap.Version() {
		return nil, domainerrors.SnapshotStale(snap.Version(), current)
	}

	r.logger.Debug("batch resolved",
		"records", len(res.Records),
		"exceptions", len(res.Exceptions),
		"version", res.Version,
	)
	return res, nil
}

func resolveOne(rec domain.ProductRecord, snap *table.Snapshot) (domain.ResolvedRecord, []domain.ResolutionException) {
	var exceptions []domain.ResolutionException

	lookup := func(kind domain.AttributeKind, raw domain.RawName) *int64 {
		raw.Kind = kind
		entry, match := snap.Lookup(normalize.Normalize(raw))
		switch match {
		case table.MatchHit:
			id := entry.ID
			return &id
		case table.MatchAmbiguous:
			exceptions = append(exceptions, exceptionFor(rec.ProductKey, raw, domain.ReasonAmbiguous))
		default:
			exceptions = append(exceptions, exceptionFor(rec.ProductKey, raw, domain.ReasonNoMatch))
		}
		return nil
	}

	colorID := lookup(domain.KindColor, rec.ColorRaw)
	sizeID := lookup(domain.KindSize, rec.SizeRaw)

	return domain.ResolvedRecord{
		ProductKey: rec.ProductKey,
		ColorID:    colorID,
		SizeID:     sizeID,
		Status:     domain.StatusFor(colorID != nil, sizeID != nil),
	}, exceptions
}

func exceptionFor(productKey string, raw domain.RawName, reason domain.ExceptionReason) domain.ResolutionException {
	return domain.ResolutionException{
		ProductKey: productKey,
		Kind:       raw.Kind,
		RawText:    raw.Text,
		Reason:     reason,
	}
}

// HasAmbiguous reports whether any exception signals a corrupt table.
func HasAmbiguous(exceptions []domain.ResolutionException) bool {
	for _, ex := range exceptions {
		if ex.Reason == domain.ReasonAmbiguous {
			return true
		}
	}
	return false
}
