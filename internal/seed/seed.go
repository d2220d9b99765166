// Package seed imports conversion rules from YAML and exports the table back to it.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	domainerrors "github.com/ShoMaruoka/color-size-tool/internal/errors"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
	"github.com/ShoMaruoka/color-size-tool/internal/validation"
)

//go:embed default.yaml
var defaultSeed []byte

// Row is one conversion rule.
type Row struct {
	Name  string `yaml:"name" validate:"required,notblank,max=100"`
	ID    int64  `yaml:"id" validate:"gt=0"`
	Label string `yaml:"label,omitempty" validate:"max=100"`
}

// File is the seed document.
type File struct {
	Colors []Row `yaml:"colors" validate:"dive"`
	Sizes  []Row `yaml:"sizes" validate:"dive"`
}

// Conflict is a seed row the table refused.
type Conflict struct {
	Kind   domain.AttributeKind `json:"kind" yaml:"kind"`
	Name   string               `json:"name" yaml:"name"`
	ID     int64                `json:"id" yaml:"id"`
	Reason string               `json:"reason" yaml:"reason"`
}

// Report summarizes an import.
type Report struct {
	Inserted  int        `json:"inserted"`
	Skipped   int        `json:"skipped"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Parse decodes and validates a seed document.
func Parse(data []byte, v *validation.Validator) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid seed yaml")
	}
	if err := v.Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile reads and parses the seed at path.
func LoadFile(path string, v *validation.Validator) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data, v)
}

// Default returns the built-in sample rules.
func Default(v *validation.Validator) (*File, error) {
	return Parse(defaultSeed, v)
}

// Import inserts every row the table does not already hold. A row whose name
// already maps to the same id is skipped, so importing twice changes nothing.
func Import(ctx context.Context, tbl *table.Table, f *File, logger *slog.Logger) (Report, error) {
	var report Report

	for _, group := range []struct {
		kind domain.AttributeKind
		rows []Row
	}{
		{domain.KindColor, f.Colors},
		{domain.KindSize, f.Sizes},
	} {
		for _, row := range group.rows {
			canonical := normalize.Canonical(row.Name)
			if existing, ok := tbl.Lookup(group.kind, canonical); ok && existing.ID == row.ID {
				report.Skipped++
				continue
			}

			_, err := tbl.Insert(ctx, table.InsertRequest{
				Kind:      group.kind,
				Canonical: row.Name,
				ID:        row.ID,
				Label:     row.Label,
				Source:    domain.SourceSystem,
			})
			if err == nil {
				report.Inserted++
				continue
			}
			if !domainerrors.CodeOf(err).Correctable() {
				return report, err
			}

			report.Conflicts = append(report.Conflicts, Conflict{
				Kind: group.kind, Name: row.Name, ID: row.ID, Reason: err.Error(),
			})
			logger.Warn("seed row conflicts with table",
				"kind", group.kind,
				"canonical", canonical,
				"id", row.ID,
				"error", err,
			)
		}
	}

	logger.Info("seed imported",
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"conflicts", len(report.Conflicts),
	)
	return report, nil
}

// Export is the YAML document written by MarshalEntries.
type Export struct {
	Version uint64                   `yaml:"version"`
	Entries []domain.ConversionEntry `yaml:"entries"`
}

// MarshalEntries renders the table, superseded rows included, as YAML.
func MarshalEntries(version uint64, entries []domain.ConversionEntry) ([]byte, error) {
	return yaml.Marshal(Export{Version: version, Entries: entries})
}
