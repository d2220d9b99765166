package domain

import "time"

// EntrySource records who created a conversion entry.
type EntrySource string

const (
	SourceSystem   EntrySource = "SYSTEM"   // seed import
	SourceOperator EntrySource = "OPERATOR" // table edits
)

// ConversionEntry maps (Kind, Canonical) to a numeric ID.
// Among active entries both (Kind, Canonical) and (Kind, ID) are unique.
// Entries are never deleted; a correction supersedes the old row and keeps it for audit.
type ConversionEntry struct {
	EntryID        string        `json:"entry_id" yaml:"entry_id"`
	Kind           AttributeKind `json:"kind" yaml:"kind"`
	Canonical      string        `json:"canonical" yaml:"canonical"`
	ID             int64         `json:"id" yaml:"id"`
	Label          string        `json:"label,omitempty" yaml:"label,omitempty"` // display name, e.g. "Red"
	RulesetVersion int           `json:"ruleset_version" yaml:"ruleset_version"`
	Source         EntrySource   `json:"source" yaml:"source"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" yaml:"updated_at"`
	SupersededAt   *time.Time    `json:"superseded_at,omitempty" yaml:"superseded_at,omitempty"`
	SupersededBy   string        `json:"superseded_by,omitempty" yaml:"superseded_by,omitempty"` // empty when deactivated
}

// Active reports whether the entry takes part in lookups.
func (e *ConversionEntry) Active() bool {
	return e.SupersededAt == nil
}

// Key returns the lookup key of the entry.
func (e *ConversionEntry) Key() NormalizedName {
	return NormalizedName{Kind: e.Kind, Canonical: e.Canonical}
}
