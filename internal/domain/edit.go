package domain

// Edit is one operator change to the conversion table.
// An empty TargetEntryID adds a new entry with ID; otherwise the target entry is
// superseded by one carrying Name as its canonical key.
type Edit struct {
	Kind          AttributeKind `json:"kind" validate:"required,oneof=COLOR SIZE"`
	Name          string        `json:"name" validate:"required,notblank,max=100"`
	ID            int64         `json:"id,omitempty"`
	TargetEntryID string        `json:"target_entry_id,omitempty"`
	Label         string        `json:"label,omitempty" validate:"max=100"`
}

// IsCorrection reports whether the edit supersedes an existing entry.
func (e Edit) IsCorrection() bool {
	return e.TargetEntryID != ""
}

// EditRejection pairs a rejected edit with the reason the table refused it.
type EditRejection struct {
	Edit   Edit   `json:"edit"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// EditResult reports a batch of edits precisely: what went in and what did not.
type EditResult struct {
	Applied  int               `json:"applied"`
	Rejected []EditRejection   `json:"rejected"`
	Entries  []ConversionEntry `json:"entries"` // entries created by applied edits, in order
}
