package domain

import "time"

// ProductRecord is the input unit for resolution. Loaders build it; nothing mutates it afterwards.
type ProductRecord struct {
	ProductKey string  `json:"product_key"`
	ColorRaw   RawName `json:"color_raw"`
	SizeRaw    RawName `json:"size_raw"`
}

// NewProductRecord builds a record from plain column values.
func NewProductRecord(productKey, color, size string) ProductRecord {
	return ProductRecord{
		ProductKey: productKey,
		ColorRaw:   RawName{Kind: KindColor, Text: color},
		SizeRaw:    RawName{Kind: KindSize, Text: size},
	}
}

// Raw returns the raw name of the given kind.
func (p ProductRecord) Raw(kind AttributeKind) RawName {
	if kind == KindSize {
		return p.SizeRaw
	}
	return p.ColorRaw
}

// ResolutionStatus classifies a resolved record by how many lookups hit.
type ResolutionStatus string

const (
	StatusResolved   ResolutionStatus = "RESOLVED"   // both hit
	StatusPartial    ResolutionStatus = "PARTIAL"    // exactly one hit
	StatusUnresolved ResolutionStatus = "UNRESOLVED" // neither hit
)

// ResolvedRecord is a ProductRecord after lookup.
// ColorID and SizeID are nil exactly when the matching name had no entry.
type ResolvedRecord struct {
	ProductKey string           `json:"product_key"`
	ColorID    *int64           `json:"color_id"`
	SizeID     *int64           `json:"size_id"`
	Status     ResolutionStatus `json:"status"`
}

// StatusFor derives the status from the two lookup outcomes.
func StatusFor(colorHit, sizeHit bool) ResolutionStatus {
	switch {
	case colorHit && sizeHit:
		return StatusResolved
	case colorHit || sizeHit:
		return StatusPartial
	default:
		return StatusUnresolved
	}
}

// ExceptionReason explains a failed lookup.
type ExceptionReason string

const (
	ReasonNoMatch ExceptionReason = "NO_MATCH"
	// ReasonAmbiguous means two active entries share a key, which only a corrupt table allows.
	ReasonAmbiguous ExceptionReason = "AMBIGUOUS"
)

// ResolutionException describes one name that could not be resolved. It is data, not a fault.
type ResolutionException struct {
	ProductKey string          `json:"product_key"`
	Kind       AttributeKind   `json:"kind"`
	RawText    string          `json:"raw_text"`
	Reason     ExceptionReason `json:"reason"`
}

// ProductFilter narrows the products a Loader returns.
// Patterns use * as a wildcard. HasColorID and HasSizeID look at previously written results.
type ProductFilter struct {
	UpdatedFrom  *time.Time `json:"updated_from,omitempty"`
	UpdatedTo    *time.Time `json:"updated_to,omitempty"`
	KeyPattern   string     `json:"key_pattern,omitempty"`
	ColorPattern string     `json:"color_pattern,omitempty"`
	SizePattern  string     `json:"size_pattern,omitempty"`
	HasColorID   *bool      `json:"has_color_id,omitempty"`
	HasSizeID    *bool      `json:"has_size_id,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
