package table

import "github.com/ShoMaruoka/color-size-tool/internal/domain"

// Match is the outcome of a snapshot lookup.
type Match int

const (
	MatchMiss Match = iota
	MatchHit
	// MatchAmbiguous means more than one active entry holds the key.
	MatchAmbiguous
)

// String implements fmt.Stringer.
func (m Match) String() string {
	switch m {
	case MatchHit:
		return "hit"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "miss"
	}
}

// Snapshot is an immutable, version-tagged view of the table.
// Lookups never re-validate uniqueness; a duplicated key reports MatchAmbiguous instead
// of picking one of the entries.
type Snapshot struct {
	version uint64
	entries []domain.ConversionEntry
	byName  map[nameKey][]int
}

// Version returns the table version the snapshot was taken at.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Lookup finds the active entry for a normalized name.
func (s *Snapshot) Lookup(name domain.NormalizedName) (domain.ConversionEntry, Match) {
	positions := s.byName[nameKey{kind: name.Kind, canonical: name.Canonical}]
	switch len(positions) {
	case 0:
		return domain.ConversionEntry{}, MatchMiss
	case 1:
		return s.entries[positions[0]], MatchHit
	default:
		return domain.ConversionEntry{}, MatchAmbiguous
	}
}

// Len returns the number of distinct active keys.
func (s *Snapshot) Len() int {
	return len(s.byName)
}
