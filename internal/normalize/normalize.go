// Package normalize turns raw color and size names into canonical lookup keys.
package normalize

import (
	"strings"
	"unicode"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// RulesetVersion identifies the normalization rules below. Conversion entries record it
// so entries keyed under older rules can be found and re-keyed.
// Bump it whenever Canonical can return a different string for some input.
const RulesetVersion = 2

// Normalize derives the lookup key for a raw name. It never fails.
func Normalize(raw domain.RawName) domain.NormalizedName {
	return domain.NormalizedName{
		Kind:      raw.Kind,
		Canonical: Canonical(raw.Text),
	}
}

// Canonical applies the ruleset to a bare string:
//   - control characters dropped, tabs and newlines treated as spaces
//   - compatibility composition (NFKC)
//   - width folded: full-width ASCII to half-width, half-width katakana to full-width
//   - full Unicode case folding, with Cherokee folded to its capital letters
//   - trimmed, with internal whitespace runs collapsed to one space
//
// Canonical(Canonical(s)) == Canonical(s) for every s.
func Canonical(s string) string {
	s = strings.Map(sanitizeRune, s)

	// The chain holds state, so it is built per call.
	folder := transform.Chain(norm.NFKC, width.Fold, cases.Fold(), norm.NFKC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		// Only reachable on invalid UTF-8 that the transformers reject; keep the sanitized input.
		folded = s
	}
	folded = strings.Map(foldCherokee, folded)

	return strings.Join(strings.Fields(folded), " ")
}

// foldCherokee maps Cherokee small letters to capitals, the direction CaseFolding.txt
// gives. cases.Fold swaps the two blocks instead, which never settles.
func foldCherokee(r rune) rune {
	switch {
	case r >= 0xAB70 && r <= 0xABBF: // Cherokee Supplement: ꭰ..ꮿ
		return r - 0xAB70 + 0x13A0
	case r >= 0x13F8 && r <= 0x13FD: // ᏸ..ᏽ
		return r - 8
	default:
		return r
	}
}

// sanitizeRune drops null bytes and other control characters that leak in from CSV
// exports and legacy databases.
func sanitizeRune(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return ' '
	case unicode.IsControl(r), r == '\u200b', r == '\ufeff':
		return -1
	default:
		return r
	}
}
