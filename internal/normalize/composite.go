package normalize

import "strings"

// compositeSeparators are tried in order; the first one present splits the value.
var compositeSeparators = []string{"/", "-", "_", " "}

// SplitComposite splits a combined "color/size" value such as "レッド/M" or "Blue-XL".
// The split happens once, at the first separator kind found, so "Navy Blue/L" yields
// ("Navy Blue", "L"). A value without a separator is treated as a color with no size.
func SplitComposite(value string) (color, size string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}

	for _, sep := range compositeSeparators {
		if before, after, found := strings.Cut(value, sep); found {
			return strings.TrimSpace(before), strings.TrimSpace(after)
		}
	}

	return value, ""
}
