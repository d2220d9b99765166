package store

import (
	"fmt"
	"strconv"
)

const (
	entryPrefix = "entry:"
	metaPrefix  = "meta:"

	// positionWidth keeps lexical key order equal to table order.
	positionWidth = 8
)

// entryKey returns the database key of the entry at position pos.
// Badger holds on to keys until commit, so every call allocates.
func entryKey(pos int) []byte {
	return fmt.Appendf(nil, "%s%0*d", entryPrefix, positionWidth, pos)
}

// parseEntryKey extracts the position from an entry key.
func parseEntryKey(key []byte) (int, error) {
	pos, err := strconv.Atoi(string(key[len(entryPrefix):]))
	if err != nil {
		return 0, fmt.Errorf("malformed entry key %q: %w", key, err)
	}
	return pos, nil
}
