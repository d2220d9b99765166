// Package id generates prefixed NanoIDs for conversion entries and resolution runs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the tool.
const (
	PrefixEntry = "ent"
	PrefixRun   = "run"
)

// Generate creates a prefixed unique ID, e.g. "ent-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewEntryID returns a handle for a conversion entry.
func NewEntryID() (string, error) {
	return Generate(PrefixEntry)
}

// NewRunID returns an identifier for a resolution run.
func NewRunID() (string, error) {
	return Generate(PrefixRun)
}
