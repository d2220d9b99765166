package domain

import (
	"fmt"
	"strings"
)

// AttributeKind names the product attribute a conversion entry maps.
// The set is fixed; nothing extends it at runtime.
type AttributeKind string

const (
	KindColor AttributeKind = "COLOR"
	KindSize  AttributeKind = "SIZE"
)

// Kinds lists every attribute kind in a stable order.
var Kinds = []AttributeKind{KindColor, KindSize}

// Valid reports whether k is one of the known kinds.
func (k AttributeKind) Valid() bool {
	return k == KindColor || k == KindSize
}

// ParseKind accepts "color", "COLOR", " Size " and so on.
func ParseKind(s string) (AttributeKind, error) {
	k := AttributeKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown attribute kind %q (must be COLOR or SIZE)", s)
	}
	return k, nil
}

// RawName is a name exactly as captured from source data.
type RawName struct {
	Kind AttributeKind `json:"kind"`
	Text string        `json:"text"`
}

// NormalizedName is the lookup form of a RawName. It is derived, never stored on its own.
type NormalizedName struct {
	Kind      AttributeKind `json:"kind"`
	Canonical string        `json:"canonical"`
}
