// Package uuidutil generates the identifiers attached to legend entries.
package uuidutil

import (
	"strings"

	"github.com/google/uuid"
)

// legendNamespace scopes the name-based ids of legacy legend entries.
var legendNamespace = uuid.MustParse("6f1c52d4-3a8e-4b7a-9a51-0f4d2c7e9b10")

// NewV4 generates a random UUID v4 string.
func NewV4() string {
	return uuid.New().String()
}

// ForColor returns the name-based (v5) id for a legend color. The same color
// always maps to the same id, so entries read from files written before ids
// existed stay addressable across loads.
func ForColor(color string) string {
	return uuid.NewSHA1(legendNamespace, []byte(strings.ToLower(color))).String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
