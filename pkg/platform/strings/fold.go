// Package strings provides string normalization used for matching records
// entered by hand.
package strings

import (
	"strings"
)

// Fold trims, collapses inner whitespace runs to a single space and
// lowercases s. Two names that Fold to the same value refer to the same
// person for duplicate detection.
//
// Example:
//
//	Fold("  Sarah   JOHNSON ")
//	// Returns: "sarah johnson"
func Fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ContainsFold reports whether substr is within s, ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
