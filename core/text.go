package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s.
// A Caser keeps state, so a new one is created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr occurs in s, ignoring case.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

// CompareFold orders two strings alphabetically ignoring case.
// Strings that fold to the same value fall back to a byte comparison so the order is total.
func CompareFold(a, b string) int {
	if c := strings.Compare(fold(a), fold(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
