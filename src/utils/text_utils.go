package utils

import "strings"

// NormalizeDescription canonicalizes a transaction description for
// comparison: collapse runs of whitespace to a single space, trim, and
// case-fold. Two descriptions are "the same" for duplicate detection iff
// their normalized forms are equal.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
