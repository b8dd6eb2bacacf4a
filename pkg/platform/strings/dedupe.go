// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeTags normalizes a tag list: trims whitespace, lowercases, drops empty
// entries and duplicates. Order of first occurrence is preserved so submitter
// intent survives normalization.
//
// Example:
//
//	DedupeTags([]string{"  Healing ", "community", "healing", ""})
//	// Returns: []string{"healing", "community"}
func DedupeTags(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
