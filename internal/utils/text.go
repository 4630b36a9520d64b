package utils

import "strings"

// TruncateName shortens s to at most max runes, replacing the tail with "..."
// when it does not fit. Whitespace is trimmed first.
func TruncateName(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
