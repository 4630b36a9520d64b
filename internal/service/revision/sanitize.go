package revision

import (
	"regexp"
	"strings"
)

var (
	// Fence on its own line, with or without a language tag
	fenceLine = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*$\r?\n?")
	// Fences glued to the code
	leadingFence  = regexp.MustCompile("^```(?:html|jsx|tsx|javascript|js|css)?")
	trailingFence = regexp.MustCompile("```$")
)

// Sanitize strips markdown code fences and surrounding whitespace from
// generated output. An empty result means the output was unusable.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceLine.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
