package strings

import (
	"strings"
)

// DefaultDetailMaxLen is the default maximum length for detail cells in
// formatted output.
const DefaultDetailMaxLen = 60

// MinTruncateLen is the smallest usable maxLen for TruncateDetail. Anything
// shorter leaves no room for content plus "...".
const MinTruncateLen = 4

// TruncateDetail flattens a message to a single line and truncates it to
// maxLen runes, appending "..." when content was dropped. Error messages and
// validator output often carry newlines and repeated whitespace; those are
// collapsed to single spaces first. Truncation counts runes, not bytes, so
// multi-byte characters are never split.
func TruncateDetail(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
