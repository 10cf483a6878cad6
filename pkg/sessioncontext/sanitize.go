// Package sessioncontext holds the rules for the short free-text instruction a
// user attaches to a chat session.
package sessioncontext

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLength is the maximum stored length in runes.
const MaxLength = 2000

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Sanitize normalises newlines, drops control characters other than newline and
// tab, collapses runs of blank lines, trims, and truncates to MaxLength runes.
func Sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s)

	s = blankRuns.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return Truncate(s, MaxLength)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
