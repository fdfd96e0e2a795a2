// Package sanitizer turns untrusted provider text into safe plain text.
package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func policy() *bluemonday.Policy {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripTags removes all markup, including script and style content,
// and decodes entities so the result is plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(policy().Sanitize(s))
}

// CleanText strips markup, collapses runs of whitespace (line breaks
// included) into single spaces and cuts the result to maxRunes runes,
// ending it with "..." when cut. A maxRunes of zero or less disables the cut.
func CleanText(s string, maxRunes int) string {
	out := strings.Join(strings.Fields(StripTags(s)), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(out) <= maxRunes {
		return out
	}

	runes := []rune(out)
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return strings.TrimSpace(string(runes[:maxRunes-3])) + "..."
}
