// Package htmlsanitize strips markup from user-supplied text before it is
// stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag from s and returns the visible text, trimmed.
// Entities that the policy escapes are decoded again so that "Smith & Co"
// is stored as typed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
