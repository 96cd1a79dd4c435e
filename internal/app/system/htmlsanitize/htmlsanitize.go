// Package htmlsanitize cleans user-supplied text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips every tag from s, unescapes the entities bluemonday
// produces and trims surrounding whitespace. Chat bodies, group names and
// notification text go through this before validation, so a body made only
// of markup counts as empty.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
