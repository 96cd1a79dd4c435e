package clubstore

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Slugify derives a club slug: folded to lowercase without diacritics,
// non-word characters removed, whitespace runs replaced by "-".
func Slugify(name string) string {
	s := text.Fold(name)
	s = nonWord.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return whitespace.ReplaceAllString(s, "-")
}
