// Package slug normalizes arbitrary strings into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen is the maximum length of a normalized slug in bytes.
const MaxLen = 64

// stripMarks decomposes characters and removes combining marks, so that
// accented letters fold to their ASCII base form.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Make normalizes s into a lowercase identifier containing only [a-z0-9-].
// Runs of any other characters collapse to a single hyphen, leading and
// trailing hyphens are removed, and the result is capped at MaxLen. Any
// input maps to some (possibly empty) output.
func Make(s string) string {
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		} else {
			pending = true
		}
	}

	out := b.String()
	if len(out) > MaxLen {
		out = strings.TrimRight(out[:MaxLen], "-")
	}
	return out
}
