package textproc

import (
	"strings"
	"unicode"
)

// Normalize cleans raw text before chunking or extraction: control and other
// non-printable runes are dropped, then all whitespace runs collapse to
// single spaces.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
