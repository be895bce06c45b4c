package bot

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, strips accents and punctuation, and collapses
// whitespace. It is pure and idempotent; every piece of user text goes
// through it before any matching happens.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from the NFD decomposition
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
