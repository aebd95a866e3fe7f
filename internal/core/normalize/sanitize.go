package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// stray matches C0, DEL and C1 controls that are not line structure
func stray(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
}

// Sanitize drops invalid UTF-8 bytes and stray control runes
// returns s unchanged when nothing needs cleaning
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	if strings.IndexFunc(s, stray) < 0 {
		return s
	}
	out, _, err := transform.String(runes.Remove(runes.Predicate(stray)), s)
	if err != nil {
		return s
	}
	return out
}
