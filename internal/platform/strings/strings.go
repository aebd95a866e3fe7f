// Package strings provides small string helpers for query args and config values
package strings

import std "strings"

// IfBlank returns def when s is empty or whitespace, otherwise s
func IfBlank(s, def string) string {
	if std.TrimSpace(s) == "" {
		return def
	}
	return s
}

// SQLNull returns nil if s is blank/whitespace, else the original string.
// Useful for query args where NULL is desired for blanks
func SQLNull(s string) any {
	if std.TrimSpace(s) == "" {
		return nil
	}
	return s
}
