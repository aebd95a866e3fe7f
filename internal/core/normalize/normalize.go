// Package normalize prepares message bodies for pattern extraction
// Pipeline order
// 1 Sanitize: drop invalid UTF-8 and control runes except tab, CR and LF
// 2 Unicode NFKC, which also turns no-break spaces into plain spaces
// 3 Remove format chars (zero-width joiners, BOM)
// 4 Width fold fullwidth digits and punctuation to ASCII
// Line breaks are left exactly as they came, patterns may anchor on \r
package normalize

import (
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Text normalizes a plain text body
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return s
	}
	return out
}
