// Package layout translates custom date format strings (MM/dd hh:mmt style)
// into Go reference layouts and parses values against them
//
// Supported tokens
//
//	M MM MMM MMMM   month
//	d dd ddd dddd   day of month, weekday
//	yy yyyy         year
//	h hh H HH       hour (12h, 24h)
//	m mm s ss       minute, second
//	t tt            AM/PM designator, a single A or P is accepted on input
//
// Anything inside single quotes or after a backslash is literal. Unquoted
// punctuation and spaces pass through, unquoted letters are rejected.
package layout

import (
	"regexp"
	"strings"
	"time"

	perr "shiftsync/internal/platform/errors"
)

// Layout is a compiled format
type Layout struct {
	source     string
	goLayout   string
	designator bool
	hasYear    bool
}

var tokens = map[string]string{
	"M": "1", "MM": "01", "MMM": "Jan", "MMMM": "January",
	"d": "2", "dd": "02", "ddd": "Mon", "dddd": "Monday",
	"yy": "06", "yyyy": "2006",
	"h": "3", "hh": "03", "H": "15", "HH": "15",
	"m": "4", "mm": "04",
	"s": "5", "ss": "05",
	"t": "PM", "tt": "PM",
}

// Compile translates format into a Layout
func Compile(format string) (Layout, error) {
	if strings.TrimSpace(format) == "" {
		return Layout{}, perr.InvalidArgf("date format is empty")
	}

	var b strings.Builder
	l := Layout{source: format}
	rs := []rune(format)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case r == '\\':
			if i+1 >= len(rs) {
				return Layout{}, perr.InvalidArgf("date format %q ends with an escape", format)
			}
			if err := writeLiteral(&b, format, rs[i+1]); err != nil {
				return Layout{}, err
			}
			i += 2

		case r == '\'':
			end := i + 1
			for end < len(rs) && rs[end] != '\'' {
				end++
			}
			if end >= len(rs) {
				return Layout{}, perr.InvalidArgf("date format %q has an unterminated quote", format)
			}
			for _, lr := range rs[i+1 : end] {
				if err := writeLiteral(&b, format, lr); err != nil {
					return Layout{}, err
				}
			}
			i = end + 1

		case isLetter(r):
			n := 1
			for i+n < len(rs) && rs[i+n] == r {
				n++
			}
			tok := string(rs[i : i+n])
			goTok, ok := tokens[tok]
			if !ok {
				return Layout{}, perr.InvalidArgf("date format %q: unsupported token %q", format, tok)
			}
			switch r {
			case 't':
				l.designator = true
			case 'y':
				l.hasYear = true
			}
			b.WriteString(goTok)
			i += n

		default:
			if err := writeLiteral(&b, format, r); err != nil {
				return Layout{}, err
			}
			i++
		}
	}
	l.goLayout = b.String()
	return l, nil
}

// MustCompile is Compile that panics, for package level defaults
func MustCompile(format string) Layout {
	l, err := Compile(format)
	if err != nil {
		panic(err)
	}
	return l
}

// writeLiteral refuses characters Go would read as part of a reference token
func writeLiteral(b *strings.Builder, format string, r rune) error {
	if isLetter(r) || (r >= '0' && r <= '9') || r == '_' {
		return perr.InvalidArgf("date format %q: literal %q is not supported", format, r)
	}
	b.WriteRune(r)
	return nil
}

func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

// Source returns the format Layout was compiled from
func (l Layout) Source() string { return l.source }

// Go returns the equivalent Go reference layout
func (l Layout) Go() string { return l.goLayout }

// HasYear reports whether the format carries a year
func (l Layout) HasYear() bool { return l.hasYear }

var shortDesignator = regexp.MustCompile(`(\d)([AaPp])([^A-Za-z]|$)`)

// Normalize rewrites value so Go can read its designator: 09:00a -> 09:00AM
func (l Layout) Normalize(value string) string {
	value = strings.TrimSpace(value)
	if !l.designator {
		return value
	}
	return strings.ToUpper(shortDesignator.ReplaceAllString(value, "${1}${2}M${3}"))
}

// Parse reads value in loc
// without a year token the result carries year 0
func (l Layout) Parse(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(l.goLayout, l.Normalize(value), loc)
	if err != nil {
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeMalformedTime, "%q does not match %q", value, l.source)
	}
	return t, nil
}
