// Package extract pulls shift records out of a schedule message body
//
// An Extractor finds raw date/in/out triples with a configurable pattern and a
// Builder turns each triple into concrete start and end times. Both are pure
// and safe for concurrent use.
package extract

import (
	"iter"
	"slices"
	"time"

	perr "shiftsync/internal/platform/errors"

	"github.com/dlclark/regexp2"
)

// DefaultPattern matches one schedule row such as
//
//	03/10: 09:00A ... 05:00P ABC123\r
//
// the trailing lookahead anchors the row on its store code
const DefaultPattern = `(?<date>\d{2}\/\d{2}): (?<in>\d{2}:\d{2}\w)(?:.*?)(?<out>\d{2}:\d{2}\w)(?= \w{3}\d{3}\s?\r)`

// DefaultMatchTimeout bounds a single match attempt
const DefaultMatchTimeout = 2 * time.Second

// Required capture group names
const (
	GroupDate = "date"
	GroupIn   = "in"
	GroupOut  = "out"
)

// RawMatch is one pattern match before any time interpretation
type RawMatch struct {
	DatePart string
	InPart   string
	OutPart  string
}

// Extractor finds RawMatch values in a body
type Extractor struct {
	re *regexp2.Regexp
}

// New compiles pattern, which must name the date, in and out groups
// timeout <= 0 uses DefaultMatchTimeout
func New(pattern string, timeout time.Duration) (*Extractor, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "compile extraction pattern")
	}
	names := re.GetGroupNames()
	for _, g := range []string{GroupDate, GroupIn, GroupOut} {
		if !slices.Contains(names, g) {
			return nil, perr.WithField(perr.InvalidArgf("extraction pattern has no %q group", g), "pattern")
		}
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout
	return &Extractor{re: re}, nil
}

// Pattern returns the source pattern
func (e *Extractor) Pattern() string { return e.re.String() }

// Matches yields every match in body in order
// the sequence is lazy and each range over it starts again from the top
// a match error, typically a timeout, is yielded once and ends the sequence
func (e *Extractor) Matches(body string) iter.Seq2[RawMatch, error] {
	return func(yield func(RawMatch, error) bool) {
		m, err := e.re.FindStringMatch(body)
		for m != nil && err == nil {
			raw := RawMatch{
				DatePart: m.GroupByName(GroupDate).String(),
				InPart:   m.GroupByName(GroupIn).String(),
				OutPart:  m.GroupByName(GroupOut).String(),
			}
			if !yield(raw, nil) {
				return
			}
			m, err = e.re.FindNextMatch(m)
		}
		if err != nil {
			yield(RawMatch{}, perr.Wrap(err, perr.ErrorCodeUnknown, "extraction pattern match"))
		}
	}
}

// All collects Matches into a slice, stopping at the first error
func (e *Extractor) All(body string) ([]RawMatch, error) {
	var out []RawMatch
	for raw, err := range e.Matches(body) {
		if err != nil {
			return out, err
		}
		out = append(out, raw)
	}
	return out, nil
}
