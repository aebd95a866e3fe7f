package extract

import (
	"time"

	"shiftsync/internal/core/layout"
	perr "shiftsync/internal/platform/errors"
)

// DefaultDateFormat reads "03/10 09:00A"
const DefaultDateFormat = "MM/dd hh:mmt"

// ShiftRecord is one work shift with a concrete start and end
// start before end is not enforced
type ShiftRecord struct {
	Start time.Time
	End   time.Time
}

// Builder interprets RawMatch values with a date format and location
type Builder struct {
	layout layout.Layout
	loc    *time.Location
}

// NewBuilder compiles format, a nil loc means time.Local
func NewBuilder(format string, loc *time.Location) (*Builder, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	l, err := layout.Compile(format)
	if err != nil {
		return nil, perr.WithField(err, "date_format")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Builder{layout: l, loc: loc}, nil
}

// Location returns the zone records are built in
func (b *Builder) Location() *time.Location { return b.loc }

// Build turns raw into a ShiftRecord using now to infer the year
// a December run that reads a January start moves both times into next year,
// unless the format carries its own year
func (b *Builder) Build(raw RawMatch, now time.Time) (ShiftRecord, error) {
	start, err := b.at(raw.DatePart, raw.InPart, now.Year())
	if err != nil {
		return ShiftRecord{}, perr.WithField(err, "in")
	}
	end, err := b.at(raw.DatePart, raw.OutPart, now.Year())
	if err != nil {
		return ShiftRecord{}, perr.WithField(err, "out")
	}

	if !b.layout.HasYear() && now.Month() == time.December && start.Month() == time.January {
		start = start.AddDate(1, 0, 0)
		end = end.AddDate(1, 0, 0)
	}
	return ShiftRecord{Start: start, End: end}, nil
}

// at parses "date clock" and pins it to year unless the format has its own
func (b *Builder) at(date, clock string, year int) (time.Time, error) {
	t, err := b.layout.Parse(date+" "+clock, b.loc)
	if err != nil {
		return time.Time{}, err
	}
	if b.layout.HasYear() {
		year = t.Year()
	}
	out := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, b.loc)
	if out.Day() != t.Day() {
		return time.Time{}, perr.MalformedTimef("%s %s does not exist in %d", date, clock, year)
	}
	return out, nil
}
