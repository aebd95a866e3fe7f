// Package icsout writes the shifts of a run to an iCalendar file
package icsout

import (
	"context"
	"os"
	"path/filepath"
	"time"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"
	"shiftsync/internal/services/shiftsync/domain"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ProductID is stamped on every exported calendar
const ProductID = "-//shiftsync//schedule export//EN"

// namespace keeps UIDs stable for the same shift across exports
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shiftsync"))

// File implements domain.Exporter by rewriting one .ics file per run
type File struct {
	Path string
	Now  func() time.Time
}

// New returns a File exporter writing to path
func New(path string) *File {
	return &File{Path: path, Now: time.Now}
}

// Export renders b and swaps it into place
func (f *File) Export(ctx context.Context, b domain.ExportBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := Render(b, f.Now())
	if err := writeAtomic(f.Path, []byte(data)); err != nil {
		return perr.WithOp(err, "icsout.export")
	}
	logger.C(ctx).Info().Str("path", f.Path).Int("events", len(b.Records)).Msg("shifts exported")
	return nil
}

// Render builds the calendar text for b
func Render(b domain.ExportBatch, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, r := range b.Records {
		ev := cal.AddEvent(UID(r))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(r.Start)
		ev.SetEndAt(r.End)
		ev.SetSummary(b.Summary)
		if b.RunID != "" {
			ev.SetDescription("run " + b.RunID)
		}
	}
	return cal.Serialize()
}

// UID derives the event uid from the shift window
func UID(r domain.ShiftRecord) string {
	key := r.Start.UTC().Format(time.RFC3339) + "/" + r.End.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(namespace, []byte(key)).String() + "@shiftsync"
}

// writeAtomic replaces path with data via a temp file in the same directory
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "create export dir")
	}
	tmp, err := os.CreateTemp(dir, ".shiftsync-*.ics")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "create temp file")
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write temp file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "chmod temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "close temp file")
	}
	if err := os.Rename(name, path); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "rename export file")
	}
	return nil
}
