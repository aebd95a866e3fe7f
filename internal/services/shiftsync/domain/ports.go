package domain

import (
	"context"
	"iter"
	"time"
)

// RunnerPort is the public port of the module
type RunnerPort interface {
	Run(ctx context.Context, opt RunOptions) (RunReport, error)
}

// MessageStore finds, reads and archives the schedule message
type MessageStore interface {
	// Find lists every message matching f
	Find(ctx context.Context, f MessageFilter) ([]MessageRef, error)

	// FetchBody returns the decoded text body of a message
	FetchBody(ctx context.Context, id string) ([]byte, error)

	// MarkProcessed removes the message from the filtered label
	MarkProcessed(ctx context.Context, id string) error
}

// EventStore is the remote calendar
type EventStore interface {
	// ExistsNear reports whether a generated event already starts at start
	ExistsNear(ctx context.Context, calendarID string, start time.Time) (bool, error)

	// Insert always creates a new event
	Insert(ctx context.Context, calendarID string, ev NewEvent) (CalendarEvent, error)

	// Delete removes an event, an already missing one counts as removed
	Delete(ctx context.Context, calendarID, eventID string) error
}

// StatusSink receives progress and failures
type StatusSink interface {
	Notify(ctx context.Context, st Status)
}

// Extractor finds raw matches in a body
type Extractor interface {
	Matches(body string) iter.Seq2[RawMatch, error]
}

// RecordBuilder turns a raw match into a shift
type RecordBuilder interface {
	Build(raw RawMatch, now time.Time) (ShiftRecord, error)
}

// Journal persists run history, optional
type Journal interface {
	StartRun(ctx context.Context, rep RunReport) error
	RecordEvent(ctx context.Context, runID string, ev CalendarEvent) error
	ForgetEvent(ctx context.Context, runID, eventID string) error
	FinishRun(ctx context.Context, rep RunReport) error
}

// JournalRepo is the storage surface behind a Journal
type JournalRepo interface {
	UpsertRun(ctx context.Context, rep RunReport) error
	InsertEvent(ctx context.Context, runID string, ev CalendarEvent) error
	MarkEventDeleted(ctx context.Context, runID, eventID string) error
}

// Exporter writes the extracted records somewhere else, optional
type Exporter interface {
	Export(ctx context.Context, b ExportBatch) error
}

// Gateways bundles the edge adapters built in main and injected into the module
type Gateways struct {
	Messages MessageStore
	Events   EventStore
	Sink     StatusSink
	Exporter Exporter
}
