// Package domain holds the data shapes and ports of a shift sync run
package domain

import (
	"slices"
	"sync"
	"time"

	"shiftsync/internal/core/extract"
)

// RawMatch re-exports the extractor output shape
type RawMatch = extract.RawMatch

// ShiftRecord re-exports the builder output shape
type ShiftRecord = extract.ShiftRecord

// MessageFilter selects the schedule message
type MessageFilter struct {
	Sender string
	Label  string
	Query  string // extra search terms appended to from:<sender>
}

// MessageRef identifies a message found by a filter
type MessageRef struct {
	ID       string
	ThreadID string
}

// SourceMessage is the selected schedule message
type SourceMessage struct {
	ID      string
	RawBody []byte
}

// NewEvent is what gets inserted for one shift
type NewEvent struct {
	Summary string
	ColorID string
	Start   time.Time
	End     time.Time
}

// CalendarEvent is an event as stored remotely
type CalendarEvent struct {
	ID      string
	Summary string
	ColorID string
	Start   time.Time
	End     time.Time
}

// InsertedEventSet tracks ids created during one run, in insertion order
// safe for concurrent use
type InsertedEventSet struct {
	mu  sync.Mutex
	ids []string
}

// Add records id, duplicates are ignored
func (s *InsertedEventSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.ids, id) {
		s.ids = append(s.ids, id)
	}
}

// Len returns the number of tracked ids
func (s *InsertedEventSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns a copy of the tracked ids
func (s *InsertedEventSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Drain empties the set and returns what it held
func (s *InsertedEventSet) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.ids
	s.ids = nil
	return out
}

// RunOptions are the per execution switches
type RunOptions struct {
	DryRun bool
}

// RunReport summarises one execution
type RunReport struct {
	RunID          string
	MessageID      string
	DryRun         bool
	State          State
	StartedAt      time.Time
	FinishedAt     time.Time
	Records        int
	Inserted       int
	Skipped        int
	Malformed      int
	Failed         int
	RolledBack     int
	RollbackFailed int
	Error          string
}

// OK reports whether the run reached Done
func (r RunReport) OK() bool { return r.State == StateDone }

// ExportBatch is handed to an Exporter once records are extracted
type ExportBatch struct {
	RunID   string
	Summary string
	Records []ShiftRecord
}
