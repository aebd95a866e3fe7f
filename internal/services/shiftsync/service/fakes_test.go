package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shiftsync/internal/core/extract"
	"shiftsync/internal/services/shiftsync/domain"
)

type fakeMessages struct {
	mu         sync.Mutex
	refs       []domain.MessageRef
	body       string
	findErr    error
	fetchErr   error
	archiveErr error
	fetched    []string
	archived   []string
}

func (f *fakeMessages) Find(context.Context, domain.MessageFilter) ([]domain.MessageRef, error) {
	return f.refs, f.findErr
}

func (f *fakeMessages) FetchBody(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []byte(f.body), nil
}

func (f *fakeMessages) MarkProcessed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, id)
	return nil
}

// fakeCalendar keeps events in memory keyed by id
type fakeCalendar struct {
	mu         sync.Mutex
	seq        int
	events     map[string]domain.CalendarEvent
	existsErr  error
	failInsert map[time.Time]bool
	failDelete map[string]bool
	deletes    map[string]int
	inFlight   int
	maxFlight  int

	onInsert   func()
	deleteCtxs []error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:     map[string]domain.CalendarEvent{},
		failInsert: map[time.Time]bool{},
		failDelete: map[string]bool{},
		deletes:    map[string]int{},
	}
}

func (c *fakeCalendar) ExistsNear(_ context.Context, _ string, start time.Time) (bool, error) {
	c.mu.Lock()
	c.inFlight++
	c.maxFlight = max(c.maxFlight, c.inFlight)
	c.mu.Unlock()

	time.Sleep(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.existsErr != nil {
		return false, c.existsErr
	}
	for _, ev := range c.events {
		if ev.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCalendar) Insert(_ context.Context, _ string, ev domain.NewEvent) (domain.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failInsert[ev.Start] {
		return domain.CalendarEvent{}, errors.New("backend 503")
	}
	c.seq++
	out := domain.CalendarEvent{
		ID:      fmt.Sprintf("ev-%d", c.seq),
		Summary: ev.Summary,
		ColorID: ev.ColorID,
		Start:   ev.Start,
		End:     ev.End,
	}
	c.events[out.ID] = out
	if c.onInsert != nil {
		c.onInsert()
	}
	return out, nil
}

func (c *fakeCalendar) Delete(ctx context.Context, _ string, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes[id]++
	c.deleteCtxs = append(c.deleteCtxs, ctx.Err())
	if c.failDelete[id] {
		return errors.New("backend 500")
	}
	delete(c.events, id)
	return nil
}

func (c *fakeCalendar) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// recorder captures statuses
type recorder struct {
	mu       sync.Mutex
	statuses []domain.Status
}

func (r *recorder) Notify(_ context.Context, st domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *recorder) count(lvl domain.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, st := range r.statuses {
		if st.Level == lvl {
			n++
		}
	}
	return n
}

func (r *recorder) has(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.statuses {
		if st.Message == msg {
			return true
		}
	}
	return false
}

type fakeJournal struct {
	mu       sync.Mutex
	started  int
	recorded []string
	forgot   []string
	finished []domain.RunReport
	err      error
}

func (j *fakeJournal) StartRun(context.Context, domain.RunReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started++
	return j.err
}

func (j *fakeJournal) RecordEvent(_ context.Context, _ string, ev domain.CalendarEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recorded = append(j.recorded, ev.ID)
	return j.err
}

func (j *fakeJournal) ForgetEvent(_ context.Context, _ string, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.forgot = append(j.forgot, id)
	return j.err
}

func (j *fakeJournal) FinishRun(_ context.Context, rep domain.RunReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = append(j.finished, rep)
	return j.err
}

type fakeExporter struct {
	batches []domain.ExportBatch
	err     error
}

func (e *fakeExporter) Export(_ context.Context, b domain.ExportBatch) error {
	e.batches = append(e.batches, b)
	return e.err
}

func row(date, in, out string) string {
	return date + ": " + in + " Register " + out + " STR101\r\n"
}

type harness struct {
	svc  *Service
	msgs *fakeMessages
	cal  *fakeCalendar
	sink *recorder
}

func newHarness(t *testing.T, body string, now time.Time) *harness {
	t.Helper()

	ex, err := extract.New("", 0)
	if err != nil {
		t.Fatalf("extract.New: %v", err)
	}
	b, err := extract.NewBuilder("", time.UTC)
	if err != nil {
		t.Fatalf("extract.NewBuilder: %v", err)
	}

	h := &harness{
		msgs: &fakeMessages{refs: []domain.MessageRef{{ID: "msg-1"}}, body: body},
		cal:  newFakeCalendar(),
		sink: &recorder{},
	}
	h.svc = New(h.msgs, h.cal, h.sink, ex, b, Config{
		CalendarID: "primary",
		Filter:     domain.MessageFilter{Sender: "schedules@example.com", Label: "INBOX"},
		Summary:    "Work",
		ColorID:    "2",
		Workers:    3,
	})
	h.svc.Now = func() time.Time { return now }
	return h
}
