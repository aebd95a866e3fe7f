// Package service runs one shift sync: find the schedule message, extract
// shifts, insert the missing ones and archive the message
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"
	"shiftsync/internal/services/shiftsync/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config holds the per deployment settings of the sync
type Config struct {
	CalendarID string
	Filter     domain.MessageFilter
	Summary    string
	ColorID    string

	// Workers bounds concurrent per-record calls; <=0 -> 1
	Workers int

	// ArchiveOnDryRun archives the message even on a dry run, which makes it irreversible
	ArchiveOnDryRun bool

	// RollbackTimeout bounds dry-run cleanup, which ignores cancellation; <=0 -> 1m
	RollbackTimeout time.Duration
}

// Service implements domain.RunnerPort
type Service struct {
	Messages domain.MessageStore
	Events   domain.EventStore
	Sink     domain.StatusSink
	Extract  domain.Extractor
	Build    domain.RecordBuilder
	Cfg      Config

	// optional
	Journal  domain.Journal
	Exporter domain.Exporter

	// Now is the clock used for year inference
	Now func() time.Time
}

// New constructs the service
func New(
	msgs domain.MessageStore,
	events domain.EventStore,
	sink domain.StatusSink,
	ex domain.Extractor,
	b domain.RecordBuilder,
	cfg Config,
) *Service {
	if msgs == nil || events == nil {
		panic("shiftsync.Service requires message and event gateways")
	}
	if ex == nil || b == nil {
		panic("shiftsync.Service requires an extractor and a record builder")
	}
	if sink == nil {
		sink = NopSink{}
	}
	cfg.Workers = max(cfg.Workers, 1)
	if cfg.RollbackTimeout <= 0 {
		cfg.RollbackTimeout = time.Minute
	}
	return &Service{
		Messages: msgs, Events: events, Sink: sink,
		Extract: ex, Build: b,
		Cfg: cfg,
		Now: time.Now,
	}
}

// WithJournal wires an optional run journal
func (s *Service) WithJournal(j domain.Journal) *Service {
	s.Journal = j
	return s
}

// WithExporter wires an optional record exporter
func (s *Service) WithExporter(e domain.Exporter) *Service {
	s.Exporter = e
	return s
}

// run is the state of one execution
type run struct {
	id       string
	s        *Service
	opt      domain.RunOptions
	mu       sync.Mutex
	rep      domain.RunReport
	inserted domain.InsertedEventSet
}

// Run executes the state machine once
// the error is non-nil only when the run halted, per-record problems land in the report
func (s *Service) Run(ctx context.Context, opt domain.RunOptions) (domain.RunReport, error) {
	runID := logger.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logger.WithRun(ctx, runID)
	}
	r := &run{
		id:  runID,
		s:   s,
		opt: opt,
		rep: domain.RunReport{RunID: runID, DryRun: opt.DryRun, State: domain.StateIdle, StartedAt: s.Now()},
	}

	mode := "sync"
	if opt.DryRun {
		mode = "TEST RUN"
	}
	r.notify(ctx, domain.LevelInfo, "begin run", nil, "mode", mode, "started_at", r.rep.StartedAt.Format(time.RFC3339))
	r.journal(ctx, "start run", func(j domain.Journal) error { return j.StartRun(ctx, r.report()) })

	err := r.execute(ctx)
	haltedAt := r.settle(ctx, err)
	if opt.DryRun {
		r.rollback(ctx)
	}
	r.finish(ctx, err, haltedAt)
	return r.report(), err
}

func (r *run) execute(ctx context.Context) error {
	s := r.s

	r.enter(ctx, domain.StateQuerying)
	refs, err := s.Messages.Find(ctx, s.Cfg.Filter)
	if err != nil {
		return unavailable(err, "query messages")
	}

	r.enter(ctx, domain.StateSelecting)
	msgID, err := selectOne(refs, s.Cfg.Filter)
	if err != nil {
		return err
	}
	r.update(func(rep *domain.RunReport) { rep.MessageID = msgID })
	r.notify(ctx, domain.LevelInfo, "schedule message selected", nil, "message_id", msgID)

	r.enter(ctx, domain.StateExtracting)
	body, err := s.Messages.FetchBody(ctx, msgID)
	if err != nil {
		return unavailable(err, "fetch message body")
	}
	records, err := r.extract(ctx, domain.SourceMessage{ID: msgID, RawBody: body})
	if err != nil {
		return err
	}
	r.export(ctx, records)

	r.enter(ctx, domain.StateSynchronizing)
	var g errgroup.Group
	g.SetLimit(s.Cfg.Workers)
	for _, rec := range records {
		g.Go(func() error {
			r.syncOne(ctx, rec)
			return nil
		})
	}

	// every record task is launched at this point, some may still be in flight
	archiveErr := r.archive(ctx, msgID)
	_ = g.Wait()
	return archiveErr
}

// selectOne enforces that the filter matched exactly one message
func selectOne(refs []domain.MessageRef, f domain.MessageFilter) (string, error) {
	switch len(refs) {
	case 0:
		return "", perr.NoSourcef("no message from %q under %q", f.Sender, f.Label)
	case 1:
		return refs[0].ID, nil
	default:
		ids := make([]string, len(refs))
		for i, ref := range refs {
			ids[i] = ref.ID
		}
		return "", perr.Ambiguousf("%d messages match from %q: %s", len(refs), f.Sender, strings.Join(ids, ", "))
	}
}

// extract walks every match, dropping and reporting the malformed ones
func (r *run) extract(ctx context.Context, msg domain.SourceMessage) ([]domain.ShiftRecord, error) {
	now := r.s.Now()
	var out []domain.ShiftRecord
	for raw, err := range r.s.Extract.Matches(string(msg.RawBody)) {
		if err != nil {
			return nil, perr.WithOp(err, "extract")
		}
		rec, err := r.s.Build.Build(raw, now)
		if err != nil {
			r.update(func(rep *domain.RunReport) { rep.Malformed++ })
			r.notify(ctx, domain.LevelWarn, "malformed schedule row skipped", err,
				"date", raw.DatePart, "in", raw.InPart, "out", raw.OutPart)
			continue
		}
		out = append(out, rec)
	}
	r.update(func(rep *domain.RunReport) { rep.Records = len(out) })
	r.notify(ctx, domain.LevelInfo, "schedule extracted", nil, "records", len(out))
	return out, nil
}

func (r *run) export(ctx context.Context, records []domain.ShiftRecord) {
	if r.s.Exporter == nil {
		return
	}
	err := r.s.Exporter.Export(ctx, domain.ExportBatch{RunID: r.id, Summary: r.s.Cfg.Summary, Records: records})
	if err != nil {
		r.notify(ctx, domain.LevelWarn, "export failed", err)
	}
}

// syncOne inserts rec unless a generated event already starts there
func (r *run) syncOne(ctx context.Context, rec domain.ShiftRecord) {
	s := r.s
	window := describe(rec)

	exists, err := s.Events.ExistsNear(ctx, s.Cfg.CalendarID, rec.Start)
	if err != nil {
		r.update(func(rep *domain.RunReport) { rep.Failed++ })
		r.notify(ctx, domain.LevelError, "duplicate check failed", unavailable(err, "check existing event"), "shift", window)
		return
	}
	if exists {
		r.update(func(rep *domain.RunReport) { rep.Skipped++ })
		r.notify(ctx, domain.LevelInfo, "event already exists", nil, "shift", window)
		return
	}

	ev, err := s.Events.Insert(ctx, s.Cfg.CalendarID, domain.NewEvent{
		Summary: s.Cfg.Summary,
		ColorID: s.Cfg.ColorID,
		Start:   rec.Start,
		End:     rec.End,
	})
	if err != nil {
		r.update(func(rep *domain.RunReport) { rep.Failed++ })
		r.notify(ctx, domain.LevelError, "insert failed", unavailable(err, "insert event"), "shift", window)
		return
	}

	r.inserted.Add(ev.ID)
	r.update(func(rep *domain.RunReport) { rep.Inserted++ })
	r.notify(ctx, domain.LevelInfo, "created event '"+s.Cfg.Summary+" "+window+"'", nil, "event_id", ev.ID)
	r.journal(ctx, "record event", func(j domain.Journal) error { return j.RecordEvent(ctx, r.id, ev) })
}

// archive removes the message from its label unless this is a reversible dry run
func (r *run) archive(ctx context.Context, msgID string) error {
	r.enter(ctx, domain.StateArchiving)
	if r.opt.DryRun && !r.s.Cfg.ArchiveOnDryRun {
		r.notify(ctx, domain.LevelInfo, "dry run leaves the message in place", nil, "message_id", msgID)
		return nil
	}
	if err := r.s.Messages.MarkProcessed(ctx, msgID); err != nil {
		return unavailable(err, "archive message")
	}
	r.notify(ctx, domain.LevelInfo, "message archived", nil, "message_id", msgID)
	return nil
}

// rollback deletes every id inserted this run exactly once, after the run settled
// failures are reported and counted, the set always ends empty
func (r *run) rollback(ctx context.Context) {
	ids := r.inserted.Drain()
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.s.Cfg.RollbackTimeout)
	defer cancel()

	for _, id := range ids {
		if err := r.s.Events.Delete(ctx, r.s.Cfg.CalendarID, id); err != nil {
			r.update(func(rep *domain.RunReport) { rep.RollbackFailed++ })
			r.notify(ctx, domain.LevelError, "rollback delete failed",
				perr.Wrapf(err, perr.ErrorCodeDeleteFailed, "delete event %s", id), "event_id", id)
			continue
		}
		r.update(func(rep *domain.RunReport) { rep.RolledBack++ })
		r.notify(ctx, domain.LevelInfo, "rolled back event", nil, "event_id", id)
		r.journal(ctx, "forget event", func(j domain.Journal) error { return j.ForgetEvent(ctx, r.id, id) })
	}
}

// settle moves the run to its terminal state and returns the stage it left
func (r *run) settle(ctx context.Context, err error) domain.State {
	from := r.report().State
	if err != nil {
		r.update(func(rep *domain.RunReport) { rep.Error = err.Error() })
		r.enter(ctx, domain.StateErrorHalt)
		return from
	}
	r.enter(ctx, domain.StateDone)
	return from
}

func (r *run) finish(ctx context.Context, err error, haltedAt domain.State) {
	r.update(func(rep *domain.RunReport) { rep.FinishedAt = r.s.Now() })

	rep := r.report()
	if err != nil {
		r.notify(ctx, domain.LevelError, "run halted", err, "halted_at", haltedAt.String())
	} else {
		r.notify(ctx, domain.LevelInfo, "run finished", nil,
			"records", rep.Records, "inserted", rep.Inserted, "skipped", rep.Skipped,
			"malformed", rep.Malformed, "failed", rep.Failed,
			"rolled_back", rep.RolledBack, "rollback_failed", rep.RollbackFailed)
	}
	ctx = context.WithoutCancel(ctx)
	r.journal(ctx, "finish run", func(j domain.Journal) error { return j.FinishRun(ctx, rep) })
}

func (r *run) enter(ctx context.Context, st domain.State) {
	r.update(func(rep *domain.RunReport) { rep.State = st })
	r.s.Sink.Notify(ctx, domain.Status{Level: domain.LevelDebug, Stage: st, Message: "enter " + st.String()})
}

func (r *run) update(fn func(*domain.RunReport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.rep)
}

func (r *run) report() domain.RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rep
}

// notify sends a status at the current stage, kv alternates key and value
func (r *run) notify(ctx context.Context, lvl domain.Level, msg string, err error, kv ...any) {
	var fields map[string]any
	if len(kv) > 1 {
		fields = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				fields[k] = kv[i+1]
			}
		}
	}
	r.s.Sink.Notify(ctx, domain.Status{
		Level:   lvl,
		Stage:   r.report().State,
		Message: msg,
		Fields:  fields,
		Err:     err,
	})
}

// journal runs fn against the optional journal, failures never reach the run
func (r *run) journal(ctx context.Context, what string, fn func(domain.Journal) error) {
	if r.s.Journal == nil {
		return
	}
	if err := fn(r.s.Journal); err != nil {
		r.notify(ctx, domain.LevelWarn, "journal "+what+" failed", err)
	}
}

// unavailable classifies an uncoded gateway error
func unavailable(err error, op string) error {
	if _, ok := perr.As(err); ok {
		return perr.WithOp(err, op)
	}
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, op), op)
}

// describe renders "03/10/2025 09:00 AM-05:00 PM"
func describe(rec domain.ShiftRecord) string {
	return rec.Start.Format("01/02/2006 03:04 PM") + "-" + rec.End.Format("03:04 PM")
}
