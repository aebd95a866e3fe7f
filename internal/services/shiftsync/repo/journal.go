package repo

import (
	"context"
	"time"

	"shiftsync/internal/modkit/repokit"
	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/services/shiftsync/domain"
)

// transient failures (serialization, deadlock) are retried a few times
var (
	attempts   = 3
	retryPause = 50 * time.Millisecond
)

// Journal implements domain.Journal on a TxRunner
type Journal struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.JournalRepo]
}

// NewJournal binds the Postgres repo to db
func NewJournal(db repokit.TxRunner) *Journal {
	if db == nil {
		panic("shiftsync journal requires a non nil TxRunner")
	}
	return &Journal{DB: db, Binder: NewPG()}
}

// Prepare creates the journal tables
func (j *Journal) Prepare(ctx context.Context) error {
	return repokit.WithTx(ctx, j.DB, func(q repokit.Queryer) error {
		return EnsureSchema(ctx, q)
	})
}

// StartRun implements domain.Journal
func (j *Journal) StartRun(ctx context.Context, rep domain.RunReport) error {
	return j.retry(ctx, func(r domain.JournalRepo) error { return r.UpsertRun(ctx, rep) })
}

// RecordEvent implements domain.Journal
func (j *Journal) RecordEvent(ctx context.Context, runID string, ev domain.CalendarEvent) error {
	return j.retry(ctx, func(r domain.JournalRepo) error { return r.InsertEvent(ctx, runID, ev) })
}

// ForgetEvent implements domain.Journal
func (j *Journal) ForgetEvent(ctx context.Context, runID, eventID string) error {
	return j.retry(ctx, func(r domain.JournalRepo) error { return r.MarkEventDeleted(ctx, runID, eventID) })
}

// FinishRun implements domain.Journal
func (j *Journal) FinishRun(ctx context.Context, rep domain.RunReport) error {
	return j.retry(ctx, func(r domain.JournalRepo) error { return r.UpsertRun(ctx, rep) })
}

// retry runs fn, repeating while the failure is retryable and ctx is alive
func (j *Journal) retry(ctx context.Context, fn func(domain.JournalRepo) error) error {
	var err error
	for i := range attempts {
		if err = fn(repokit.MustBind(j.Binder, j.DB)); err == nil || !perr.Retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(retryPause * time.Duration(i+1)):
		}
	}
	return err
}
