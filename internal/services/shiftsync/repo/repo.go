// Package repo provides the postgres run journal
package repo

import (
	"context"

	"shiftsync/internal/modkit/repokit"
	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/store"
	pstrings "shiftsync/internal/platform/strings"
	ptime "shiftsync/internal/platform/time"
	"shiftsync/internal/services/shiftsync/domain"
)

// Schema creates the journal tables when missing
const Schema = `
CREATE TABLE IF NOT EXISTS shiftsync_runs (
	run_id          text PRIMARY KEY,
	message_id      text NOT NULL DEFAULT '',
	dry_run         boolean NOT NULL DEFAULT false,
	state           text NOT NULL,
	started_at      timestamptz NOT NULL,
	finished_at     timestamptz,
	records         integer NOT NULL DEFAULT 0,
	inserted        integer NOT NULL DEFAULT 0,
	skipped         integer NOT NULL DEFAULT 0,
	malformed       integer NOT NULL DEFAULT 0,
	failed          integer NOT NULL DEFAULT 0,
	rolled_back     integer NOT NULL DEFAULT 0,
	rollback_failed integer NOT NULL DEFAULT 0,
	error           text
);
CREATE TABLE IF NOT EXISTS shiftsync_events (
	run_id      text NOT NULL REFERENCES shiftsync_runs (run_id) ON DELETE CASCADE,
	event_id    text NOT NULL,
	summary     text NOT NULL,
	starts_at   timestamptz NOT NULL,
	ends_at     timestamptz NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	deleted_at  timestamptz,
	PRIMARY KEY (run_id, event_id)
);
`

type (
	// PG is a Postgres binder for domain.JournalRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.JournalRepo
func NewPG() repokit.Binder[domain.JournalRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.JournalRepo { return &queries{q: q} }

// UpsertRun writes the run row, replacing counters on every call
func (r *queries) UpsertRun(ctx context.Context, rep domain.RunReport) error {
	_, err := store.Exec(ctx, r.q, `
		INSERT INTO shiftsync_runs (
			run_id, message_id, dry_run, state, started_at, finished_at,
			records, inserted, skipped, malformed, failed, rolled_back, rollback_failed, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_id) DO UPDATE SET
			message_id = EXCLUDED.message_id,
			state = EXCLUDED.state,
			finished_at = EXCLUDED.finished_at,
			records = EXCLUDED.records,
			inserted = EXCLUDED.inserted,
			skipped = EXCLUDED.skipped,
			malformed = EXCLUDED.malformed,
			failed = EXCLUDED.failed,
			rolled_back = EXCLUDED.rolled_back,
			rollback_failed = EXCLUDED.rollback_failed,
			error = EXCLUDED.error
	`,
		rep.RunID, rep.MessageID, rep.DryRun, rep.State.String(), rep.StartedAt, ptime.SQLNull(rep.FinishedAt),
		rep.Records, rep.Inserted, rep.Skipped, rep.Malformed, rep.Failed, rep.RolledBack, rep.RollbackFailed, pstrings.SQLNull(rep.Error),
	)
	return perr.FromPostgresf(err, "upsert run %s", rep.RunID)
}

// InsertEvent remembers an event created by runID, replays are ignored
func (r *queries) InsertEvent(ctx context.Context, runID string, ev domain.CalendarEvent) error {
	_, err := store.Exec(ctx, r.q, `
		INSERT INTO shiftsync_events (run_id, event_id, summary, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, event_id) DO NOTHING
	`, runID, ev.ID, ev.Summary, ev.Start, ev.End)
	return perr.FromPostgresf(err, "insert event %s", ev.ID)
}

// MarkEventDeleted stamps deleted_at once
// an event that was never journaled, or is already stamped, is NotFound
func (r *queries) MarkEventDeleted(ctx context.Context, runID, eventID string) error {
	err := store.ExecOne(ctx, r.q, `
		UPDATE shiftsync_events SET deleted_at = now()
		WHERE run_id = $1 AND event_id = $2 AND deleted_at IS NULL
	`, runID, eventID)
	switch {
	case err == nil:
		return nil
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeNotFound, "mark event %s of run %s deleted", eventID, runID), "event_id")
	default:
		return perr.FromPostgresf(err, "mark event %s deleted", eventID)
	}
}

// EnsureSchema applies Schema
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	_, err := q.Exec(ctx, Schema)
	return perr.FromPostgres(err, "ensure journal schema")
}
