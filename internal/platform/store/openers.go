package store

import (
	"context"
	"time"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/store/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	openPool     = pg.Open
	backoffStart = 150 * time.Millisecond
	backoffCeil  = 2 * time.Second
)

// openPG opens the pool, pings it with backoff and wraps it with the sql adapter
func openPG(ctx context.Context, appName string, cfg PGConfig, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	var mut func(*pgxpool.Config)
	if appName != "" {
		mut = func(pc *pgxpool.Config) { pc.ConnConfig.RuntimeParams["application_name"] = appName }
	}

	p, err := openPool(ctx, pg.Config{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		SlowMs:   cfg.SlowQueryMs,
	}, tracer, mut)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "open postgres pool")
	}

	var lastErr error
	backoff := backoffStart
	for range cfg.retries() {
		toCtx, cancel := context.WithTimeout(ctx, cfg.pingTimeout())
		lastErr = p.Ping(toCtx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}

		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffCeil)
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", cfg.retries())
}
