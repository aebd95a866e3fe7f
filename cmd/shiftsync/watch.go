package main

import (
	"context"

	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own logs through zerolog
type cronLogger struct{ l logger.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}

// watch runs job on spec until ctx ends; overlapping ticks are skipped
func watch(ctx context.Context, spec string, job func(context.Context) error, l logger.Logger) error {
	cl := cronLogger{l: l.With().Str("component", "cron").Logger()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			cl.l.Warn().Err(err).Msg("scheduled sync halted")
		}
	}); err != nil {
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse cron spec %q", spec), "cron")
	}

	c.Start()
	cl.l.Info().Str("spec", spec).Msg("watching")
	<-ctx.Done()
	<-c.Stop().Done()
	cl.l.Info().Msg("watch stopped")
	return nil
}
