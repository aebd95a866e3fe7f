package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"shiftsync/internal/adapters/gcal"
	"shiftsync/internal/adapters/gmail"
	"shiftsync/internal/adapters/google/auth"
	"shiftsync/internal/adapters/icsout"
	"shiftsync/internal/core/version"
	"shiftsync/internal/modkit"
	"shiftsync/internal/modkit/module"
	"shiftsync/internal/platform/config"
	"shiftsync/internal/platform/logger"
	"shiftsync/internal/platform/store"
	"shiftsync/internal/services/shiftsync/domain"
	"shiftsync/internal/services/shiftsync/repo"

	shiftmod "shiftsync/internal/services/shiftsync/module"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	os.Exit(run())
}

// cliFlags holds the command line switches
type cliFlags struct {
	test   bool
	reauth bool
	creds  string
	cron   string
	ics    string
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("shiftsync", flag.ContinueOnError)
	fs.BoolVar(&f.test, "t", false, "test run: roll back every inserted event and leave the message in place")
	fs.BoolVar(&f.reauth, "a", false, "drop the cached token and authorise again")
	fs.StringVar(&f.creds, "p", "", "token cache path (overrides SHIFTSYNC_TOKEN_PATH)")
	fs.StringVar(&f.cron, "cron", "", "watch mode: sync on this cron schedule until interrupted, otherwise sync once")
	fs.StringVar(&f.ics, "ics-out", "", "also write the extracted shifts to this .ics file")
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	return f, nil
}

func run() int {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	l := logger.Get()
	l.Info().Object("build", version.Info()).Msg("begin log")

	opts, err := shiftmod.Load(root)
	if err != nil {
		l.Error().Err(err).Msg("load options")
		return 2
	}
	if f.creds != "" {
		opts.TokenPath = config.ExpandHome(f.creds)
	}
	if f.ics != "" {
		opts.ICSOut = config.ExpandHome(f.ics)
	}

	// optional run journal
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	st, err := store.Open(ctx, store.Config{
		AppName: "shiftsync",
		PG: store.PGConfig{
			Enabled:     pgCfg.Has("DBURL"),
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return 2
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if st.Enabled() {
		if err := st.Guard(ctx); err != nil {
			l.Error().Err(err).Msg("run journal unreachable")
			return 2
		}
		if err := repo.NewJournal(st.PG).Prepare(ctx); err != nil {
			l.Error().Err(err).Msg("prepare run journal")
			return 2
		}
	}

	hc, err := auth.Client(ctx, auth.Options{
		SecretPath:  opts.ClientSecret,
		TokenPath:   opts.TokenPath,
		Reauthorize: f.reauth,
	})
	if err != nil {
		l.Error().Err(err).Msg("authorise")
		return 2
	}
	mailSvc, err := gm.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		l.Error().Err(err).Msg("gmail client")
		return 2
	}
	calSvc, err := calendar.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		l.Error().Err(err).Msg("calendar client")
		return 2
	}

	gw := domain.Gateways{
		Messages: gmail.New(mailSvc, gmail.WithUser(opts.UserID), gmail.WithLabel(opts.Label)),
		Events:   gcal.New(calSvc),
	}
	if opts.ICSOut != "" {
		gw.Exporter = icsout.New(opts.ICSOut)
	}

	deps := modkit.Deps{Log: *l, Cfg: root}
	if st.Enabled() {
		deps.PG = st.PG
	}
	m, err := shiftmod.NewFrom(deps, opts, modkit.WithPorts(gw))
	if err != nil {
		l.Error().Err(err).Msg("build shiftsync module")
		return 2
	}
	runner := module.MustPortsOf[shiftmod.Ports](m).Runner

	job := func(ctx context.Context) error {
		ctx = logger.WithRun(ctx, uuid.NewString())
		_, err := runner.Run(ctx, domain.RunOptions{DryRun: f.test})
		return err
	}

	if f.cron != "" {
		if err := watch(ctx, f.cron, job, *l); err != nil {
			l.Error().Err(err).Str("cron", f.cron).Msg("watch mode")
			return 2
		}
		return 0
	}
	if err := job(ctx); err != nil {
		return 1
	}
	return 0
}
