// Package module wires the shiftsync service from config and injected gateways
package module

import (
	"shiftsync/internal/core/extract"
	"shiftsync/internal/modkit"
	"shiftsync/internal/platform/config"
	perr "shiftsync/internal/platform/errors"
	"shiftsync/internal/platform/validate"
	"shiftsync/internal/services/shiftsync/domain"
	"shiftsync/internal/services/shiftsync/repo"
	"shiftsync/internal/services/shiftsync/service"
)

// Name is the registry key of the module
const Name = "shiftsync"

// Ports exposed by the shiftsync module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the shiftsync module
type Module struct {
	name  string
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// Load reads options from cfg and applies the profile overlay when one is configured
func Load(cfg config.Conf) (Options, error) {
	o := FromConfig(cfg)
	if o.Profile == "" {
		return o, nil
	}
	p, err := LoadProfile(o.Profile)
	if err != nil {
		return o, err
	}
	return p.Apply(o)
}

// New constructs the module from deps.Cfg
// gateways arrive through modkit.WithPorts(domain.Gateways{...})
func New(deps modkit.Deps, opts ...modkit.Option) (modkit.Module, error) {
	o, err := Load(deps.Cfg)
	if err != nil {
		return nil, err
	}
	m, err := NewFrom(deps, o, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewFrom constructs the module from already loaded options
func NewFrom(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	if err := validate.Struct(o); err != nil {
		return nil, err
	}

	b := modkit.Build(opts...)
	gw, ok := modkit.Injected[domain.Gateways](b)
	if !ok || gw.Messages == nil || gw.Events == nil {
		return nil, perr.InvalidArgf("shiftsync module requires message and event gateways")
	}

	ex, err := extract.New(o.Pattern, o.MatchTimeout)
	if err != nil {
		return nil, perr.WithField(err, "SHIFTSYNC_PATTERN")
	}
	bld, err := extract.NewBuilder(o.DateFormat, o.Location)
	if err != nil {
		return nil, perr.WithField(err, "SHIFTSYNC_DATE_FORMAT")
	}

	sink := gw.Sink
	if sink == nil {
		sink = service.NewLogSink(deps.Log)
	}

	svc := service.New(gw.Messages, gw.Events, sink, ex, bld, service.Config{
		CalendarID: o.CalendarID,
		Filter: domain.MessageFilter{
			Sender: o.Sender,
			Label:  o.Label,
			Query:  o.Query,
		},
		Summary:         o.Summary,
		ColorID:         o.ColorID,
		Workers:         o.Workers,
		ArchiveOnDryRun: o.ArchiveOnDryRun,
		RollbackTimeout: o.RollbackTimeout,
	})
	if deps.HasJournal() {
		svc.WithJournal(repo.NewJournal(deps.PG))
	}
	if gw.Exporter != nil {
		svc.WithExporter(gw.Exporter)
	}

	name := b.Name
	if name == "" {
		name = Name
	}
	return &Module{name: name, deps: deps, opts: o, ports: Ports{Runner: svc}}, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the validated options the module was built with
func (m *Module) Options() Options { return m.opts }

var _ modkit.Builder = New
