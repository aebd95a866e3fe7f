// Package modkit provides module wiring and core deps
package modkit

import (
	"shiftsync/internal/modkit/repokit"
	"shiftsync/internal/platform/config"
	"shiftsync/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// PG is nil when the run journal is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
}

// HasJournal reports whether a postgres seam was wired
func (d Deps) HasJournal() bool { return d.PG != nil }
