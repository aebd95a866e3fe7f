// Package version reports the build stamped into the shiftsync binary
package version

import "github.com/rs/zerolog"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information, set at build time:
// -ldflags "-X 'shiftsync/internal/core/version.version=v0.1.0' -X 'shiftsync/internal/core/version.commit=abcd'"
func Info() BuildInfo {
	return BuildInfo{
		Service: "shiftsync",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// MarshalZerologObject lets the banner log the build as one object
func (b BuildInfo) MarshalZerologObject(e *zerolog.Event) {
	e.Str("service", b.Service).Str("version", b.Version).Str("commit", b.Commit).Str("date", b.Date)
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
