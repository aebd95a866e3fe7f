package module

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	perr "shiftsync/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// Profile is a yaml overlay for the settings that are awkward in env vars
// set fields win over the environment
type Profile struct {
	Pattern    string `yaml:"pattern"`
	DateFormat string `yaml:"date_format"`
	Summary    string `yaml:"summary"`
	ColorID    string `yaml:"color_id"`
	Sender     string `yaml:"sender"`
	Label      string `yaml:"label"`
	Query      string `yaml:"query"`
	CalendarID string `yaml:"calendar_id"`
	Timezone   string `yaml:"timezone"`
	Workers    int    `yaml:"workers"`
}

// LoadProfile reads a profile file, unknown keys are rejected
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "open profile"), "SHIFTSYNC_PROFILE")
	}
	defer f.Close()

	var p Profile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse profile %s", path), "SHIFTSYNC_PROFILE")
	}
	return p, nil
}

// Apply overlays the set fields of p onto o
func (p Profile) Apply(o Options) (Options, error) {
	// the pattern keeps its whitespace, block scalars add a trailing newline
	if s := strings.TrimRight(p.Pattern, "\r\n"); s != "" {
		o.Pattern = s
	}
	set(&o.DateFormat, p.DateFormat)
	set(&o.Summary, p.Summary)
	set(&o.ColorID, p.ColorID)
	set(&o.Sender, p.Sender)
	set(&o.Label, p.Label)
	set(&o.Query, p.Query)
	set(&o.CalendarID, p.CalendarID)
	if p.Workers > 0 {
		o.Workers = p.Workers
	}
	if tz := strings.TrimSpace(p.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return o, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "unknown timezone %q", tz), "timezone")
		}
		o.Location = loc
	}
	return o, nil
}

func set(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
