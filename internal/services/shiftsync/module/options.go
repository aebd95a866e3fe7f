package module

import (
	"time"

	"shiftsync/internal/core/extract"
	"shiftsync/internal/platform/config"
)

// Options holds configuration for the shiftsync module
// env tags name the variable in validation messages
type Options struct {
	CalendarID string `env:"SHIFTSYNC_CALENDAR_ID" validate:"nonblank"`
	UserID     string `env:"SHIFTSYNC_USER_ID" validate:"nonblank"`
	Sender     string `env:"SHIFTSYNC_SENDER" validate:"nonblank"`
	Label      string `env:"SHIFTSYNC_LABEL" validate:"nonblank"`
	Query      string `env:"SHIFTSYNC_QUERY"`

	Pattern      string        `env:"SHIFTSYNC_PATTERN" validate:"nonblank"`
	MatchTimeout time.Duration `env:"SHIFTSYNC_MATCH_TIMEOUT" validate:"min=0"`
	DateFormat   string        `env:"SHIFTSYNC_DATE_FORMAT" validate:"nonblank,layout"`

	Summary  string         `env:"SHIFTSYNC_SUMMARY" validate:"nonblank"`
	ColorID  string         `env:"SHIFTSYNC_COLOR_ID" validate:"omitempty,numeric"`
	Workers  int            `env:"SHIFTSYNC_WORKERS" validate:"min=1,max=32"`
	Location *time.Location `env:"SHIFTSYNC_TIMEZONE" validate:"required"`

	ArchiveOnDryRun bool          `env:"SHIFTSYNC_ARCHIVE_ON_DRY_RUN"`
	RollbackTimeout time.Duration `env:"SHIFTSYNC_ROLLBACK_TIMEOUT" validate:"min=0"`

	// edge wiring, consumed by main
	ICSOut       string `env:"SHIFTSYNC_ICS_OUT"`
	Profile      string `env:"SHIFTSYNC_PROFILE"`
	ClientSecret string `env:"SHIFTSYNC_CLIENT_SECRET" validate:"nonblank"`
	TokenPath    string `env:"SHIFTSYNC_TOKEN_PATH" validate:"nonblank"`
}

// FromConfig reads the shiftsync options from config with SHIFTSYNC_ prefix
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("SHIFTSYNC_")
	return Options{
		CalendarID: sc.MayString("CALENDAR_ID", "primary"),
		UserID:     sc.MayString("USER_ID", "me"),
		Sender:     sc.MayString("SENDER", ""),
		Label:      sc.MayString("LABEL", "INBOX"),
		Query:      sc.MayString("QUERY", ""),

		Pattern:      sc.MayRaw("PATTERN", extract.DefaultPattern),
		MatchTimeout: sc.MayDuration("MATCH_TIMEOUT", extract.DefaultMatchTimeout),
		DateFormat:   sc.MayRaw("DATE_FORMAT", extract.DefaultDateFormat),

		Summary:  sc.MayString("SUMMARY", "Work"),
		ColorID:  sc.MayString("COLOR_ID", "2"),
		Workers:  sc.MayInt("WORKERS", 4),
		Location: sc.MayLocation("TIMEZONE", time.Local),

		ArchiveOnDryRun: sc.MayBool("ARCHIVE_ON_DRY_RUN", false),
		RollbackTimeout: sc.MayDuration("ROLLBACK_TIMEOUT", time.Minute),

		ICSOut:       sc.MayPath("ICS_OUT", ""),
		Profile:      sc.MayPath("PROFILE", ""),
		ClientSecret: sc.MayPath("CLIENT_SECRET", "client_secret.json"),
		TokenPath:    sc.MayPath("TOKEN_PATH", "~/.credentials/shiftsync.json"),
	}
}
