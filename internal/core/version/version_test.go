package version

import (
	"bytes"
	"testing"

	kit "shiftsync/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestInfo_Defaults(t *testing.T) {
	bi := Info()
	if bi.Service != "shiftsync" || bi.Version != "dev" || bi.Commit != "none" {
		t.Fatalf("Info() = %+v", bi)
	}
}

func TestInfo_LogsAsObject(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	log.Info().Object("build", Info()).Msg("begin log")
	kit.MustContain(t, buf.String(), `"build":{"service":"shiftsync","version":"dev"`)
}
