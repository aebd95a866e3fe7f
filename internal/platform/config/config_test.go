package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kit "shiftsync/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	app := root.Prefix("SHIFTSYNC_")
	if got := app.key("CALENDAR_ID"); got != "SHIFTSYNC_CALENDAR_ID" {
		t.Fatalf("key() = %q, want %q", got, "SHIFTSYNC_CALENDAR_ID")
	}
	nested := app.Prefix("PG_")
	if got := nested.key("URL"); got != "SHIFTSYNC_PG_URL" {
		t.Fatalf("nested key() = %q", got)
	}
}

func TestMustStringAndRequire(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  shiftsync ")
	if got := c.MustString("NAME"); got != "shiftsync" {
		t.Fatalf("MustString = %q, want shiftsync", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })

	t.Setenv("APP_A", "x")
	c.Require("A", "NAME")
	kit.MustPanic(t, func() { c.Require("A", "C") })

	t.Setenv("APP_WS", "   ")
	kit.MustPanic(t, func() { c.Require("WS") })
	if c.Has("WS") || !c.Has("A") {
		t.Fatalf("Has mismatch")
	}
}

func TestMayStringAndRaw(t *testing.T) {
	c := New().Prefix("S_")
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	t.Setenv("S_PATTERN", `(?<date>\d{2}) `)
	if got := c.MayString("PATTERN", ""); got != `(?<date>\d{2})` {
		t.Fatalf("MayString should trim, got %q", got)
	}
	if got := c.MayRaw("PATTERN", ""); got != `(?<date>\d{2}) ` {
		t.Fatalf("MayRaw should keep whitespace, got %q", got)
	}
	if got := c.MayRaw("MISSING", "d"); got != "d" {
		t.Fatalf("MayRaw default = %q", got)
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("I_")
	if got := c.MayInt("MISSING", 9); got != 9 {
		t.Fatalf("MayInt default = %d, want 9", got)
	}
	t.Setenv("I_OK", " 7 ")
	if got := c.MayInt("OK", 0); got != 7 {
		t.Fatalf("MayInt ok = %d, want 7", got)
	}
	t.Setenv("I_BAD", "x")
	if got := c.MayInt("BAD", 3); got != 3 {
		t.Fatalf("MayInt bad -> default = %d, want 3", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("B_")
	if !c.MayBool("MISSING", true) {
		t.Fatalf("MayBool default true expected")
	}
	t.Setenv("B_T", "true")
	if !c.MayBool("T", false) {
		t.Fatalf("MayBool true expected")
	}
	t.Setenv("B_BAD", "nope")
	if c.MayBool("BAD", false) {
		t.Fatalf("MayBool bad -> default false expected")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("DUR_")
	if got := c.MayDuration("MISS", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration default expected")
	}
	t.Setenv("DUR_OK", "150ms")
	if got := c.MayDuration("OK", time.Second); got != 150*time.Millisecond {
		t.Fatalf("MayDuration ok = %v", got)
	}
	t.Setenv("DUR_BAD", "nope")
	if got := c.MayDuration("BAD", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration bad -> default expected")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	def := []string{"a", "b"}
	if got := c.MayCSV("MISS", def); len(got) != 2 || got[0] != "a" {
		t.Fatalf("MayCSV default mismatch: %#v", got)
	}
	t.Setenv("CSV_VALS", " one, two , ,three ,, ")
	got := c.MayCSV("VALS", nil)
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	t.Setenv("CSV_EMPTY", " , ,  ,")
	if got := c.MayCSV("EMPTY", []string{"fallback"}); len(got) != 1 || got[0] != "fallback" {
		t.Fatalf("MayCSV all-empty -> default mismatch: %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("E_")
	t.Setenv("E_FMT", "JSON")
	if got := c.MayEnum("FMT", "console", "json", "console"); got != "JSON" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("MISSING", "", "json"); got != "" {
		t.Fatalf("MayEnum empty default = %q", got)
	}
	t.Setenv("E_BAD", "xml")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "json", "json", "console") })
}

func TestMayPath(t *testing.T) {
	c := New().Prefix("P_")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	t.Setenv("P_TOKEN", "~/.credentials/shiftsync.json")
	if got, want := c.MayPath("TOKEN", ""), filepath.Join(home, ".credentials", "shiftsync.json"); got != want {
		t.Fatalf("MayPath = %q, want %q", got, want)
	}
	if got := c.MayPath("MISSING", ""); got != "" {
		t.Fatalf("MayPath empty default = %q", got)
	}
	if got := c.MayPath("MISSING", "a//b/"); got != "a/b" {
		t.Fatalf("MayPath should clean, got %q", got)
	}
}

func TestMayLocation(t *testing.T) {
	c := New().Prefix("TZ_")
	if got := c.MayLocation("MISSING", time.UTC); got != time.UTC {
		t.Fatalf("MayLocation default = %v", got)
	}
	t.Setenv("TZ_LOCAL", "Local")
	if got := c.MayLocation("LOCAL", time.UTC); got != time.Local {
		t.Fatalf("MayLocation local = %v", got)
	}
	t.Setenv("TZ_UTC", "UTC")
	if got := c.MayLocation("UTC", time.Local); got.String() != "UTC" {
		t.Fatalf("MayLocation UTC = %v", got)
	}
	t.Setenv("TZ_BAD", "Not/AZone")
	if got := c.MayLocation("BAD", time.UTC); got != time.UTC {
		t.Fatalf("MayLocation bad -> default = %v", got)
	}
}
