package layout

import (
	"testing"
	"time"

	perr "shiftsync/internal/platform/errors"
)

func TestCompile_Translates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"MM/dd hh:mmt", "01/02 03:04PM"},
		{"MM/dd hh:mmtt", "01/02 03:04PM"},
		{"M/d h:mm tt", "1/2 3:04 PM"},
		{"yyyy-MM-dd HH:mm:ss", "2006-01-02 15:04:05"},
		{"ddd, MMM d H:mm", "Mon, Jan 2 15:04"},
		{"dd.MM 'at' HH:mm", ""},
		{`MM/dd\, HH:mm`, "01/02, 15:04"},
	}
	for _, c := range cases {
		l, err := Compile(c.in)
		if c.want == "" {
			if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
				t.Fatalf("Compile(%q) err = %v, want InvalidArgument", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Compile(%q): %v", c.in, err)
		}
		if l.Go() != c.want {
			t.Fatalf("Compile(%q).Go() = %q, want %q", c.in, l.Go(), c.want)
		}
		if l.Source() != c.in {
			t.Fatalf("Source() = %q", l.Source())
		}
	}
}

func TestCompile_Rejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "MM/dd q", "MM/dd 'open", `MM/dd\`, "MM/dd 2", "MM_dd", "MMMMM"} {
		if _, err := Compile(in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("Compile(%q) err = %v, want InvalidArgument", in, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	l := MustCompile("MM/dd hh:mmt")
	cases := map[string]string{
		"03/10 09:00A":   "03/10 09:00AM",
		"03/10 05:00p":   "03/10 05:00PM",
		"03/10 05:00PM":  "03/10 05:00PM",
		" 03/10 05:00pm": "03/10 05:00PM",
	}
	for in, want := range cases {
		if got := l.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	plain := MustCompile("MM/dd HH:mm")
	if got := plain.Normalize(" 03/10 17:00 "); got != "03/10 17:00" {
		t.Fatalf("Normalize without designator = %q", got)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	l := MustCompile("MM/dd hh:mmt")
	got, err := l.Parse("03/10 05:00P", time.UTC)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Month() != time.March || got.Day() != 10 || got.Hour() != 17 || got.Minute() != 0 {
		t.Fatalf("Parse = %v", got)
	}
	if got.Year() != 0 || l.HasYear() {
		t.Fatalf("year should be absent, got %d", got.Year())
	}

	midnight, err := l.Parse("01/05 12:00A", time.UTC)
	if err != nil || midnight.Hour() != 0 {
		t.Fatalf("12:00A = %v, %v", midnight, err)
	}

	if _, err := l.Parse("13/45 99:99X", time.UTC); !perr.IsCode(err, perr.ErrorCodeMalformedTime) {
		t.Fatalf("bad value err = %v, want MalformedTime", err)
	}
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = MustCompile("")
}
