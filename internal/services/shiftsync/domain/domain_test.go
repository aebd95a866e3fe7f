package domain

import (
	"fmt"
	"sync"
	"testing"
)

func TestInsertedEventSet_ConcurrentAddThenDrain(t *testing.T) {
	t.Parallel()

	var s InsertedEventSet
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			s.Add(fmt.Sprintf("ev-%02d", i%25))
		})
	}
	wg.Wait()

	if s.Len() != 25 {
		t.Fatalf("Len = %d, want 25 unique ids", s.Len())
	}
	ids := s.Drain()
	if len(ids) != 25 || s.Len() != 0 || len(s.IDs()) != 0 {
		t.Fatalf("Drain should empty the set: got %d ids, left %d", len(ids), s.Len())
	}
}

func TestInsertedEventSet_KeepsOrderAndCopies(t *testing.T) {
	t.Parallel()

	var s InsertedEventSet
	s.Add("b")
	s.Add("a")
	s.Add("b")

	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("IDs = %v, want [b a]", ids)
	}
	ids[0] = "mutated"
	if s.IDs()[0] != "b" {
		t.Fatalf("IDs must return a copy")
	}
}

func TestState_StringAndTerminal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		s        State
		name     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StateQuerying, "querying", false},
		{StateSelecting, "selecting", false},
		{StateExtracting, "extracting", false},
		{StateSynchronizing, "synchronizing", false},
		{StateArchiving, "archiving", false},
		{StateDone, "done", true},
		{StateErrorHalt, "error_halt", true},
		{State(42), "State(42)", false},
	}
	for _, c := range cases {
		if c.s.String() != c.name || c.s.Terminal() != c.terminal {
			t.Fatalf("%d: String=%q Terminal=%v", int(c.s), c.s.String(), c.s.Terminal())
		}
	}
	if (RunReport{State: StateDone}).OK() != true || (RunReport{State: StateErrorHalt}).OK() {
		t.Fatalf("OK mismatch")
	}
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	for l, want := range map[Level]string{LevelDebug: "debug", LevelInfo: "info", LevelWarn: "warn", LevelError: "error", Level(9): "Level(9)"} {
		if l.String() != want {
			t.Fatalf("Level(%d).String() = %q, want %q", int(l), l.String(), want)
		}
	}
}
