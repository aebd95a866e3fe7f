package domain

import "fmt"

// State is a stage of the run state machine
type State int

// Idle -> Querying -> Selecting -> Extracting -> Synchronizing -> Archiving -> Done
// any stage up to Archiving may fall into ErrorHalt
const (
	StateIdle State = iota
	StateQuerying
	StateSelecting
	StateExtracting
	StateSynchronizing
	StateArchiving
	StateDone
	StateErrorHalt
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateQuerying:      "querying",
	StateSelecting:     "selecting",
	StateExtracting:    "extracting",
	StateSynchronizing: "synchronizing",
	StateArchiving:     "archiving",
	StateDone:          "done",
	StateErrorHalt:     "error_halt",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition happens
func (s State) Terminal() bool { return s == StateDone || s == StateErrorHalt }

// Level is the severity of a Status
type Level int

// Status levels
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Status is one line of progress reported to a StatusSink
type Status struct {
	Level   Level
	Stage   State
	Message string
	Fields  map[string]any
	Err     error
}
