package service

import (
	"context"

	"shiftsync/internal/platform/logger"
	"shiftsync/internal/services/shiftsync/domain"

	"github.com/rs/zerolog"
)

// LogSink writes each status as a leveled zerolog event
type LogSink struct {
	Log logger.Logger
}

// NewLogSink returns a sink on a child of base tagged component=shiftsync
func NewLogSink(base logger.Logger) LogSink {
	return LogSink{Log: base.With().Str("component", "shiftsync").Logger()}
}

// Notify implements domain.StatusSink
func (s LogSink) Notify(ctx context.Context, st domain.Status) {
	l := logger.From(s.Log, ctx)
	var evt *zerolog.Event
	switch st.Level {
	case domain.LevelDebug:
		evt = l.Debug()
	case domain.LevelWarn:
		evt = l.Warn()
	case domain.LevelError:
		evt = l.Error()
	default:
		evt = l.Info()
	}
	evt = evt.Str("stage", st.Stage.String())
	if len(st.Fields) > 0 {
		evt = evt.Fields(st.Fields)
	}
	if st.Err != nil {
		evt = evt.Err(st.Err)
	}
	evt.Msg(st.Message)
}

// NopSink drops everything
type NopSink struct{}

// Notify implements domain.StatusSink
func (NopSink) Notify(context.Context, domain.Status) {}
