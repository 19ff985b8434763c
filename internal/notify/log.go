package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/signal"
)

// LogSink writes each signal as a structured log line.
type LogSink struct{ log zerolog.Logger }

// NewLogSink wraps a zerolog logger.
func NewLogSink(log zerolog.Logger) *LogSink { return &LogSink{log: log} }

// Name identifies the sink.
func (l *LogSink) Name() string { return "log" }

// Emit logs the signal; suppressed signals are logged at warn.
func (l *LogSink) Emit(_ context.Context, s signal.Signal) error {
	ev := l.log.Info()
	if !s.Actionable() {
		ev = l.log.Warn()
	}
	ev.Str("sym", s.Symbol).
		Str("tf", s.Timeframe).
		Str("side", string(s.Side)).
		Float64("px", s.Price).
		Float64("conf", s.Confidence).
		Str("reason", s.Reason).
		Time("bar", s.Ts).
		Msg("signal")
	return nil
}
