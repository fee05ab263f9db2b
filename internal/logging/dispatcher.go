package logging

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DispatcherLogger writes event bus traces through zerolog. Every line is
// tagged component=dispatcher; durations are written in milliseconds and
// errors under their own key.
type DispatcherLogger struct {
	logger zerolog.Logger
}

// NewDispatcherLogger wraps logger for use by the event bus.
func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	write(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	write(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	write(l.logger.Error(), msg, keysAndValues)
}

// write appends key-value pairs to e. Pairs with a non-string key and a
// trailing unpaired key are dropped. A nil event (level disabled) is skipped
// without touching the values.
func write(e *zerolog.Event, msg string, keysAndValues []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case string:
			e = e.Str(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case error:
			e = e.AnErr(key, v)
		case fmt.Stringer:
			e = e.Stringer(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
