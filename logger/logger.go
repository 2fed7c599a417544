package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
type ZeroLogger struct {
	zlog *zerolog.Logger
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing to stdout at the given level. If pretty
// is true, output is formatted for human readability. An unparseable level
// falls back to info.
func New(level string, pretty bool) *ZeroLogger {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	l := zerolog.New(out).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// NewWithWriter creates a ZeroLogger writing to w. Used by tests to capture
// output.
func NewWithWriter(level string, w io.Writer) *ZeroLogger {
	l := zerolog.New(w).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// NewNop creates a logger that discards everything. It is the default for
// clients constructed without a logger.
func NewNop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l}
}

// Info creates an info-level log event
func (l *ZeroLogger) Info() LogEvent {
	return &zerologEvent{event: l.zlog.Info()}
}

// Error creates an error-level log event
func (l *ZeroLogger) Error() LogEvent {
	return &zerologEvent{event: l.zlog.Error()}
}

// Debug creates a debug-level log event
func (l *ZeroLogger) Debug() LogEvent {
	return &zerologEvent{event: l.zlog.Debug()}
}

// Warn creates a warning-level log event
func (l *ZeroLogger) Warn() LogEvent {
	return &zerologEvent{event: l.zlog.Warn()}
}

// WithFields returns a derived logger carrying the given fields on every
// event.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	derived := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &derived}
}

// zerologEvent adapts zerolog events to the LogEvent interface
type zerologEvent struct {
	event *zerolog.Event
}

func (e *zerologEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *zerologEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *zerologEvent) Err(err error) LogEvent {
	return &zerologEvent{event: e.event.Err(err)}
}

func (e *zerologEvent) Str(key, value string) LogEvent {
	return &zerologEvent{event: e.event.Str(key, value)}
}

func (e *zerologEvent) Int(key string, value int) LogEvent {
	return &zerologEvent{event: e.event.Int(key, value)}
}

func (e *zerologEvent) Int64(key string, value int64) LogEvent {
	return &zerologEvent{event: e.event.Int64(key, value)}
}

func (e *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	return &zerologEvent{event: e.event.Dur(key, d)}
}

func (e *zerologEvent) Interface(key string, i any) LogEvent {
	return &zerologEvent{event: e.event.Interface(key, i)}
}

func (e *zerologEvent) Bytes(key string, val []byte) LogEvent {
	return &zerologEvent{event: e.event.Bytes(key, val)}
}
