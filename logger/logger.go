package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog *zerolog.Logger
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger at the given level. If pretty is true the
// output is formatted for human readability instead of JSON.
func New(level string, pretty bool) *ZeroLogger {
	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l}
}

// WithFields returns a logger with additional fields attached to all entries.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log}
}

func (l *ZeroLogger) Debug() LogEvent { return &zerologEvent{e: l.zlog.Debug()} }
func (l *ZeroLogger) Info() LogEvent  { return &zerologEvent{e: l.zlog.Info()} }
func (l *ZeroLogger) Warn() LogEvent  { return &zerologEvent{e: l.zlog.Warn()} }
func (l *ZeroLogger) Error() LogEvent { return &zerologEvent{e: l.zlog.Error()} }

// zerologEvent adapts *zerolog.Event to the LogEvent interface.
type zerologEvent struct {
	e *zerolog.Event
}

func (z *zerologEvent) Msg(msg string)                  { z.e.Msg(msg) }
func (z *zerologEvent) Msgf(format string, args ...any) { z.e.Msgf(format, args...) }

func (z *zerologEvent) Err(err error) LogEvent {
	z.e = z.e.Err(err)
	return z
}

func (z *zerologEvent) Str(key, value string) LogEvent {
	z.e = z.e.Str(key, value)
	return z
}

func (z *zerologEvent) Int(key string, value int) LogEvent {
	z.e = z.e.Int(key, value)
	return z
}

func (z *zerologEvent) Int64(key string, value int64) LogEvent {
	z.e = z.e.Int64(key, value)
	return z
}

func (z *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	z.e = z.e.Dur(key, d)
	return z
}

func (z *zerologEvent) Interface(key string, i any) LogEvent {
	z.e = z.e.Interface(key, i)
	return z
}

func (z *zerologEvent) Bytes(key string, val []byte) LogEvent {
	z.e = z.e.Bytes(key, val)
	return z
}
