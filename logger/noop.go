package logger

import "time"

// Noop returns a Logger that discards everything. Useful as a default
// when the caller does not care about client logs.
func Noop() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug() LogEvent                  { return noopEvent{} }
func (noopLogger) Info() LogEvent                   { return noopEvent{} }
func (noopLogger) Warn() LogEvent                   { return noopEvent{} }
func (noopLogger) Error() LogEvent                  { return noopEvent{} }
func (noopLogger) WithFields(map[string]any) Logger { return noopLogger{} }

type noopEvent struct{}

func (noopEvent) Msg(string)                           {}
func (noopEvent) Msgf(string, ...any)                  {}
func (e noopEvent) Err(error) LogEvent                 { return e }
func (e noopEvent) Str(string, string) LogEvent        { return e }
func (e noopEvent) Int(string, int) LogEvent           { return e }
func (e noopEvent) Int64(string, int64) LogEvent       { return e }
func (e noopEvent) Dur(string, time.Duration) LogEvent { return e }
func (e noopEvent) Interface(string, any) LogEvent     { return e }
func (e noopEvent) Bytes(string, []byte) LogEvent      { return e }
