// Package logging provides the structured logger shared by the HTTP server and
// the application entry point. Components depend on the small Logger interface;
// the default implementation is backed by zerolog, and an adapter over the
// standard log.Logger is kept for callers that already own one.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface used across the application.
type Logger interface {
	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Error logs an error message with the associated error.
	Error(msg string, err error, fields ...Field)

	// Debug logs a debug message.
	Debug(msg string, fields ...Field)

	// With returns a logger that adds fields to every message.
	With(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// ZerologAdapter adapts a zerolog.Logger to the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a new Logger backed by zerolog.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger creates a Logger writing JSON lines to stderr at info level.
func NewDefaultLogger() *ZerologAdapter {
	return NewLogger(os.Stderr, "fxtree", zerolog.InfoLevel)
}

// NewLogger creates a Logger writing JSON lines to w.
//
// Parameters:
//   - w: The destination.
//   - component: The value of the "component" field on every line.
//   - level: The minimum level written.
//
// Returns:
//   - *ZerologAdapter: The logger.
func NewLogger(w io.Writer, component string, level zerolog.Level) *ZerologAdapter {
	return NewZerologAdapter(
		zerolog.New(w).Level(level).With().Str("component", component).Timestamp().Logger(),
	)
}

// NewConsoleLogger creates a Logger with zerolog's human-readable console
// output, for interactive use of the server.
func NewConsoleLogger(w io.Writer, component string, level zerolog.Level, noColor bool) *ZerologAdapter {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.Kitchen}
	return NewLogger(cw, component, level)
}

// keyValues flattens fields for zerolog's Fields, which renders durations and
// errors the same way as the typed methods.
func keyValues(fields []Field) []any {
	kv := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (z *ZerologAdapter) event(e *zerolog.Event, fields []Field) *zerolog.Event {
	if len(fields) == 0 {
		return e
	}
	return e.Fields(keyValues(fields))
}

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	z.event(z.logger.Info(), fields).Msg(msg)
}

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	z.event(z.logger.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	z.event(z.logger.Debug(), fields).Msg(msg)
}

// With returns a child logger carrying fields.
func (z *ZerologAdapter) With(fields ...Field) Logger {
	return &ZerologAdapter{logger: z.logger.With().Fields(keyValues(fields)).Logger()}
}

// Zerolog returns the underlying zerolog.Logger.
func (z *ZerologAdapter) Zerolog() zerolog.Logger { return z.logger }

// StdLoggerAdapter adapts a standard log.Logger to the Logger interface.
type StdLoggerAdapter struct {
	logger *stdlog.Logger
	fields []Field
}

// NewStdLoggerAdapter creates a new Logger backed by a standard log.Logger.
func NewStdLoggerAdapter(logger *stdlog.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) print(level, msg string, err error, fields []Field) {
	all := append(append([]Field(nil), s.fields...), fields...)
	line := "[" + level + "] " + msg
	if err != nil {
		line += ": " + err.Error()
	}
	if len(all) > 0 {
		s.logger.Printf("%s %v", line, all)
		return
	}
	s.logger.Println(line)
}

// Info logs an informational message.
func (s *StdLoggerAdapter) Info(msg string, fields ...Field) { s.print("INFO", msg, nil, fields) }

// Error logs an error message.
func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.print("ERROR", msg, err, fields)
}

// Debug logs a debug message.
func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) { s.print("DEBUG", msg, nil, fields) }

// With returns a child logger carrying fields.
func (s *StdLoggerAdapter) With(fields ...Field) Logger {
	return &StdLoggerAdapter{logger: s.logger, fields: append(append([]Field(nil), s.fields...), fields...)}
}
