// Package logger is a thin zerolog front end. Components get a child logger
// tagged with their name and pass typed fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	// Output is stdout, stderr or a file path. The terminal app must log to
	// a file: its screen owns stdout.
	Output     string
	TimeFormat string
	// Writer overrides Output when set.
	Writer io.Writer
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	w, tty, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat, NoColor: !tty}
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

// openOutput resolves where log lines go and whether that is a terminal
// stream worth colouring.
func openOutput(cfg *Config) (io.Writer, bool, error) {
	if cfg.Writer != nil {
		return cfg.Writer, false, nil
	}
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, true, nil
	case "stderr":
		return os.Stderr, true, nil
	}
	f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open log file: %w", err)
	}
	return f, false, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger tagged with a component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field) { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field) { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { write(l.zl.Error(), msg, fields) }

func write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f(e)
	}
	e.Msg(msg)
}

// Field adds one key to a log event.
type Field func(*zerolog.Event)

func String(key, v string) Field { return func(e *zerolog.Event) { e.Str(key, v) } }
func Strings(key string, v []string) Field {
	return func(e *zerolog.Event) { e.Strs(key, v) }
}
func Int(key string, v int) Field { return func(e *zerolog.Event) { e.Int(key, v) } }
func Int64(key string, v int64) Field { return func(e *zerolog.Event) { e.Int64(key, v) } }
func Uint64(key string, v uint64) Field { return func(e *zerolog.Event) { e.Uint64(key, v) } }
func Float64(key string, v float64) Field { return func(e *zerolog.Event) { e.Float64(key, v) } }
func Bool(key string, v bool) Field { return func(e *zerolog.Event) { e.Bool(key, v) } }
func Any(key string, v any) Field { return func(e *zerolog.Event) { e.Interface(key, v) } }
func Error(err error) Field { return func(e *zerolog.Event) { e.Err(err) } }

// Duration logs d in whole milliseconds.
func Duration(key string, d time.Duration) Field {
	return func(e *zerolog.Event) { e.Int64(key, d.Milliseconds()) }
}
