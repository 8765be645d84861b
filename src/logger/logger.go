package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// -----------------------------------------------------------------------------

// Logger provides name-scoped structured logging
type Logger struct {
	name   string
	base   zerolog.Logger
	logger zerolog.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger writing to stdout. level is one of
// DEBUG, INFO, WARNING, ERROR; anything else means INFO.
func NewLogger(level string, name string) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, name)
}

// -----------------------------------------------------------------------------

func NewLoggerWithWriter(w io.Writer, level string, name string) *Logger {
	base := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{
		name:   name,
		base:   base,
		logger: base.With().Str("component", name).Logger(),
	}
}

// -----------------------------------------------------------------------------

// Named derives a logger for a sub-component sharing the same sink and level.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:   name,
		base:   l.base,
		logger: l.base.With().Str("component", name).Logger(),
	}
}

// -----------------------------------------------------------------------------

func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING", "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "CRITICAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// -----------------------------------------------------------------------------

// Zerolog exposes the underlying logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}
