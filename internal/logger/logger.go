package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var log = zerolog.Nop()

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init configures the global logger. pretty forces the console writer;
// otherwise it is used only when stdout is a terminal.
func Init(level string, pretty bool) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	var output io.Writer = os.Stdout
	if pretty || isatty.IsTerminal(os.Stdout.Fd()) {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger().Level(lvl)
	return nil
}

// SetOutput redirects the global logger to w. Used by tests.
func SetOutput(w io.Writer, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	log = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, level)
	}
	return lvl, nil
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error with its domain error code
func ErrorWithCode(err error) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(errors.CodeOf(err))).
		Err(err)}
}

// WarnWithCode is ErrorWithCode at warn level, for failures the caller recovers from
func WarnWithCode(err error) *LogEvent {
	return &LogEvent{log.Warn().
		Str("error_code", string(errors.CodeOf(err))).
		Err(err)}
}

// ErrorWithContext logs an error with component and operation fields
func ErrorWithContext(err error, component, operation string) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(errors.CodeOf(err))).
		Str("component", component).
		Str("operation", operation).
		Err(err)}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

type globalLogger struct{}

// Default returns a Logger backed by the package-level functions.
func Default() Logger {
	return globalLogger{}
}

func (globalLogger) Debug() *LogEvent { return Debug() }
func (globalLogger) Info() *LogEvent  { return Info() }
func (globalLogger) Warn() *LogEvent  { return Warn() }
func (globalLogger) Error() *LogEvent { return Error() }

func (globalLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return ErrorWithCode(err)
}

func (globalLogger) ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return ErrorWithContext(err, component, operation)
}
