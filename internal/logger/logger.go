package logger

import (
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	DefaultLevel = "info"
	DefaultStyle = StyleAuto
)

// Output styles
const (
	StyleAuto   = "auto"
	StyleAlways = "always"
	StyleNever  = "never"
	StyleJSON   = "json"
)

var log = zerolog.New(os.Stderr).With().Timestamp().Logger()

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// ParseLevel maps a level name onto a zerolog level
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}

	return zerolog.NoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, level)
}

// ValidStyle reports whether style is a known output style
func ValidStyle(style string) bool {
	switch style {
	case StyleAuto, StyleAlways, StyleNever, StyleJSON:
		return true
	}

	return false
}

// Init initializes the logger writing to stderr
func Init(level, style string) error {
	return InitWithWriter(os.Stderr, level, style)
}

// InitWithWriter initializes the logger with an explicit destination
func InitWithWriter(out io.Writer, level, style string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if style == "" {
		style = DefaultStyle
	}
	if !ValidStyle(style) {
		return errors.New().WithData(errors.ErrInvalidLogStyle, style)
	}

	if style == StyleJSON {
		log = zerolog.New(out).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !useColor(out, style),
		}

		if IsService() {
			output.TimeFormat = ""
			output.FormatTimestamp = func(_ interface{}) string {
				return ""
			}
		}

		log = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(lvl)

	return nil
}

func useColor(out io.Writer, style string) bool {
	switch style {
	case StyleAlways:
		return true
	case StyleNever:
		return false
	}

	f, ok := out.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid() && !isatty.IsTerminal(os.Stdin.Fd())
}

// Trace logs a trace message
func Trace() *LogEvent {
	return &LogEvent{log.Trace()}
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

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}
