// Package log provides structured, colored logging for the stake account
// tooling. Logs go to stderr so command output on stdout stays parseable.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Discovery zerolog.Logger
	Submit    zerolog.Logger
	RPC       zerolog.Logger
	Wallet    zerolog.Logger
	CLI       zerolog.Logger
)

// Output is where console logs are written.
var Output io.Writer = os.Stderr

func init() {
	Logger = NewConsoleLogger(Output, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and the file (always JSON for machine parsing).
func Init(level string, jsonOutput bool, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var console io.Writer = Output
	if !jsonOutput {
		console = consoleWriter(Output)
	}

	w := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, f)
	}

	Logger = zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	lvl, _ := ParseLevel(level)
	return zerolog.New(consoleWriter(w)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	lvl, _ := ParseLevel(level)
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// ParseLevel converts a level name to a zerolog.Level. An empty name means
// info; an unknown name is an error and yields info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// initComponentLoggers initializes loggers for each component.
func initComponentLoggers() {
	Discovery = WithComponent("discovery")
	Submit = WithComponent("submit")
	RPC = WithComponent("rpc")
	Wallet = WithComponent("wallet")
	CLI = WithComponent("cli")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
