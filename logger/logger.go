// Package logger provides the structured logging abstraction used throughout go-aging.
//
// Every component receives a Logger at construction time instead of relying on a
// process-wide logging configuration, so tests can capture output per component and
// the CLI can fan a run's log out to the console and a per-run log file.
//
// Commands and raw responses are logged at InfoLevel, extracted frames and state
// transitions at DebugLevel, a channel that does not answer at WarnLevel and a
// failed cycle at ErrorLevel.
package logger

import (
	"fmt"
	"strings"
)

// Level indicates the logging severity level.
type Level = int8

const (
	DebugLevel Level = iota - 1
	InfoLevel // default
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger is a leveled, structured logger. keysAndValues are alternating keys and
// values; fields accumulated with With are added to every record.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs at FatalLevel and then exits the process with status 1.
	Fatal(msg string, keysAndValues ...any)
	// With returns a child logger carrying keyValues. The parent is unaffected.
	With(keyValues ...any) Logger
	Level() Level
	SetLevel(level Level)
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("logger: unknown level %q", s)
	}
}
