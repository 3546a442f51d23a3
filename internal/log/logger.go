// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized. An empty
// string is accepted as LevelInfo.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO", "":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

var currentLevel atomic.Uint32

// logger shows date and time with microseconds.
var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

// exit is replaced in tests.
var exit = os.Exit

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Configure applies the level from configuration. debug forces LevelDebug.
func Configure(debug bool, level string) error {
	if debug {
		SetLevel(LevelDebug)
		return nil
	}
	l, ok := ParseLevel(level)
	if !ok {
		return fmt.Errorf("unknown log level: '%s'", level)
	}
	SetLevel(l)
	return nil
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Enabled reports whether messages at level are currently written.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

func output(level LogLevel, msg string) {
	if !Enabled(level) {
		return
	}
	// Pad so messages line up after the shorter level names.
	pad := ""
	if len(level.String()) == 4 {
		pad = " "
	}
	logger.Printf("[%s]%s %s", level, pad, msg)
}

// --- Public Logging Functions ---

func Debugf(format string, v ...any) { output(LevelDebug, fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { output(LevelInfo, fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { output(LevelWarn, fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { output(LevelError, fmt.Sprintf(format, v...)) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) {
	logger.Printf("[%s] %s", LevelFatal, fmt.Sprintf(format, v...))
	exit(1)
}

func Debug(v ...any) { output(LevelDebug, fmt.Sprint(v...)) }
func Info(v ...any)  { output(LevelInfo, fmt.Sprint(v...)) }
func Warn(v ...any)  { output(LevelWarn, fmt.Sprint(v...)) }
func Error(v ...any) { output(LevelError, fmt.Sprint(v...)) }

// Fatal logs a fatal message and exits the application.
func Fatal(v ...any) {
	logger.Printf("[%s] %s", LevelFatal, fmt.Sprint(v...))
	exit(1)
}

// Component prefixes every message with a subsystem name, e.g. "Engine:".
type Component string

func (c Component) Debugf(format string, v ...any) { c.logf(LevelDebug, format, v...) }
func (c Component) Infof(format string, v ...any)  { c.logf(LevelInfo, format, v...) }
func (c Component) Warnf(format string, v ...any)  { c.logf(LevelWarn, format, v...) }
func (c Component) Errorf(format string, v ...any) { c.logf(LevelError, format, v...) }

// logf skips formatting entirely when level is filtered out.
func (c Component) logf(level LogLevel, format string, v ...any) {
	if !Enabled(level) {
		return
	}
	output(level, string(c)+": "+fmt.Sprintf(format, v...))
}
