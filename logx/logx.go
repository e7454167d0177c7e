// Package logx provides a standard logger implementation for the wikichat project.
package logx

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/localrivet/wikichat/types"
)

// Level represents a logging severity level.
type Level int

// Logging levels, in increasing order of severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a
// Level. Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the canonical name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// DefaultLogger provides a basic leveled logger implementation using the
// standard log package.
type DefaultLogger struct {
	logger *log.Logger
	level  Level
	mu     sync.Mutex
}

// NewDefaultLogger creates a new logger writing to stderr at LevelInfo with
// standard flags.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(LevelInfo)
}

// NewLogger creates a new logger writing to stderr at the given level.
func NewLogger(level Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[wikichat] ", log.LstdFlags|log.Lmsgprefix),
		level:  level,
	}
}

// SetLevel updates the minimum level this logger emits.
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *DefaultLogger) enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.logger.Printf("DEBUG: "+msg, args...)
	}
}

// Info logs an informational message.
func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.logger.Printf("INFO: "+msg, args...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.logger.Printf("WARN: "+msg, args...)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.logger.Printf("ERROR: "+msg, args...)
	}
}

// Ensure interface compliance
var _ types.Logger = (*DefaultLogger)(nil)

// StandardLoggerAdapter adapts a standard log.Logger to implement the
// types.Logger interface. Level filtering is left to the wrapped logger's
// owner; every message is forwarded with a severity prefix.
type StandardLoggerAdapter struct {
	logger *log.Logger
}

// NewStandardLoggerAdapter creates a Logger that wraps a standard Go log.Logger.
func NewStandardLoggerAdapter(logger *log.Logger) types.Logger {
	if logger == nil {
		logger = log.New(os.Stderr, "[wikichat] ", log.LstdFlags)
	}
	return &StandardLoggerAdapter{logger: logger}
}

// Debug logs a debug message.
func (a *StandardLoggerAdapter) Debug(msg string, args ...interface{}) {
	a.logger.Printf("DEBUG: "+msg, args...)
}

// Info logs an info message.
func (a *StandardLoggerAdapter) Info(msg string, args ...interface{}) {
	a.logger.Printf("INFO: "+msg, args...)
}

// Warn logs a warning message.
func (a *StandardLoggerAdapter) Warn(msg string, args ...interface{}) {
	a.logger.Printf("WARN: "+msg, args...)
}

// Error logs an error message.
func (a *StandardLoggerAdapter) Error(msg string, args ...interface{}) {
	a.logger.Printf("ERROR: "+msg, args...)
}

// NoopLogger discards all messages. Useful as a default in tests.
type NoopLogger struct{}

// NewNoopLogger creates a logger that discards everything sent to it.
func NewNoopLogger() types.Logger { return NoopLogger{} }

// Debug discards the message.
func (NoopLogger) Debug(msg string, args ...interface{}) {}

// Info discards the message.
func (NoopLogger) Info(msg string, args ...interface{}) {}

// Warn discards the message.
func (NoopLogger) Warn(msg string, args ...interface{}) {}

// Error discards the message.
func (NoopLogger) Error(msg string, args ...interface{}) {}
