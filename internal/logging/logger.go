// =============================================================================
// INVOIC EDIFACT Generator - Logging
// =============================================================================
//
// Every component logs through the Logger interface below. The default
// implementation writes one line per entry:
//
//   2025-04-15 09:07:00 [INFO] Processing invoice: BRESII25040002
//
// to the console and, when a log file is configured, to that file as well.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level orders log entries by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// StdLogger is a leveled Logger writing to an io.Writer.
type StdLogger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	now   func() time.Time
	file  *os.File
}

// New returns a logger writing entries at or above level to out.
func New(out io.Writer, level Level) *StdLogger {
	return &StdLogger{out: out, level: level, now: time.Now}
}

// NewFile returns a logger that writes to stdout and appends to logFile.
// An empty logFile logs to stdout only. Close releases the file.
func NewFile(logFile string, level Level) (*StdLogger, error) {
	if logFile == "" {
		return New(os.Stdout, level), nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := New(io.MultiWriter(os.Stdout, f), level)
	l.file = f
	return l, nil
}

// SetLevel changes the minimum level.
func (l *StdLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the log file, if any.
func (l *StdLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *StdLogger) log(level Level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	line := fmt.Sprintf("%s [%s] %s\n", l.now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(msg, args...))
	io.WriteString(l.out, line)
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args...) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args...) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// Discard drops every entry.
type Discard struct{}

func (Discard) Debug(string, ...interface{}) {}
func (Discard) Info(string, ...interface{})  {}
func (Discard) Warn(string, ...interface{})  {}
func (Discard) Error(string, ...interface{}) {}
