// Package logx is a small leveled wrapper over the standard logger.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level defines severity for logger output.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = map[Level]string{
	LevelError: "error",
	LevelWarn:  "warn",
	LevelInfo:  "info",
	LevelDebug: "debug",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	for lvl, name := range levelNames {
		if strings.EqualFold(name, s) {
			return lvl, nil
		}
	}
	return LevelInfo, fmt.Errorf("logx: unknown level %q", s)
}

// Logger provides leveled logging. A nil *Logger discards everything.
type Logger struct {
	level  Level
	logger *log.Logger
}

// New creates a logger writing to w with the given level and prefix.
func New(w io.Writer, level Level, prefix string) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds),
	}
}

// NewStderr creates a logger on standard error.
func NewStderr(level Level, prefix string) *Logger {
	return New(os.Stderr, level, prefix)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError, "")
}

// SetLevel adjusts current logging level.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.level
}

func (l *Logger) logf(target Level, format string, args ...any) {
	if l == nil || target > l.level {
		return
	}
	l.logger.Output(3, fmt.Sprintf(format, args...))
}

// Debugf prints debug messages.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

// Infof prints info messages.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

// Warnf prints warning messages.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

// Errorf prints error messages.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, format, args...)
}
