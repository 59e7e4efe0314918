package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides leveled logging for a named component
type Logger struct {
	level     Level
	component string
	output    io.Writer
	fields    []Field
	mu        *sync.Mutex
}

// Field is one key=value context pair attached to a logger
type Field struct {
	Key   string
	Value interface{}
}

// NewLogger creates a logger for a component. A nil output writes to stdout.
func NewLogger(component string, level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:     level,
		component: component,
		output:    output,
		mu:        &sync.Mutex{},
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// With returns a derived logger carrying an extra context field. The parent
// is not modified.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make([]Field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, Field{Key: key, Value: value})

	return &Logger{
		level:     l.level,
		component: l.component,
		output:    l.output,
		fields:    fields,
		mu:        l.mu,
	}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   fmt.Sprintf(format, args...),
		Fields:    l.fields,
	}

	line := FormatEntry(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}
