package logging

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one structured log record
type Entry struct {
	Timestamp time.Time
	Level     Level
	Component string
	Message   string
	Fields    []Field
}

// FormatEntry renders an entry as a single line:
// [YYYY-MM-DD HH:MM:SS] LEVEL [component] message key=value
func FormatEntry(entry Entry) string {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05"))
	sb.WriteString("] ")

	sb.WriteString(entry.Level.String())
	sb.WriteString(" [")
	sb.WriteString(entry.Component)
	sb.WriteString("] ")

	sb.WriteString(sanitize(entry.Message))

	for _, f := range entry.Fields {
		sb.WriteString(" ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(sanitize(fmt.Sprintf("%v", f.Value)))
	}

	sb.WriteString("\n")
	return sb.String()
}

// sanitize replaces control characters (except tab) with spaces to prevent
// log injection from message content
func sanitize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '\t' {
			sb.WriteRune(r)
		} else if r < 0x20 {
			sb.WriteRune(' ')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
