// Package logging provides the structured, level-tagged console logger
// used across the core. It auto-detects color support the same way the
// diagnostics event formatter does: only colorize when writing to a
// terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Level is a log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) tag() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "?"
	}
}

func (l Level) colorFn() func(format string, a ...interface{}) string {
	switch l {
	case Debug:
		return color.New(color.FgHiBlack).SprintfFunc()
	case Info:
		return color.New(color.FgCyan).SprintfFunc()
	case Warn:
		return color.New(color.FgYellow).SprintfFunc()
	case Error:
		return color.New(color.FgRed, color.Bold).SprintfFunc()
	default:
		return fmt.Sprintf
	}
}

// Logger writes level-tagged lines to an io.Writer, colorizing the level
// tag when the writer is a terminal.
type Logger struct {
	w        io.Writer
	useColor bool
	minLevel Level
	fields   map[string]any
}

// New builds a Logger writing to w (os.Stderr if nil).
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f)
	}
	return &Logger{w: w, useColor: useColor, minLevel: Info}
}

// SetMinLevel suppresses log lines below level.
func (l *Logger) SetMinLevel(level Level) { l.minLevel = level }

// With returns a derived logger carrying additional structured fields,
// e.g. log.With("tx", txID).Info("committed")
func (l *Logger) With(kv ...any) *Logger {
	fields := make(map[string]any, len(l.fields)+len(kv)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return &Logger{w: l.w, useColor: l.useColor, minLevel: l.minLevel, fields: fields}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.minLevel {
		return
	}
	tag := level.tag()
	if l.useColor {
		tag = level.colorFn()("%s", tag)
	}
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s", time.Now().Format(time.RFC3339Nano), tag, msg)
	for k, v := range l.fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	fmt.Fprintln(l.w, line)
}

func (l *Logger) Debug(format string, args ...any) { l.log(Debug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(Info, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(Warn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(Error, format, args...) }

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
