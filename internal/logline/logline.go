// Package logline defines the console output contract shared by every job
// the runner executes: one line per event, formatted as
//
//	2006-01-02 15:04:05 [LEVEL] message
//
// Scripts emit these lines on stdout; the console parses them back into
// structured form for coloring, filtering, and export.
package logline

import (
	"fmt"
	"strings"
	"time"
)

// Level classifies a console line. Levels are a display concern only and
// never affect control flow or exit codes.
type Level string

// Recognized levels. System is reserved for app-origin messages (mode
// changes, clear notices) and is never emitted by scripts themselves.
const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSystem  Level = "system"
)

// TimeLayout is the timestamp prefix every line carries.
const TimeLayout = "2006-01-02 15:04:05"

// ErrUnknownLevel reports a level string outside the recognized set.
type ErrUnknownLevel struct {
	Value string
}

func (e *ErrUnknownLevel) Error() string {
	return fmt.Sprintf("unknown log level %q", e.Value)
}

// ParseLevel maps a level name (bare or bracketed, any case) to a Level.
func ParseLevel(s string) (Level, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	switch Level(strings.ToLower(trimmed)) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelSuccess:
		return LevelSuccess, nil
	case LevelWarning:
		return LevelWarning, nil
	case LevelError:
		return LevelError, nil
	case LevelSystem:
		return LevelSystem, nil
	default:
		return "", &ErrUnknownLevel{Value: s}
	}
}

// Valid reports whether l is one of the recognized levels.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelSuccess, LevelWarning, LevelError, LevelSystem:
		return true
	}
	return false
}

// Tag returns the bracketed uppercase form used in formatted lines, e.g.
// "[WARNING]".
func (l Level) Tag() string {
	return "[" + strings.ToUpper(string(l)) + "]"
}

// String returns the lowercase level name.
func (l Level) String() string {
	return string(l)
}

// Line is one parsed console line.
type Line struct {
	Time    time.Time
	Level   Level
	Message string
}

// Format renders a line in the canonical form.
func Format(t time.Time, level Level, message string) string {
	return t.Format(TimeLayout) + " " + level.Tag() + " " + message
}

// String renders the line in the canonical form.
func (ln Line) String() string {
	return Format(ln.Time, ln.Level, ln.Message)
}

// timestampLen is the fixed width of the TimeLayout prefix.
const timestampLen = len(TimeLayout)

// Parse recognizes a canonical console line. The second return is false when
// the input does not carry the timestamp-and-level prefix; callers decide how
// to classify such lines (the runner treats bare stdout as info).
func Parse(s string) (Line, bool) {
	if len(s) < timestampLen+1 {
		return Line{}, false
	}

	ts, err := time.ParseInLocation(TimeLayout, s[:timestampLen], time.Local)
	if err != nil {
		return Line{}, false
	}

	rest := s[timestampLen:]
	if rest == "" || rest[0] != ' ' {
		return Line{}, false
	}
	rest = rest[1:]

	if !strings.HasPrefix(rest, "[") {
		return Line{}, false
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return Line{}, false
	}

	level, err := ParseLevel(rest[1:end])
	if err != nil {
		return Line{}, false
	}

	msg := rest[end+1:]
	msg = strings.TrimPrefix(msg, " ")

	return Line{Time: ts, Level: level, Message: msg}, true
}
