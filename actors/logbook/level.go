package logbook

import (
	"fmt"
	"strings"
)

// Level is the severity of a recorded entry. Levels are ordered:
// LevelInfo < LevelWarning < LevelError.
type Level int

const (
	// LevelInfo is the lowest level, for regular operational messages.
	LevelInfo Level = iota
	// LevelWarning indicates something went wrong but is recoverable.
	LevelWarning
	// LevelError indicates a failure that needs attention but is not severe
	// enough to stop the program.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel parses a level name, case-insensitively. Accepted values:
// "info", "warn", "warning", "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// Entry is one recorded message with its severity.
type Entry struct {
	Level   Level
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Level, e.Message)
}
