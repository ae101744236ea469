package logging

import (
	"log/slog"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LevelFromString maps a level name to its slog.Level, case
// insensitively. A nil or unrecognized value falls back to Info.
func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	if lvl, ok := levelNames[strings.ToLower(*str)]; ok {
		return lvl
	}
	return slog.LevelInfo
}
