package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Severity levels, from least to most severe.
const (
	LevelDebug     Level = "debug"
	LevelInfo      Level = "info"
	LevelNotice    Level = "notice"
	LevelWarning   Level = "warning"
	LevelError     Level = "error"
	LevelCritical  Level = "critical"
	LevelAlert     Level = "alert"
	LevelEmergency Level = "emergency"
)

type (
	// Level is a log severity.
	Level string

	// Logger emits leveled messages with structured context.
	Logger interface {
		Log(ctx context.Context, level Level, msg string, fields map[string]any)
	}

	// NopLogger discards everything.
	NopLogger struct{}

	// ZerologLogger writes to a zerolog.Logger.
	ZerologLogger struct {
		logger zerolog.Logger
	}
)

var levels = map[Level]zerolog.Level{
	LevelDebug:     zerolog.DebugLevel,
	LevelInfo:      zerolog.InfoLevel,
	LevelNotice:    zerolog.InfoLevel,
	LevelWarning:   zerolog.WarnLevel,
	LevelError:     zerolog.ErrorLevel,
	LevelCritical:  zerolog.ErrorLevel,
	LevelAlert:     zerolog.ErrorLevel,
	LevelEmergency: zerolog.ErrorLevel,
}

// ParseLevel returns the Level named by s.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levels[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}

	return level, nil
}

func (NopLogger) Log(context.Context, Level, string, map[string]any) {}

func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (l *ZerologLogger) Log(ctx context.Context, level Level, msg string, fields map[string]any) {
	zl, ok := levels[level]
	if !ok {
		zl = zerolog.WarnLevel
	}

	event := l.logger.WithLevel(zl).Ctx(ctx)
	if level != LevelInfo && level != LevelDebug && level != LevelWarning && level != LevelError {
		event = event.Str("severity", string(level))
	}

	event.Fields(fields).Msg(msg)
}
