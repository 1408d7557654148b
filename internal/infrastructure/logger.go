package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/architeacher/svc-message-retry/internal/config"
)

const (
	formatJSON    = "json"
	formatConsole = "console"
)

// Logger is the service wide structured logger.
type Logger struct {
	zerolog.Logger
}

func New(cfg config.LoggingConfig) Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds a logger writing to w. Unknown levels fall back to info.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, formatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	return Logger{Logger: logger}
}

// WithService attaches the service identity to every entry.
func (l Logger) WithService(app config.AppConfig) Logger {
	return Logger{
		Logger: l.With().
			Str("service", app.ServiceName).
			Str("version", app.ServiceVersion).
			Str("env", app.Env).
			Logger(),
	}
}

// Component returns a child logger tagged with the component name.
func (l Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
