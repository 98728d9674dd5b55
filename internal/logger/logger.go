package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"filevault/internal/config"
)

// New создает логгер приложения по настройкам Logging
func New(cfg config.LoggingConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: true}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
