package application

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"redmine-mcp-server/internal/domain"
)

// NewLogger builds the process logger. Output always goes to stderr because the
// stdio transport owns stdout.
func NewLogger(cfg domain.LoggingConfig) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg domain.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "redmine-mcp-server").Logger()
}
