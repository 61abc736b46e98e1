package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func NewLogger(cfg LoggingConfig) zerolog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo builds the process logger on top of out. Stdio transports
// (the MCP server) pass os.Stderr so protocol frames on stdout stay clean.
func NewLoggerTo(out io.Writer, cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := out
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
