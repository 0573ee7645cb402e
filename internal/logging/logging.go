package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dicee-server/internal/config"
)

var dest io.Writer = os.Stdout

// Init configures the global zerolog logger from LogConfig. Safe to call once
// at process start; everything after goes through the package-level log.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	dest = os.Stdout
	if cfg.File != "" {
		if w, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB); err == nil {
			dest = w
		}
	}
	output := dest
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: dest}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer exposes the log destination for the HTTP request logger, so request
// logs land in the same file as application logs.
func Writer() io.Writer {
	return dest
}
