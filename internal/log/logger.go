// SPDX-License-Identifier: MIT

// Package log owns the process-wide zerolog setup. Configure runs once;
// every component derives child loggers from the single base so scan runs,
// repair runs and queue messages stay correlated through context fields.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the one-time logger setup.
type Config struct {
	// Level is a zerolog level name; MEDIAMEND_LOG_LEVEL is consulted when
	// empty, then "info".
	Level string
	// Format is "json" (default) or "console"; MEDIAMEND_LOG_FORMAT is
	// consulted when empty.
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every entry; defaults to "mediamend".
	Service string
}

var (
	setup sync.Once
	base  zerolog.Logger
)

// Configure builds the process logger. The first call wins; later calls,
// including the implicit one from Base, are no-ops.
func Configure(cfg Config) {
	setup.Do(func() {
		base = build(cfg)
	})
}

// Base returns the process logger, configuring defaults on first use.
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

func build(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	badLevel := ""
	if name := firstOf(cfg.Level, os.Getenv("MEDIAMEND_LOG_LEVEL")); name != "" {
		parsed, err := zerolog.ParseLevel(name)
		if err != nil {
			badLevel = name
		} else {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if firstOf(cfg.Format, os.Getenv("MEDIAMEND_LOG_FORMAT")) == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", firstOf(cfg.Service, "mediamend")).
		Logger()
	if badLevel != "" {
		logger.Warn().Str("configured", badLevel).Msg("unknown log level, using info")
	}
	return logger
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
