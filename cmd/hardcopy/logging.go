// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hardcopy/hardcopy/internal/config"

	"github.com/charmbracelet/log"
)

// newLogger builds the charmbracelet logger described by cfg. verbose forces
// the debug level regardless of cfg.Level.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) (*log.Logger, error) {
	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}

	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q (want text, json or logfmt)", cfg.Format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: formatter != log.TextFormatter,
		Prefix:          "hardcopy",
	}), nil
}

// installLogger makes the charmbracelet logger the slog default so every
// slog call site in the internal packages goes through it.
func installLogger(w io.Writer, cfg config.LogConfig, verbose bool) error {
	logger, err := newLogger(w, cfg, verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(logger))
	return nil
}
