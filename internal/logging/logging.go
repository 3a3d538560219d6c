// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yukikurage/org-membership-api/internal/config"
)

// New returns a logger configured from the log section of cfg.
func New(cfg config.LogConfig) *log.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is like New but writes to w.
func NewWithWriter(w io.Writer, cfg config.LogConfig) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	if level, err := log.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
		logger.SetLevel(level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}

	return logger
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
