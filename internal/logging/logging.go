// Package logging provides the leveled progress logger used by the
// evolution driver. Verbosity follows the chemistry convention: level 0
// messages always print, level 1 only when verbose output is enabled.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the sink for evolution progress and diagnostics.
type Logger interface {
	// Info logs at verbosity 0 (always shown).
	Info(msg string, args ...any)
	// Verbose logs at verbosity 1 (shown only when enabled).
	Verbose(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config controls the slog backend.
type Config struct {
	Verbose bool
	Format  string // "json" or "text"
	Output  io.Writer
}

// New constructs a Logger backed by slog. Verbose messages map to the
// debug level so standard slog filtering applies.
func New(cfg Config) Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return &slogger{l: slog.New(handler)}
}

// Noop returns a logger that drops everything; handy in tests.
func Noop() Logger { return noop{} }

type slogger struct {
	l *slog.Logger
}

func (s *slogger) Info(msg string, args ...any)    { s.l.Info(msg, args...) }
func (s *slogger) Verbose(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogger) Warn(msg string, args ...any)    { s.l.Warn(msg, args...) }
func (s *slogger) Error(msg string, args ...any)   { s.l.Error(msg, args...) }

type noop struct{}

func (noop) Info(string, ...any)    {}
func (noop) Verbose(string, ...any) {}
func (noop) Warn(string, ...any)    {}
func (noop) Error(string, ...any)   {}
