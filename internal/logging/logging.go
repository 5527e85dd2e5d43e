// Package logging builds the slog loggers used across splitfeed. Every
// process-level logger carries a component attribute.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldSession    = "session_id"
	FieldAccount    = "account"
	FieldGroup      = "group_id"
	FieldWindowFrom = "window_from"
	FieldWindowTo   = "window_to"
	FieldFound      = "found"
	FieldExternalID = "external_id"
	FieldExpenseID  = "expense_id"
	FieldAmount     = "amount_minor"
	FieldReason     = "reason"
	FieldError      = "error"
)

// Component names.
const (
	ComponentCLI      = "cli"
	ComponentFetch    = "fetch"
	ComponentUpload   = "upload"
	ComponentMonobank = "monobank"
	ComponentSpliit   = "spliit"
	ComponentCategory = "category"
	ComponentSession  = "session"
)

// Config holds logger configuration.
type Config struct {
	Level slog.Level
	// Format is "text" or "json".
	Format    string
	Writer    io.Writer
	Component string
}

// New returns a logger writing to cfg.Writer (stderr by default).
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With(FieldComponent, cfg.Component)
	}
	return logger
}

// WithComponent derives a logger tagged with component.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(FieldComponent, component)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug, info, warn/warning and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
