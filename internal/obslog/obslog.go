// Package obslog provides the application-wide structured logger.
//
// It wraps log/slog with the subsystem-tagged API the rest of luigi calls
// (Debug/Info/Warn/Error), plus a lightweight Audit breadcrumb for
// security-sensitive events. Audit here is an operational convenience for
// grepping the application log; the compliance-grade append-only record
// lives in package audit.
package obslog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level mirrors slog.Level but keeps callers from importing log/slog directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a LOG_LEVEL env value to a Level, defaulting to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var defaultLogger *slog.Logger

// Init configures the package-level logger. Safe to call once at startup;
// tests may call it again to redirect output.
func Init(level Level, output io.Writer) {
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: level.slogLevel()})
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func init() {
	Init(LevelInfo, os.Stdout)
}

func logInternal(level Level, subsystem string, err error, format string, args ...any) {
	if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.slogLevel()) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

func Debug(subsystem, format string, args ...any) { logInternal(LevelDebug, subsystem, nil, format, args...) }
func Info(subsystem, format string, args ...any)  { logInternal(LevelInfo, subsystem, nil, format, args...) }
func Warn(subsystem, format string, args ...any)  { logInternal(LevelWarn, subsystem, nil, format, args...) }
func Error(subsystem string, err error, format string, args ...any) {
	logInternal(LevelError, subsystem, err, format, args...)
}

// AuditEvent is a one-line breadcrumb written to the application log in
// addition to the dedicated rotating audit log (package audit). It exists so
// an operator tailing the plain application log still sees sensitive
// transitions without cross-referencing the audit file.
type AuditEvent struct {
	Kind    string // e.g. "auth_failure", "service_op"
	Subject string // username or "anonymous"
	Route   string
	Outcome string // "success" or "failure"
	Detail  string
}

// Audit logs a structured audit breadcrumb at info level with an [AUDIT] tag
// so log aggregators can filter on it cheaply.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 5)
	parts = append(parts, "kind="+event.Kind)
	if event.Subject != "" {
		parts = append(parts, "subject="+event.Subject)
	}
	if event.Route != "" {
		parts = append(parts, "route="+event.Route)
	}
	parts = append(parts, "outcome="+event.Outcome)
	if event.Detail != "" {
		parts = append(parts, "detail="+event.Detail)
	}
	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}
