// Package audit is the compliance-grade, append-only record of every
// sensitive event the control plane observes — spec §3 (AuditRecord) and
// §4.9. It is deliberately separate from internal/obslog's operational
// log: this file rotates by size, never truncates, and its schema is a
// stable contract for downstream log shipping.
package audit

import (
	"encoding/json"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Event kinds, per spec §4.9's list.
const (
	EventAuthSuccess        = "auth_success"
	EventAuthFailure        = "auth_failure"
	EventUnauthorizedAccess = "unauthorized_access"
	EventRateLimitHit       = "rate_limit_hit"
	EventServiceOp          = "service_op"
	EventConfigUpdate       = "config_update"
	EventSystemAction       = "system_action"
	EventSecurityViolation  = "security_violation"
	EventSlowRequest        = "slow_request"
)

// Record is one append-only audit line, serialized as newline-delimited JSON.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	EventKind string         `json:"event_kind"`
	Subject   string         `json:"subject"` // username, or "anonymous"
	ClientIP  string         `json:"client_ip"`
	Route     string         `json:"route"`
	Outcome   string         `json:"outcome"` // "success" or "failure"
	Detail    map[string]any `json:"detail,omitempty"`
}

// Logger serializes writes to a size-rotated, backup-retained audit file.
type Logger struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// Config controls rotation behavior (spec §4.9: "rotating at a configured
// size, keep last N").
type Config struct {
	Path       string
	MaxSizeMB  int // defaults to 10
	MaxBackups int // defaults to 10
}

// New opens (or creates) the audit log at cfg.Path.
func New(cfg Config) *Logger {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 10
	}
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   false,
		},
	}
}

// Write appends rec as one JSON line. Concurrent callers are serialized;
// the ownership note in spec §3 gives the HTTP server process exclusive
// ownership of this file, so no cross-process coordination is needed.
func (l *Logger) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.out.Write(data)
	return err
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

// Record builds a Record with timestamp, event kind, subject, client
// address, route and outcome — the fields every event carries — plus
// optional event-specific detail.
func (l *Logger) Record(kind, subject, clientIP, route, outcome string, detail map[string]any) error {
	return l.Write(Record{
		Timestamp: time.Now().UTC(),
		EventKind: kind,
		Subject:   subject,
		ClientIP:  clientIP,
		Route:     route,
		Outcome:   outcome,
		Detail:    detail,
	})
}
