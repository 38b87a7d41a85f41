package obslog

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelString(t *testing.T) {
	cases := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "INFO"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Level(%d).String() = %s, want %s", c.level, got, c.want)
		}
	}
}

func TestInfoWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelInfo, &bytes.Buffer{})

	Info("Test", "hello %s", "world")
	if !strings.Contains(buf.String(), "hello world") {
		t.Errorf("expected log output to contain message, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "subsystem=Test") {
		t.Errorf("expected log output to contain subsystem, got %q", buf.String())
	}
}

func TestDebugSuppressedAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelInfo, &bytes.Buffer{})

	Debug("Test", "should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output for suppressed debug level, got %q", buf.String())
	}
}

func TestErrorIncludesErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelInfo, &bytes.Buffer{})

	Error("Test", errors.New("boom"), "operation failed")
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("expected log output to contain error attribute, got %q", buf.String())
	}
}

func TestAuditFormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	defer Init(LevelInfo, &bytes.Buffer{})

	Audit(AuditEvent{Kind: "auth_failure", Subject: "anonymous", Route: "/api/modules", Outcome: "failure", Detail: "missing header"})
	out := buf.String()
	for _, want := range []string{"[AUDIT]", "kind=auth_failure", "subject=anonymous", "route=/api/modules", "outcome=failure", "detail=missing header"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected audit log to contain %q, got %q", want, out)
		}
	}
}
