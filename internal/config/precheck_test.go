package config

import (
	"path/filepath"
	"testing"
)

func TestPrecheckFailsOnMissingRegistryAndCredentials(t *testing.T) {
	s := defaults()
	s.RegistryPath = filepath.Join(t.TempDir(), "nope")
	s.LogsPath = filepath.Join(t.TempDir(), "logs")
	checks := s.Precheck()
	if AllOK(checks) {
		t.Fatal("expected at least one failing check")
	}
}

func TestPrecheckPassesWithValidSettings(t *testing.T) {
	dir := t.TempDir()
	s := defaults()
	s.AuthUsername = "admin"
	s.AuthPassword = "secret"
	s.RegistryPath = dir
	s.LogsPath = filepath.Join(dir, "logs")
	checks := s.Precheck()
	if !AllOK(checks) {
		t.Fatalf("expected all checks to pass, got %+v", checks)
	}
}

func TestPrecheckRequiresTLSMaterialWhenHTTPSEnabled(t *testing.T) {
	dir := t.TempDir()
	s := defaults()
	s.AuthUsername = "admin"
	s.AuthPassword = "secret"
	s.RegistryPath = dir
	s.LogsPath = filepath.Join(dir, "logs")
	s.UseHTTPS = true
	checks := s.Precheck()
	if AllOK(checks) {
		t.Fatal("expected TLS material check to fail")
	}
}
