package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewApplicationFailsValidationWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "luigi.env")
	content := "PORT=0\nREGISTRY_PATH=" + dir + "\nLOGS_PATH=" + filepath.Join(dir, "logs") + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewApplication(NewConfig(envPath, false))
	if err == nil {
		t.Fatal("expected bootstrap to fail without credentials or a valid port")
	}
}

func TestNewApplicationSucceedsWithValidSettings(t *testing.T) {
	dir := t.TempDir()
	registryDir := filepath.Join(dir, "registry")
	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(registryDir, 0o755); err != nil {
		t.Fatal(err)
	}

	envPath := filepath.Join(dir, "luigi.env")
	content := "PORT=18443\nAUTH_USERNAME=admin\nAUTH_PASSWORD=secret\nREGISTRY_PATH=" + registryDir + "\nLOGS_PATH=" + logsDir + "\nCONFIG_PATH=" + dir + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	application, err := NewApplication(NewConfig(envPath, false))
	if err != nil {
		t.Fatalf("unexpected bootstrap error: %v", err)
	}
	if application.server == nil {
		t.Fatal("expected a non-nil server")
	}
	_ = application.audit.Close()
}
