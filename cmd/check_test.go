package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRunCheckReportsFailuresAndReturnsError(t *testing.T) {
	dir := t.TempDir()
	checkSettingsPath = filepath.Join(dir, "does-not-exist.env")
	t.Cleanup(func() { checkSettingsPath = "" })

	cmd := checkCmd
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := runCheck(cmd, nil)
	if err == nil {
		t.Fatal("expected an error when credentials are missing")
	}
	if out.Len() == 0 {
		t.Error("expected check output to be printed")
	}
}

func TestRunCheckPassesWithValidSettings(t *testing.T) {
	dir := t.TempDir()
	registryDir := filepath.Join(dir, "registry")
	if err := os.MkdirAll(registryDir, 0o755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, "luigi.env")
	content := "AUTH_USERNAME=admin\nAUTH_PASSWORD=secret\nREGISTRY_PATH=" + registryDir + "\nLOGS_PATH=" + filepath.Join(dir, "logs") + "\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	checkSettingsPath = envPath
	t.Cleanup(func() { checkSettingsPath = "" })

	cmd := checkCmd
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runCheck(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v, output: %s", err, out.String())
	}
}
