package soundctl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"luigi/internal/luigierrors"
	"luigi/internal/registry"
)

func writeSoundModule(t *testing.T, regRoot, soundDir string) {
	t.Helper()
	data := `{"module_path":"motion-detection/mario","name":"mario","version":"1.0.0","category":"motion-detection","status":"active","capabilities":["service","sound"],"sound_directory":"` + soundDir + `"}`
	if err := os.WriteFile(filepath.Join(regRoot, "motion-detection__mario.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListSortsAndFiltersByExtension(t *testing.T) {
	regRoot := t.TempDir()
	soundDir := t.TempDir()
	writeSoundModule(t, regRoot, soundDir)

	for _, name := range []string{"zzz.wav", "aaa.mp3", "ignore.txt"} {
		if err := os.WriteFile(filepath.Join(soundDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	inv := New(registry.New(regRoot))
	assets, err := inv.List("mario")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d: %+v", len(assets), assets)
	}
	if assets[0].Name != "aaa.mp3" || assets[1].Name != "zzz.wav" {
		t.Errorf("expected sorted by name, got %+v", assets)
	}
}

func TestListFailsForModuleWithoutSoundCapability(t *testing.T) {
	regRoot := t.TempDir()
	data := `{"module_path":"a/b","name":"b","version":"1.0.0","category":"a","status":"active","capabilities":["service"]}`
	if err := os.WriteFile(filepath.Join(regRoot, "a__b.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := New(registry.New(regRoot))
	_, err := inv.List("b")
	if !luigierrors.Is(err, luigierrors.KindCapabilityMissing) {
		t.Errorf("expected CapabilityMissing, got %v", err)
	}
}

func TestListFailsWhenAssetRootMissing(t *testing.T) {
	regRoot := t.TempDir()
	writeSoundModule(t, regRoot, filepath.Join(t.TempDir(), "does-not-exist"))

	inv := New(registry.New(regRoot))
	_, err := inv.List("mario")
	if !luigierrors.Is(err, luigierrors.KindAssetRootMissing) {
		t.Errorf("expected AssetRootMissing, got %v", err)
	}
}

func TestInvokeRejectsPathEscape(t *testing.T) {
	regRoot := t.TempDir()
	soundDir := t.TempDir()
	writeSoundModule(t, regRoot, soundDir)

	inv := New(registry.New(regRoot))
	err := inv.Invoke("mario", "../../etc/passwd")
	if !luigierrors.Is(err, luigierrors.KindPathEscape) {
		t.Errorf("expected PathEscape, got %v", err)
	}
}

func TestInvokeRejectsMissingAsset(t *testing.T) {
	regRoot := t.TempDir()
	soundDir := t.TempDir()
	writeSoundModule(t, regRoot, soundDir)

	inv := New(registry.New(regRoot))
	err := inv.Invoke("mario", "does-not-exist.wav")
	if !luigierrors.Is(err, luigierrors.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestInvokeReturnsImmediatelyForExistingAsset(t *testing.T) {
	regRoot := t.TempDir()
	soundDir := t.TempDir()
	writeSoundModule(t, regRoot, soundDir)
	if err := os.WriteFile(filepath.Join(soundDir, "callingmario1.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := New(registry.New(regRoot))
	start := time.Now()
	err := inv.Invoke("mario", "callingmario1.wav")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Errorf("Invoke blocked for %v, want near-instant return", elapsed)
	}
}

func TestPlayerForUnsupportedExtension(t *testing.T) {
	_, err := playerFor("song.xyz")
	if !luigierrors.Is(err, luigierrors.KindValidationFailed) {
		t.Errorf("expected ValidationFailed, got %v", err)
	}
}
