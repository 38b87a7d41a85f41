package registry

import (
	"os"
	"path/filepath"
	"testing"

	"luigi/internal/luigierrors"
)

func writeEntry(t *testing.T, root, filename, modulePath, name, status string, caps []string) {
	t.Helper()
	data := `{
		"module_path": "` + modulePath + `",
		"name": "` + name + `",
		"version": "1.0.0",
		"category": "motion-detection",
		"status": "` + status + `",
		"capabilities": [` + joinQuoted(caps) + `]
	}`
	if err := os.WriteFile(filepath.Join(root, filename), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func joinQuoted(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += `"` + s + `"`
	}
	return out
}

func TestEncodeDecodeBijection(t *testing.T) {
	paths := []string{"motion-detection/mario", "a/b/c", "simple"}
	for _, p := range paths {
		encoded := EncodeModulePath(p)
		decoded := DecodeFilename(encoded)
		if decoded != p {
			t.Errorf("decode(encode(%q)) = %q", p, decoded)
		}
	}
}

func TestListEmptyRootReturnsEmptyNotError(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "does-not-exist"))
	entries, err := r.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestListSortsByModulePathAndSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "motion-detection__zeta.json", "motion-detection/zeta", "zeta", "active", []string{"service"})
	writeEntry(t, root, "motion-detection__alpha.json", "motion-detection/alpha", "alpha", "installed", []string{"service", "sound"})
	if err := os.WriteFile(filepath.Join(root, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(root)
	entries, err := r.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (malformed skipped), got %d", len(entries))
	}
	if entries[0].ModulePath != "motion-detection/alpha" || entries[1].ModulePath != "motion-detection/zeta" {
		t.Errorf("entries not sorted: %+v", entries)
	}
}

func TestGetReturnsNotFoundForMissing(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Get("does/not-exist")
	if !luigierrors.Is(err, luigierrors.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetRoundTripsEncoding(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "motion-detection__mario.json", "motion-detection/mario", "mario", "active", []string{"service", "sound"})

	r := New(root)
	entry, err := r.Get("motion-detection/mario")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Name != "mario" {
		t.Errorf("Name = %q", entry.Name)
	}
	if entry.SourceFile() != "motion-detection__mario.json" {
		t.Errorf("SourceFile() = %q", entry.SourceFile())
	}
}

func TestFindByName(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "motion-detection__mario.json", "motion-detection/mario", "mario", "active", []string{"service"})

	r := New(root)
	entry, found, err := r.FindByName("mario")
	if err != nil || !found {
		t.Fatalf("expected to find mario: found=%v err=%v", found, err)
	}
	if entry.ModulePath != "motion-detection/mario" {
		t.Errorf("ModulePath = %q", entry.ModulePath)
	}

	_, found, err = r.FindByName("luigi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Errorf("expected not found for unknown name")
	}
}

func TestStatsAggregation(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "a__one.json", "a/one", "one", "active", []string{"service", "sound"})
	writeEntry(t, root, "a__two.json", "a/two", "two", "failed", []string{"service"})
	writeEntry(t, root, "b__three.json", "b/three", "three", "active", []string{"cli-tools"})

	r := New(root)
	stats, err := r.Stats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.ByStatus["active"] != 2 {
		t.Errorf("ByStatus[active] = %d", stats.ByStatus["active"])
	}
	if stats.ByCategory["a"] != 2 {
		t.Errorf("ByCategory[a] = %d", stats.ByCategory["a"])
	}
	if stats.ByCapability["service"] != 2 {
		t.Errorf("ByCapability[service] = %d", stats.ByCapability["service"])
	}
}
