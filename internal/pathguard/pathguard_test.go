package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"luigi/internal/luigierrors"
)

func mustGuard(t *testing.T) (Guard, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "inside.conf"), []byte("x=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return New("config", root), root
}

func TestConfineAllowsPathsUnderRoot(t *testing.T) {
	g, _ := mustGuard(t)
	got, err := g.Confine("inside.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "inside.conf" {
		t.Errorf("got %s", got)
	}

	if _, err := g.Confine("sub/new.conf"); err != nil {
		t.Errorf("unexpected error for non-existent nested file: %v", err)
	}
}

func TestConfineRejectsTraversal(t *testing.T) {
	g, _ := mustGuard(t)
	cases := []string{
		"../escape.conf",
		"sub/../../escape.conf",
		"..",
		"sub/..",
	}
	for _, c := range cases {
		if _, err := g.Confine(c); err == nil {
			t.Errorf("Confine(%q) = nil error, want PathEscape", c)
		} else if !luigierrors.Is(err, luigierrors.KindPathEscape) {
			t.Errorf("Confine(%q) error kind unexpected: %v", c, err)
		}
	}
}

func TestConfineRejectsAbsolutePaths(t *testing.T) {
	g, _ := mustGuard(t)
	if _, err := g.Confine("/etc/shadow"); err == nil {
		t.Errorf("expected error for absolute path")
	}
}

func TestConfineRejectsNULByte(t *testing.T) {
	g, _ := mustGuard(t)
	if _, err := g.Confine("inside.conf\x00evil"); err == nil {
		t.Errorf("expected error for NUL byte")
	}
}

func TestConfineRejectsSymlinkEscape(t *testing.T) {
	if os.Getenv("CI_NO_SYMLINKS") != "" {
		t.Skip("symlinks unsupported")
	}
	g, root := mustGuard(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.conf")
	if err := os.WriteFile(secret, []byte("s=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlink creation unsupported: %v", err)
	}

	if _, err := g.Confine("escape/secret.conf"); err == nil {
		t.Errorf("expected PathEscape for symlink pointing outside root")
	}
}

func TestConfineRejectsDotDotInMiddle(t *testing.T) {
	g, _ := mustGuard(t)
	if _, err := g.Confine("sub/../../../etc/passwd"); err == nil {
		t.Errorf("expected error for traversal through multiple parents")
	}
}
