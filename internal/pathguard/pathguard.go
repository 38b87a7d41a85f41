// Package pathguard confines request-supplied paths to a fixed root
// directory, per spec §4.2. Every filesystem path derived from an HTTP
// request must go through Confine before it is opened.
package pathguard

import (
	"path/filepath"
	"strings"

	"luigi/internal/luigierrors"
)

// Guard confines paths to a single root.
type Guard struct {
	// Root is the absolute, cleaned directory every Confine call is
	// anchored to. It does not need to exist on disk for Confine to
	// validate lexically, but symlink resolution (Confine) requires it.
	Root string
	// Name identifies the root in error messages ("config", "logs",
	// "modules") — spec §7's ValidationFailed messages name the root.
	Name string
}

// New returns a Guard rooted at the cleaned absolute form of root.
func New(name, root string) Guard {
	return Guard{Root: filepath.Clean(root), Name: name}
}

// Confine resolves userPath against g.Root and returns the absolute path,
// failing with a PathEscape taxonomy error if the result would lie outside
// the root. It rejects absolute input paths, ".." components, and NUL
// bytes before ever touching the filesystem; it then resolves symlinks (for
// both the root and the deepest existing ancestor of the candidate) and
// re-checks containment, so a symlink that escapes the root is caught even
// though the lexical path looked safe.
func (g Guard) Confine(userPath string) (string, error) {
	if strings.ContainsRune(userPath, 0) {
		return "", luigierrors.PathEscape(g.Name, userPath)
	}
	if filepath.IsAbs(userPath) {
		return "", luigierrors.PathEscape(g.Name, userPath)
	}
	for _, seg := range strings.Split(filepath.ToSlash(userPath), "/") {
		if seg == ".." {
			return "", luigierrors.PathEscape(g.Name, userPath)
		}
	}

	candidate := filepath.Clean(filepath.Join(g.Root, userPath))
	if !withinRoot(g.Root, candidate) {
		return "", luigierrors.PathEscape(g.Name, userPath)
	}

	resolved, err := resolveSymlinks(candidate)
	if err != nil {
		// Candidate (or an ancestor) doesn't exist yet — acceptable for a
		// write target; the lexical check above already guarantees
		// containment for the non-existent portion.
		return candidate, nil
	}
	root := g.Root
	if r, err := filepath.EvalSymlinks(g.Root); err == nil {
		root = r
	}
	if !withinRoot(root, resolved) {
		return "", luigierrors.PathEscape(g.Name, userPath)
	}
	return candidate, nil
}

// withinRoot reports whether candidate is root or a descendant of it.
func withinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}
