package pathguard

import (
	"os"
	"path/filepath"
)

// resolveSymlinks returns the canonical form of path: filepath.EvalSymlinks
// on the deepest existing ancestor, with the non-existent suffix (if any)
// rejoined unresolved. This lets Confine validate write targets (files that
// don't exist yet) while still catching a symlinked existing ancestor that
// points outside the root.
func resolveSymlinks(path string) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		return filepath.EvalSymlinks(path)
	}

	parent := filepath.Dir(path)
	if parent == path {
		return "", os.ErrNotExist
	}
	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
