package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"luigi/internal/luigierrors"
)

// Update resolves ref, backs up the existing file to "<path>.backup", and
// applies patch: a shallow top-level merge for JSON, or a byte-preserving
// per-line key replacement for INI (spec §4.5). The whole read-backup-write
// sequence runs under an exclusive per-path flock(2) (spec §5), so two
// concurrent updates of the same file are serialized rather than racing to
// overwrite each other's backup and rename; the new content is then written
// via a temp-file-then-rename in the same directory so a concurrent reader
// never observes a partially written file.
func (s *Store) Update(ref string, patch map[string]string) error {
	path, err := s.Resolve(ref)
	if err != nil {
		return err
	}

	lock, err := acquireLock(path)
	if err != nil {
		return luigierrors.Wrap(luigierrors.KindInternal, err, "config lock failed")
	}
	defer lock.release()

	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return luigierrors.NotFound("config", ref)
		}
		return luigierrors.Wrap(luigierrors.KindInternal, err, "config file unreadable")
	}

	if err := backupFile(path, original); err != nil {
		return luigierrors.Wrap(luigierrors.KindInternal, err, "config backup failed")
	}

	var updated []byte
	switch detectFormat(path) {
	case FormatJSON:
		updated, err = mergeJSON(original, patch)
		if err != nil {
			return luigierrors.Wrap(luigierrors.KindInternal, err, "invalid JSON config")
		}
	default:
		updated = []byte(rewriteINILines(string(original), patch))
	}

	return atomicWrite(path, updated)
}

func backupFile(path string, original []byte) error {
	return os.WriteFile(path+".backup", original, 0o644)
}

// mergeJSON shallow-merges patch's keys over the top-level object in
// original and re-serializes with two-space indentation.
func mergeJSON(original []byte, patch map[string]string) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(original, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	for k, v := range patch {
		doc[k] = v
	}
	return json.MarshalIndent(doc, "", "  ")
}

// atomicWrite writes data to a temp file in path's directory and renames it
// over path, so readers never see a partially written file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".configstore-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
