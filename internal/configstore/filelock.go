package configstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock holds an exclusive flock(2) lock on a sidecar ".lock" file next
// to a config file, serializing the backup-then-write sequence per spec §5:
// "a per-file exclusive lock ... concurrent writers are serialized."
type fileLock struct {
	f *os.File
}

// lockPath returns the sidecar lock file path for path.
func lockPath(path string) string {
	return path + ".lock"
}

// acquireLock opens (creating if needed) path's sidecar lock file and
// blocks until it holds an exclusive flock(2) on it.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(lockPath(path), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return &fileLock{f: f}, nil
}

// release unlocks and closes the sidecar lock file. The lock file itself is
// left on disk — recreating it each call is unnecessary churn and removing
// it here would race a concurrent acquireLock that just opened it.
func (l *fileLock) release() error {
	unlockErr := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
