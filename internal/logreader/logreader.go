// Package logreader lists and tails log files under the logs root, with a
// journal fallback when no on-disk file exists for a module — spec §4.6.
package logreader

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"luigi/internal/executil"
	"luigi/internal/luigierrors"
	"luigi/internal/pathguard"
)

const (
	maxWalkDepth = 3
	defaultLines = 100
	maxLines     = 10000

	journalTimeout = 10 * time.Second
)

// Entry describes one discovered log file.
type Entry struct {
	Path    string // logs-root-relative path
	Name    string
	Size    int64
	ModTime time.Time
}

// TailOptions configures Tail.
type TailOptions struct {
	Lines  int    // 0 means defaultLines
	Search string // case-insensitive substring match; empty means no filter
}

// Reader walks and tails files under a logs root.
type Reader struct {
	guard pathguard.Guard
}

// New returns a Reader rooted at logsRoot.
func New(logsRoot string) *Reader {
	return &Reader{guard: pathguard.New("logs", logsRoot)}
}

// List walks the logs root to a bounded depth, returning every regular file
// named "*.log" outside any "journal/" subtree, sorted by modification time
// descending (spec §4.6).
func (r *Reader) List() ([]Entry, error) {
	root := r.guard.Root
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll
			}
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		depth := len(strings.Split(filepath.ToSlash(rel), "/"))

		if d.IsDir() {
			if d.Name() == "journal" {
				return filepath.SkipDir
			}
			if depth >= maxWalkDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if depth > maxWalkDepth {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".log") {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		entries = append(entries, Entry{
			Path:    rel,
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, luigierrors.Wrap(luigierrors.KindInternal, err, "logs root unreadable")
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ModTime.After(entries[j].ModTime) })
	return entries, nil
}

// Tail confines ref under the logs root and returns the last N lines (or
// the lines matching Search, case-insensitive). If the on-disk file is
// absent, it falls back to a journal query for the unit derived from ref's
// base name (spec §4.6).
func (r *Reader) Tail(ctx context.Context, ref string, opts TailOptions) ([]string, error) {
	lines := opts.Lines
	if lines <= 0 {
		lines = defaultLines
	}
	if lines > maxLines {
		lines = maxLines
	}

	path, err := r.guard.Confine(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r.journalFallback(ctx, ref, lines, opts.Search)
		}
		return nil, luigierrors.Wrap(luigierrors.KindInternal, err, "log file unreadable")
	}

	return filterAndTail(splitLines(string(data)), lines, opts.Search), nil
}

func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func filterAndTail(all []string, lines int, search string) []string {
	if search != "" {
		needle := strings.ToLower(search)
		matched := make([]string, 0, len(all))
		for _, line := range all {
			if strings.Contains(strings.ToLower(line), needle) {
				matched = append(matched, line)
			}
		}
		all = matched
	}
	if len(all) <= lines {
		return all
	}
	return all[len(all)-lines:]
}

// journalFallback derives a unit name from ref's base name (stripping any
// ".log" suffix) and queries journalctl for its last N entries.
func (r *Reader) journalFallback(ctx context.Context, ref string, lines int, search string) ([]string, error) {
	unit := strings.TrimSuffix(filepath.Base(ref), ".log")
	if !strings.HasSuffix(unit, ".service") {
		unit += ".service"
	}

	res, err := executil.Run(ctx, []string{
		"journalctl", "-u", unit, "-n", strconv.Itoa(lines), "--no-pager", "--output=cat",
	}, executil.Options{Timeout: journalTimeout})
	if err != nil || res.ExitCode != 0 {
		return nil, luigierrors.NotFound("log", ref)
	}

	return filterAndTail(splitLines(res.Stdout), lines, search), nil
}
