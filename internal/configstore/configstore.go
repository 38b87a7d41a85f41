// Package configstore reads and updates module configuration files — INI
// and JSON — resolving a module name or explicit path to a file confined
// under the config root, per spec §4.5.
package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"luigi/internal/luigierrors"
	"luigi/internal/pathguard"
	"luigi/internal/registry"
)

// Format identifies a config file's wire shape.
type Format string

const (
	FormatINI  Format = "ini"
	FormatJSON Format = "json"
)

// File is the read-side projection of a resolved config file.
type File struct {
	Path    string // absolute path on disk
	Content string
	Parsed  any // map[string]map[string]string for INI, map[string]any for JSON
	Format  Format
}

// Store resolves module/path references to files confined under Root and
// performs INI/JSON reads and merge-updates.
type Store struct {
	guard    pathguard.Guard
	registry *registry.Reader
}

// New returns a Store rooted at configRoot, resolving module references
// against reg.
func New(configRoot string, reg *registry.Reader) *Store {
	return &Store{guard: pathguard.New("config", configRoot), registry: reg}
}

// probeOrder is the directory-probing precedence from spec §4.5 when a
// registry entry's config_path points at a directory.
func probeOrder(moduleName string) []string {
	return []string{
		moduleName + ".conf",
		moduleName + ".json",
		".env",
		"config.conf",
		"config.json",
	}
}

// Resolve implements spec §4.5's three-step resolution algorithm and
// returns the confined absolute path.
func (s *Store) Resolve(ref string) (string, error) {
	if looksLikeDirectPath(ref) {
		return s.guard.Confine(ref)
	}

	entry, found, err := s.lookupModule(ref)
	if err != nil {
		return "", err
	}
	if !found || entry.ConfigPath == nil || *entry.ConfigPath == "" {
		return "", luigierrors.NotFound("config", ref)
	}

	configPath := *entry.ConfigPath
	relConfigPath := relativeToRoot(configPath, s.guard.Root)

	info, statErr := os.Stat(absoluteUnderRoot(s.guard.Root, relConfigPath))
	if statErr != nil {
		return "", luigierrors.NotFound("config", ref)
	}
	if !info.IsDir() {
		return s.guard.Confine(relConfigPath)
	}

	for _, candidate := range probeOrder(shortModuleName(entry.ModulePath)) {
		candidatePath := filepath.Join(relConfigPath, candidate)
		if fi, err := os.Stat(absoluteUnderRoot(s.guard.Root, candidatePath)); err == nil && !fi.IsDir() {
			return s.guard.Confine(candidatePath)
		}
	}

	// Fall back to any *.conf|*.json|.env in the directory, lexicographic
	// filename order (documented as arbitrary-but-stable per spec §9 Q5).
	if match := globFallback(absoluteUnderRoot(s.guard.Root, relConfigPath)); match != "" {
		return s.guard.Confine(filepath.Join(relConfigPath, match))
	}

	return "", luigierrors.NotFound("config", ref)
}

func looksLikeDirectPath(ref string) bool {
	base := filepath.Base(ref)
	return strings.HasSuffix(ref, ".conf") || strings.HasSuffix(ref, ".json") || base == ".env"
}

func (s *Store) lookupModule(ref string) (registry.Entry, bool, error) {
	if entry, found, err := s.registry.FindByName(ref); err != nil {
		return registry.Entry{}, false, err
	} else if found {
		return entry, true, nil
	}
	entry, err := s.registry.Get(ref)
	if err != nil {
		if luigierrors.Is(err, luigierrors.KindNotFound) {
			return registry.Entry{}, false, nil
		}
		return registry.Entry{}, false, err
	}
	return entry, true, nil
}

func shortModuleName(modulePath string) string {
	if idx := strings.LastIndex(modulePath, "/"); idx >= 0 {
		return modulePath[idx+1:]
	}
	return modulePath
}

// relativeToRoot strips root from an absolute configPath recorded in the
// registry; registry entries may carry either an absolute path or one
// already relative to the config root.
func relativeToRoot(configPath, root string) string {
	if filepath.IsAbs(configPath) {
		if rel, err := filepath.Rel(root, configPath); err == nil {
			return rel
		}
		return configPath
	}
	return configPath
}

func absoluteUnderRoot(root, rel string) string {
	return filepath.Join(root, rel)
}

func globFallback(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".conf") || strings.HasSuffix(n, ".json") || n == ".env" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return ""
	}
	best := names[0]
	for _, n := range names[1:] {
		if n < best {
			best = n
		}
	}
	return best
}

// detectFormat classifies path by extension; anything not ending in .json
// is treated as INI (covers .conf and .env-like files, per spec §6).
func detectFormat(path string) Format {
	if strings.HasSuffix(path, ".json") {
		return FormatJSON
	}
	return FormatINI
}

// Read resolves ref, loads its content, and returns the parsed projection.
func (s *Store) Read(ref string) (File, error) {
	path, err := s.Resolve(ref)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, luigierrors.NotFound("config", ref)
		}
		return File{}, luigierrors.Wrap(luigierrors.KindInternal, err, "config file unreadable")
	}

	format := detectFormat(path)
	file := File{Path: path, Content: string(data), Format: format}

	switch format {
	case FormatJSON:
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return File{}, luigierrors.Wrap(luigierrors.KindInternal, err, "invalid JSON config")
		}
		file.Parsed = parsed
	default:
		file.Parsed = parseINI(string(data))
	}
	return file, nil
}
