// Package registry reads the on-disk module registry: one JSON descriptor
// per module under a registry root, filename derived from module_path by
// replacing "/" with "__" — spec §3, §4.3.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"luigi/internal/luigierrors"
	"luigi/internal/obslog"
)

// Entry is one module's registry descriptor.
type Entry struct {
	ModulePath    string            `json:"module_path"`
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	InstalledAt   string            `json:"installed_at"`
	UpdatedAt     string            `json:"updated_at"`
	InstalledBy   string            `json:"installed_by"`
	InstallMethod string            `json:"install_method"`
	Status        string            `json:"status"`
	Capabilities  []string          `json:"capabilities"`
	Dependencies  []string          `json:"dependencies"`
	AptPackages   []string          `json:"apt_packages"`
	Author        string            `json:"author"`
	Provides      []string          `json:"provides"`
	ServiceName   *string           `json:"service_name"`
	ConfigPath    *string           `json:"config_path"`
	LogPath       *string           `json:"log_path"`
	Hardware      json.RawMessage   `json:"hardware,omitempty"`
	SoundDir      string            `json:"sound_directory,omitempty"`

	// sourceFile is the registry-relative filename this entry was parsed
	// from, tagged on read per spec §4.3.
	sourceFile string
}

// SourceFile returns the registry-relative filename this entry was loaded
// from (e.g. "motion-detection__mario.json").
func (e Entry) SourceFile() string { return e.sourceFile }

// HasCapability reports whether cap is present in e.Capabilities.
func (e Entry) HasCapability(cap string) bool {
	for _, c := range e.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Stats aggregates counters over the full registry, per spec §4.3.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	ByCategory   map[string]int `json:"by_category"`
	ByCapability map[string]int `json:"by_capability"`
}

// Reader reads and parses registry entries under Root.
type Reader struct {
	Root string
}

// New returns a Reader rooted at root.
func New(root string) *Reader {
	return &Reader{Root: filepath.Clean(root)}
}

// EncodeModulePath converts "motion-detection/mario" to the registry
// filename "motion-detection__mario.json" — the § 3/§6 bijective encoding.
func EncodeModulePath(modulePath string) string {
	return strings.ReplaceAll(modulePath, "/", "__") + ".json"
}

// DecodeFilename is EncodeModulePath's inverse: it strips the .json suffix
// and restores "/" from "__". It is the caller's responsibility to ensure
// filename actually ends in .json.
func DecodeFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".json")
	return strings.ReplaceAll(name, "__", "/")
}

// List enumerates every *.json file under Root, parses it, and returns the
// entries sorted by ModulePath ascending. A missing registry root yields an
// empty list, not an error (spec §4.3). A malformed individual file is
// logged and skipped — it never fails the whole call.
func (r *Reader) List() ([]Entry, error) {
	files, err := os.ReadDir(r.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, luigierrors.Wrap(luigierrors.KindInternal, err, "registry root unreadable")
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := r.readFile(f.Name())
		if err != nil {
			obslog.Warn("Registry", "skipping malformed registry file %s: %v", f.Name(), err)
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ModulePath < entries[j].ModulePath })
	return entries, nil
}

// Get returns the single entry for modulePath, or a NotFound taxonomy error.
func (r *Reader) Get(modulePath string) (Entry, error) {
	filename := EncodeModulePath(modulePath)
	entry, err := r.readFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, luigierrors.NotFound("module", modulePath)
		}
		return Entry{}, luigierrors.Wrap(luigierrors.KindInternal, err, "registry entry unreadable")
	}
	return entry, nil
}

// FindByName scans List() for the first entry whose Name equals name,
// used to resolve short names to a full module_path (spec §4.3, §4.5).
func (r *Reader) FindByName(name string) (Entry, bool, error) {
	entries, err := r.List()
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Stats aggregates counters over List().
func (r *Reader) Stats() (Stats, error) {
	entries, err := r.List()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		ByStatus:     map[string]int{},
		ByCategory:   map[string]int{},
		ByCapability: map[string]int{},
	}
	for _, e := range entries {
		stats.Total++
		stats.ByStatus[e.Status]++
		// A module's category is the first segment of its module path.
		category := e.Category
		if first, _, ok := strings.Cut(e.ModulePath, "/"); ok {
			category = first
		}
		stats.ByCategory[category]++
		for _, cap := range e.Capabilities {
			stats.ByCapability[cap]++
		}
	}
	return stats, nil
}

func (r *Reader) readFile(filename string) (Entry, error) {
	path := filepath.Join(r.Root, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, luigierrors.Wrap(luigierrors.KindInternal, err, "invalid registry JSON")
	}
	e.sourceFile = filename
	return e, nil
}
