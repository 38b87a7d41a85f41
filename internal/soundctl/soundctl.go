// Package soundctl is the auxiliary invoker for the "sound" capability: it
// lists and asynchronously plays named assets from a module's declared
// asset directory — spec §4.8. The sound capability is the one concrete
// instance of the general "named action on a module" pattern; nothing here
// is specific to audio beyond the extension-to-player mapping.
package soundctl

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"luigi/internal/executil"
	"luigi/internal/luigierrors"
	"luigi/internal/obslog"
	"luigi/internal/pathguard"
	"luigi/internal/registry"
)

// Asset is one playable file under a module's asset root.
type Asset struct {
	Name    string
	Size    int64
	ModTime time.Time
}

var allowedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
}

const playTimeout = 60 * time.Second

// Invoker resolves module names against reg and plays assets from their
// declared sound_directory.
type Invoker struct {
	registry *registry.Reader
}

// New returns a ready Invoker.
func New(reg *registry.Reader) *Invoker {
	return &Invoker{registry: reg}
}

// Modules returns the registry entries of modules carrying the "sound" capability.
func (inv *Invoker) Modules() ([]registry.Entry, error) {
	entries, err := inv.registry.List()
	if err != nil {
		return nil, err
	}
	out := make([]registry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasCapability("sound") {
			out = append(out, e)
		}
	}
	return out, nil
}

// List enumerates playable assets for module, sorted by name.
func (inv *Invoker) List(module string) ([]Asset, error) {
	entry, err := inv.resolveSoundModule(module)
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(entry.SoundDir)
	if err != nil {
		return nil, luigierrors.New(luigierrors.KindAssetRootMissing, "asset root unreadable")
	}

	assets := make([]Asset, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		assets = append(assets, Asset{Name: f.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// Invoke resolves asset under module's asset root, launches the appropriate
// player in a background goroutine, and returns without waiting for the
// player to start or finish. A launch failure and the exit code are logged,
// not delivered to the caller (spec §4.8, §9 design note 3).
func (inv *Invoker) Invoke(module, asset string) error {
	entry, err := inv.resolveSoundModule(module)
	if err != nil {
		return err
	}

	guard := pathguard.New("sound", entry.SoundDir)
	path, err := guard.Confine(asset)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return luigierrors.NotFound("asset", asset)
	}

	argv, err := playerFor(path)
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
		defer cancel()
		res, err := executil.Run(ctx, argv, executil.Options{Timeout: playTimeout})
		if err != nil {
			obslog.Error("Sound", err, "playback of %s/%s failed to launch", module, asset)
			return
		}
		obslog.Info("Sound", "playback of %s/%s exited with code %d", module, asset, res.ExitCode)
	}()

	return nil
}

func (inv *Invoker) resolveSoundModule(module string) (registry.Entry, error) {
	entry, found, err := inv.registry.FindByName(module)
	if err != nil {
		return registry.Entry{}, err
	}
	if !found {
		return registry.Entry{}, luigierrors.NotFound("module", module)
	}
	if !entry.HasCapability("sound") {
		return registry.Entry{}, luigierrors.New(luigierrors.KindCapabilityMissing, "module does not declare the sound capability")
	}
	if entry.SoundDir == "" {
		return registry.Entry{}, luigierrors.New(luigierrors.KindAssetRootMissing, "module has no sound_directory")
	}
	if _, err := os.Stat(entry.SoundDir); err != nil {
		return registry.Entry{}, luigierrors.New(luigierrors.KindAssetRootMissing, "asset root does not exist")
	}
	return entry, nil
}

// playerFor chooses a playback command by file extension.
func playerFor(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return []string{"aplay", "-q", path}, nil
	case ".mp3":
		return []string{"mpg123", "-q", path}, nil
	case ".ogg":
		return []string{"ogg123", "-q", path}, nil
	case ".flac":
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path}, nil
	default:
		return nil, luigierrors.New(luigierrors.KindValidationFailed, "unsupported audio extension")
	}
}
