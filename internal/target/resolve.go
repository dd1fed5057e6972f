package target

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"relink/internal/platform"
	"relink/internal/stats"
)

// FileEntry is a regular file discovered under a target set.
// Entries are immutable once resolved.
type FileEntry struct {
	Path    string
	DevIno  platform.DevIno
	Size    int64
	ModTime time.Time
}

// Resolved is the outcome of resolving one target set: the eligible files in
// traversal order, the device every file lives on, and the non-fatal
// per-path problems that were skipped over.
type Resolved struct {
	Set      Set
	Device   uint64
	Files    []FileEntry
	Warnings []error
}

// Resolver expands target sets into candidate files. Symlinks are never
// followed; files below MinSize are dropped.
type Resolver struct {
	MinSize int64
	Stats   *stats.Collector

	// statFn is swapped out in tests to simulate foreign devices.
	statFn func(fs.FileInfo) (platform.DevIno, bool)
}

// NewResolver creates a Resolver. minSize is clamped to at least one byte,
// so zero-length files can never become dedup candidates.
func NewResolver(minSize int64, st *stats.Collector) *Resolver {
	if minSize < 1 {
		minSize = 1
	}
	return &Resolver{MinSize: minSize, Stats: st, statFn: platform.Stat}
}

// Resolve walks every root of set in order and collects its regular files.
// A non-nil error means the whole set is unusable: its first root could not
// be resolved, or a file on a different device was discovered (all roots of
// one set must share a device for hardlinking to be possible).
func (r *Resolver) Resolve(set Set) (*Resolved, error) {
	res := &Resolved{Set: set}
	deviceKnown := false

	for _, root := range set.Roots {
		info, err := os.Lstat(root)
		if err != nil {
			if !deviceKnown {
				return nil, fmt.Errorf("resolve first target %s: %w", root, err)
			}
			r.warn(res, fmt.Errorf("skipping target %s: %w", root, err))
			continue
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			r.warn(res, fmt.Errorf("skipping symlink target %s", root))
			continue
		}

		if !deviceKnown {
			dev, err := platform.DeviceOf(root)
			if err != nil {
				return nil, fmt.Errorf("device of first target %s: %w", root, err)
			}
			res.Device = dev
			deviceKnown = true
		}

		switch {
		case info.IsDir():
			if err := r.walkDir(res, root); err != nil {
				return nil, err
			}
		case info.Mode().IsRegular():
			if err := r.addFile(res, root, info); err != nil {
				return nil, err
			}
		default:
			r.warn(res, fmt.Errorf("skipping non-regular target %s", root))
		}
	}

	slog.Debug("target set resolved",
		"set", set.Index+1,
		"roots", len(set.Roots),
		"files", len(res.Files),
		"warnings", len(res.Warnings))
	return res, nil
}

// walkDir recurses into dir depth-first in directory order. Unreadable
// subdirectories are warnings; a device mismatch aborts the set.
func (r *Resolver) walkDir(res *Resolved, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.warn(res, fmt.Errorf("read dir %s: %w", dir, err))
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Symlinks to files and to directories alike are skipped, never
		// followed. Deduplicating through a symlink could escape the set.
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if err := r.walkDir(res, path); err != nil {
				return err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			r.warn(res, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		if err := r.addFile(res, path, info); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) addFile(res *Resolved, path string, info fs.FileInfo) error {
	r.Stats.AddFilesScanned(1)

	if info.Size() < r.MinSize {
		return nil
	}

	di, ok := r.statFn(info)
	if !ok {
		r.warn(res, fmt.Errorf("no inode metadata for %s", path))
		return nil
	}
	if di.Dev != res.Device {
		return fmt.Errorf("target set %d spans devices: %s is on device %d, set is on device %d",
			res.Set.Index+1, path, di.Dev, res.Device)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		r.warn(res, fmt.Errorf("absolute path for %s: %w", path, err))
		return nil
	}

	res.Files = append(res.Files, FileEntry{
		Path:    abs,
		DevIno:  di,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
	return nil
}

func (r *Resolver) warn(res *Resolved, err error) {
	res.Warnings = append(res.Warnings, err)
	r.Stats.AddPathErrors(1)
	slog.Warn("path skipped", "error", err)
}
