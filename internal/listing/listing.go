// Package listing enumerates regular files under target paths, filtered by
// extension and ordered by last-modified time. It is the pipeline sibling
// of the dedup engine: its output feeds other tools, it performs no
// deduplication itself.
package listing

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// Entry is one listed file.
type Entry struct {
	Path    string
	ModTime time.Time
}

// Registry accumulates matching files across targets.
type Registry struct {
	exts          map[string]struct{}
	includeHidden bool
	entries       []Entry
}

// New creates a Registry filtering for the given extensions (without dots).
// Files with no extension or a non-matching one are skipped.
func New(extensions []string, includeHidden bool) *Registry {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Registry{exts: exts, includeHidden: includeHidden}
}

// Populate adds every matching file under the targets, in order. A target
// that is itself a file is stat'ed directly (symlinks to files are
// deliberately followed for explicit targets); directories are walked
// recursively without following symlinks. Unreadable paths are skipped.
func (r *Registry) Populate(targets []string) {
	for _, t := range targets {
		info, err := os.Stat(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", t, err)
			continue
		}
		if info.IsDir() {
			r.addDir(t)
		} else if info.Mode().IsRegular() {
			r.addFile(t, info)
		}
	}
}

func (r *Registry) addDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !r.includeHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			r.addDir(path)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		r.addFile(path, info)
	}
}

func (r *Registry) addFile(path string, info fs.FileInfo) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return
	}
	if _, ok := r.exts[ext]; !ok {
		return
	}
	r.entries = append(r.entries, Entry{Path: path, ModTime: info.ModTime()})
}

// SortByModTime orders entries oldest first. The sort is stable so files
// with equal mtimes keep discovery order.
func (r *Registry) SortByModTime() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].ModTime.Before(r.entries[j].ModTime)
	})
}

// Entries returns the accumulated entries in their current order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// WriteAll writes one path per entry to w, separated by NUL when nullSep is
// set and newline otherwise, shell-quoting each path when quote is set.
func (r *Registry) WriteAll(w io.Writer, nullSep, quote bool) error {
	sep := byte('\n')
	if nullSep {
		sep = 0
	}
	for _, e := range r.entries {
		path := e.Path
		if quote {
			path = shellquote.Join(path)
		}
		if _, err := w.Write([]byte(path)); err != nil {
			return err
		}
		if _, err := w.Write([]byte{sep}); err != nil {
			return err
		}
	}
	return nil
}
