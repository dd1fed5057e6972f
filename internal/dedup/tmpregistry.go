package dedup

import (
	"os"
	"sync"
)

// TmpRegistry tracks in-flight temporary link names so an interrupted run
// can remove them on shutdown. It is owned by the run and passed to the
// executor; there is no process-wide instance.
type TmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewTmpRegistry creates an empty registry.
func NewTmpRegistry() *TmpRegistry {
	return &TmpRegistry{paths: make(map[string]struct{})}
}

// Register records a temporary path as in-flight.
func (r *TmpRegistry) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = struct{}{}
}

// Deregister forgets a temporary path once it has been renamed or removed.
func (r *TmpRegistry) Deregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// Cleanup removes every registered temporary path, best effort.
func (r *TmpRegistry) Cleanup() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	r.paths = make(map[string]struct{})
	r.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}
