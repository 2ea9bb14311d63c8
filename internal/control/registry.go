package control

import (
	"sync"

	"github.com/tshepang/rustic/internal/supervise"
)

// Registry is the process-wide record of the last command and resolved
// directory per role. It lives for the process lifetime and is reset only
// by Clear; nothing is persisted across restarts.
type Registry struct {
	mu      sync.RWMutex
	entries map[supervise.Role]registryEntry
}

type registryEntry struct {
	command []string
	dir     string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[supervise.Role]registryEntry)}
}

// Record stores the role's command and directory after a successful start.
func (r *Registry) Record(role supervise.Role, command []string, dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]string, len(command))
	copy(cp, command)
	r.entries[role] = registryEntry{command: cp, dir: dir}
}

// LastCommand returns the role's recorded command.
func (r *Registry) LastCommand(role supervise.Role) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[role]
	if !ok {
		return nil, false
	}
	cp := make([]string, len(e.command))
	copy(cp, e.command)
	return cp, true
}

// LastDir returns the role's recorded working directory.
func (r *Registry) LastDir(role supervise.Role) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[role]
	if !ok || e.dir == "" {
		return "", false
	}
	return e.dir, true
}

// Clear drops all recorded state.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[supervise.Role]registryEntry)
}
