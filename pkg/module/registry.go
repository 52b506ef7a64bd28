package module

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry maps module names to factories. It is the module source the
// loader resolves against.
//
// Registration is last-wins on duplicate names: re-registering a name
// replaces the previous factory. Callers that need the old behaviour should
// register under a distinct name instead.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    slog.Default(),
	}
}

// Register binds a factory to a name, replacing any existing binding.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		r.logger.Debug("replacing module factory", "module", name)
	}
	r.factories[name] = factory
}

// Lookup returns the factory bound to name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns all registered module names, sorted. Sorting keeps
// auto-discovered pipelines deterministic across runs.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
