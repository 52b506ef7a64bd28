package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

// Loader resolves module names into live, cached instances and owns their
// lifecycle. Load is idempotent: the first call per name constructs and
// initializes the instance, later calls return it unchanged. Configuration
// changes after first load take effect only after an explicit Unload.
type Loader struct {
	mu       sync.RWMutex
	registry *module.Registry
	configs  map[string]map[string]any
	cache    map[string]module.Module
	logger   *slog.Logger
}

// LoaderConfig holds dependencies for creating a Loader.
type LoaderConfig struct {
	// Registry is the module source names are resolved against.
	Registry *module.Registry
	// ModuleConfigs maps module names to the configuration fragment passed
	// verbatim to that module's factory.
	ModuleConfigs map[string]map[string]any
	Logger        *slog.Logger
}

// NewLoader creates a loader with an empty instance cache.
func NewLoader(cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = module.NewRegistry()
	}
	return &Loader{
		registry: registry,
		configs:  cfg.ModuleConfigs,
		cache:    make(map[string]module.Module),
		logger:   logger,
	}
}

// Discover returns the names of all modules resolvable through the registry,
// sorted. It is a pure read and instantiates nothing.
func (l *Loader) Discover() []string {
	return l.registry.Names()
}

// Load returns the live instance for name, constructing it on first use.
// It fails with domain.ErrModuleNotFound when no factory is registered for
// the name and wraps construction or initialization failures in
// *domain.ModuleLoadError.
func (l *Loader) Load(name string) (module.Module, error) {
	l.mu.RLock()
	if inst, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return inst, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Re-check under the write lock so concurrent loads of the same name
	// cannot double-construct.
	if inst, ok := l.cache[name]; ok {
		return inst, nil
	}

	factory, ok := l.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("resolve module %q: %w", name, domain.ErrModuleNotFound)
	}

	inst, err := factory(l.configs[name])
	if err != nil {
		return nil, &domain.ModuleLoadError{Module: name, Err: err}
	}
	if inst == nil {
		return nil, &domain.ModuleLoadError{
			Module: name,
			Err:    fmt.Errorf("factory returned nil instance"),
		}
	}

	if init, ok := inst.(module.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return nil, &domain.ModuleLoadError{Module: name, Err: err}
		}
	}

	l.cache[name] = inst
	l.logger.Info("loaded module", "module", name)
	return inst, nil
}

// Unload shuts down and drops the cached instance for name. It is a no-op
// when the name is not cached. Shutdown failures are logged and do not
// propagate.
func (l *Loader) Unload(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unloadLocked(name)
}

func (l *Loader) unloadLocked(name string) {
	inst, ok := l.cache[name]
	if !ok {
		return
	}
	if down, ok := inst.(module.Shutdowner); ok {
		if err := down.Shutdown(); err != nil {
			l.logger.Error("module shutdown failed", "module", name, "error", err)
		}
	}
	delete(l.cache, name)
	l.logger.Info("unloaded module", "module", name)
}

// Close unloads every cached instance. The order is unspecified but
// exhaustive; individual shutdown failures never abort the teardown.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for name := range l.cache {
		l.unloadLocked(name)
	}
	l.logger.Info("all modules unloaded")
}

// Count returns the number of currently cached instances.
func (l *Loader) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// Loaded reports whether name currently has a live cached instance.
func (l *Loader) Loaded(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cache[name]
	return ok
}
