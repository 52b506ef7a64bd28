// Package agent implements the orchestration layer of the Modus runtime: it
// owns long-lived agent state and the catalog of named pipelines, and drives
// one end-to-end process call at a time through the engine.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modusai/modus/pkg/config"
	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/engine"
	"github.com/modusai/modus/pkg/module"
)

// DefaultPipeline is the pipeline selected when a process call names none.
const DefaultPipeline = "default"

// Agent coordinates module execution and maintains state across process
// calls. All exported methods are safe for concurrent use; the state, the
// pipeline catalog, and the running flag share one lock so a process call
// observes them consistently.
type Agent struct {
	mu           sync.RWMutex
	loader       *engine.Loader
	executor     *engine.Executor
	state        domain.Record
	pipelines    map[string][]string
	preload      []string
	autoDiscover bool
	running      bool
	logger       *slog.Logger
	metrics      *Metrics
}

// Options configures an Agent.
type Options struct {
	// Registry is the module source; required.
	Registry *module.Registry
	// Config supplies the pipeline catalog, preload list, auto-discover flag,
	// and per-module configuration fragments. May be nil.
	Config *config.Config
	Logger *slog.Logger
	// Metrics may be nil to disable Prometheus instrumentation.
	Metrics *Metrics
}

// New creates an agent. The agent is not running until Initialize is called.
func New(opts Options) *Agent {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	loader := engine.NewLoader(engine.LoaderConfig{
		Registry:      opts.Registry,
		ModuleConfigs: cfg.Modules,
		Logger:        logger,
	})

	pipelines := make(map[string][]string, len(cfg.Pipelines))
	for name, modules := range cfg.Pipelines {
		pipelines[name] = append([]string(nil), modules...)
	}

	return &Agent{
		loader:       loader,
		executor:     engine.NewExecutor(engine.ExecutorConfig{Loader: loader, Logger: logger}),
		state:        make(domain.Record),
		pipelines:    pipelines,
		preload:      append([]string(nil), cfg.PreloadModules...),
		autoDiscover: cfg.AutoDiscover,
		logger:       logger,
		metrics:      opts.Metrics,
	}
}

// Initialize transitions the agent to running. It discovers available
// modules (informational) and eagerly loads the configured preload list,
// tolerating individual preload failures. Calling Initialize again re-runs
// discovery and preload.
func (a *Agent) Initialize() {
	a.logger.Info("initializing agent")

	available := a.loader.Discover()
	a.logger.Info("discovered modules", "count", len(available), "modules", available)

	for _, name := range a.preload {
		if _, err := a.loader.Load(name); err != nil {
			a.logger.Error("failed to preload module", "module", name, "error", err)
		}
	}
	a.metrics.SetModulesLoaded(a.loader.Count())

	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	a.logger.Info("agent initialized")
}

// Process threads input through the selected pipeline and merges any
// state-update marker from the result back into agent state.
//
// Pipeline selection, in order: the explicit pipelineName (which must exist),
// the "default" pipeline if present, the full discovered module set when
// auto-discover is configured, and finally the empty pipeline, which returns
// the enriched input unchanged.
func (a *Agent) Process(ctx context.Context, input domain.Record, pipelineName string) (domain.Record, error) {
	start := time.Now()

	a.mu.RLock()
	if !a.running {
		a.mu.RUnlock()
		return nil, domain.ErrAgentNotRunning
	}
	stateSnapshot := a.state.Clone()
	pipeline, selected, err := a.selectPipelineLocked(pipelineName)
	a.mu.RUnlock()

	if err != nil {
		a.metrics.RecordProcess(pipelineName, "error", time.Since(start))
		return nil, err
	}

	enriched := input.Clone()
	enriched[domain.KeyAgentState] = stateSnapshot
	enriched[domain.KeyTimestamp] = float64(time.Now().UnixNano()) / float64(time.Second)

	a.logger.Info("executing pipeline", "pipeline", selected, "stages", len(pipeline))

	result, err := a.executor.ExecuteNamed(ctx, enriched, pipeline, selected)
	if err != nil {
		a.metrics.RecordProcess(selected, "error", time.Since(start))
		a.metrics.SetModulesLoaded(a.loader.Count())
		return nil, err
	}

	if update, ok := result.StateUpdate(); ok {
		a.mu.Lock()
		a.state.Merge(update)
		stateSize := len(a.state)
		a.mu.Unlock()
		delete(result, domain.KeyStateUpdate)
		a.metrics.SetStateKeys(stateSize)
	}

	a.metrics.RecordProcess(selected, "success", time.Since(start))
	a.metrics.SetModulesLoaded(a.loader.Count())
	return result, nil
}

// selectPipelineLocked resolves the pipeline to execute and the name used
// for logging and metrics. Callers must hold at least the read lock.
func (a *Agent) selectPipelineLocked(pipelineName string) ([]string, string, error) {
	if pipelineName != "" {
		modules, ok := a.pipelines[pipelineName]
		if !ok {
			return nil, "", fmt.Errorf("pipeline %q: %w", pipelineName, domain.ErrPipelineNotFound)
		}
		return append([]string(nil), modules...), pipelineName, nil
	}

	if modules, ok := a.pipelines[DefaultPipeline]; ok {
		return append([]string(nil), modules...), DefaultPipeline, nil
	}

	if a.autoDiscover {
		return a.loader.Discover(), "auto", nil
	}

	return nil, DefaultPipeline, nil
}

// AddModuleToPipeline appends moduleName to the pipeline, creating the
// pipeline if absent. The append is set-like: a module already present is
// not added again.
func (a *Agent) AddModuleToPipeline(moduleName, pipelineName string) {
	if pipelineName == "" {
		pipelineName = DefaultPipeline
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.pipelines[pipelineName] {
		if existing == moduleName {
			return
		}
	}
	a.pipelines[pipelineName] = append(a.pipelines[pipelineName], moduleName)
	a.logger.Info("added module to pipeline", "module", moduleName, "pipeline", pipelineName)
}

// RemoveModuleFromPipeline removes the first occurrence of moduleName from
// the pipeline. It is a no-op when either the pipeline or the entry is
// absent.
func (a *Agent) RemoveModuleFromPipeline(moduleName, pipelineName string) {
	if pipelineName == "" {
		pipelineName = DefaultPipeline
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	modules, ok := a.pipelines[pipelineName]
	if !ok {
		return
	}
	for i, existing := range modules {
		if existing == moduleName {
			a.pipelines[pipelineName] = append(modules[:i:i], modules[i+1:]...)
			a.logger.Info("removed module from pipeline", "module", moduleName, "pipeline", pipelineName)
			return
		}
	}
}

// RegisterPipeline replaces the pipeline's module list wholesale with a copy
// of modules. No dedup is enforced; duplicate stages run twice.
func (a *Agent) RegisterPipeline(pipelineName string, modules []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pipelines[pipelineName] = append([]string(nil), modules...)
	a.logger.Info("registered pipeline", "pipeline", pipelineName, "modules", modules)
}

// Pipelines returns a snapshot copy of the pipeline catalog.
func (a *Agent) Pipelines() map[string][]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string][]string, len(a.pipelines))
	for name, modules := range a.pipelines {
		out[name] = append([]string(nil), modules...)
	}
	return out
}

// State returns a snapshot copy of agent state. Mutating the copy does not
// affect the agent.
func (a *Agent) State() domain.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Clone()
}

// UpdateState shallow-merges update into agent state, later keys winning.
func (a *Agent) UpdateState(update domain.Record) {
	a.mu.Lock()
	a.state.Merge(update)
	stateSize := len(a.state)
	a.mu.Unlock()
	a.metrics.SetStateKeys(stateSize)
}

// Shutdown closes all module instances and marks the agent stopped. Calling
// Shutdown when already stopped is a no-op.
func (a *Agent) Shutdown() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	a.logger.Info("shutting down agent")
	a.loader.Close()
	a.metrics.SetModulesLoaded(0)
}

// Loader exposes the underlying module loader for embedding callers that
// manage module lifecycle directly.
func (a *Agent) Loader() *engine.Loader {
	return a.loader
}
