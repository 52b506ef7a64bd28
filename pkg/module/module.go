package module

import (
	"context"

	"github.com/modusai/modus/pkg/domain"
)

// Module is the contract every processing unit implements. Process is the
// only method the executor calls during pipeline execution.
//
// Implementations MUST:
//   - Treat the input record as read-only and return a derived record
//   - Run synchronously; side effects are bounded to the pipeline turn
//
// Implementations MAY perform I/O and should honour ctx cancellation when
// they do, but the runtime itself imposes no deadline: a hung Process call
// hangs the whole pipeline by design.
type Module interface {
	Process(ctx context.Context, in domain.Record) (domain.Record, error)
}

// Initializer is an optional hook run exactly once, immediately after
// construction and before the instance is returned to any caller. A failure
// is a load failure.
type Initializer interface {
	Initialize() error
}

// Shutdowner is an optional hook run exactly once, on explicit unload or
// engine-wide close. Failures are logged by the caller and do not abort the
// remaining teardown.
type Shutdowner interface {
	Shutdown() error
}

// Factory constructs a module instance from its name-scoped configuration
// fragment. The fragment may be nil when the configuration carries nothing
// for the module.
type Factory func(config map[string]any) (Module, error)
