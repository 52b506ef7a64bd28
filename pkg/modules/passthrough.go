package modules

import (
	"context"
	"log/slog"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

// passthrough logs the record and forwards a copy unchanged. Useful as a
// pipeline placeholder and for tracing data flow at debug level.
type passthrough struct {
	logger *slog.Logger
}

// NewPassthrough constructs the passthrough module. It takes no configuration.
func NewPassthrough(_ map[string]any) (module.Module, error) {
	return &passthrough{logger: slog.Default()}, nil
}

func (m *passthrough) Process(_ context.Context, in domain.Record) (domain.Record, error) {
	m.logger.Debug("passthrough", "keys", len(in))
	return in.Clone(), nil
}
