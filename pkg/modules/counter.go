package modules

import (
	"context"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

// counter demonstrates the agent-state protocol: it reads its running count
// from the injected state snapshot and emits a state-update marker with the
// incremented value. The count a stage observes is the one merged after the
// previous process call, not the one emitted earlier in the same pipeline.
//
// Configuration:
//
//	key: state key holding the count (default "count")
type counter struct {
	key string
}

// NewCounter constructs the counter module from its configuration fragment.
func NewCounter(config map[string]any) (module.Module, error) {
	key := "count"
	if raw, ok := config["key"].(string); ok && raw != "" {
		key = raw
	}
	return &counter{key: key}, nil
}

func (m *counter) Process(_ context.Context, in domain.Record) (domain.Record, error) {
	seen := 0
	var state domain.Record
	switch s := in[domain.KeyAgentState].(type) {
	case domain.Record:
		state = s
	case map[string]any:
		state = domain.Record(s)
	}
	switch v := state[m.key].(type) {
	case int:
		seen = v
	case float64:
		seen = int(v)
	}

	out := in.Clone()
	out[domain.KeyStateUpdate] = domain.Record{m.key: seen + 1}
	return out, nil
}
