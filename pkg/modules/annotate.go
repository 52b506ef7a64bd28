package modules

import (
	"context"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

// annotate stamps configured key/values onto every record that passes
// through it.
//
// Configuration:
//
//	set:       mapping of keys to values added to the record
//	overwrite: when true, configured values replace existing keys
type annotate struct {
	set       map[string]any
	overwrite bool
}

// NewAnnotate constructs the annotate module from its configuration fragment.
func NewAnnotate(config map[string]any) (module.Module, error) {
	m := &annotate{set: map[string]any{}}

	if raw, ok := config["set"].(map[string]any); ok {
		for k, v := range raw {
			m.set[k] = v
		}
	}
	if overwrite, ok := config["overwrite"].(bool); ok {
		m.overwrite = overwrite
	}
	return m, nil
}

func (m *annotate) Process(_ context.Context, in domain.Record) (domain.Record, error) {
	out := in.Clone()
	for k, v := range m.set {
		if _, exists := out[k]; exists && !m.overwrite {
			continue
		}
		out[k] = v
	}
	return out, nil
}
