package modules

import "github.com/modusai/modus/pkg/module"

// RegisterBuiltins binds every built-in module factory to the registry.
func RegisterBuiltins(registry *module.Registry) {
	registry.Register("passthrough", NewPassthrough)
	registry.Register("annotate", NewAnnotate)
	registry.Register("counter", NewCounter)
	registry.Register("policy", NewPolicy)
}
