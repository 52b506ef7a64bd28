package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrAgentNotRunning  = errors.New("agent is not running")
	ErrPipelineNotFound = errors.New("pipeline not found")
	ErrModuleNotFound   = errors.New("module not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// ModuleLoadError reports a failure to construct or initialize a module
// instance. It wraps the underlying cause so callers can use errors.Is/As.
type ModuleLoadError struct {
	Module string
	Err    error
}

func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("load module %q: %v", e.Module, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

// ModuleProcessError reports a failure raised by a pipeline stage's Process
// call. The failing stage aborts the remaining pipeline.
type ModuleProcessError struct {
	Module string
	Err    error
}

func (e *ModuleProcessError) Error() string {
	return fmt.Sprintf("module %q process: %v", e.Module, e.Err)
}

func (e *ModuleProcessError) Unwrap() error {
	return e.Err
}
