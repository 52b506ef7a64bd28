// Package engine implements module dispatch and pipeline execution for the
// Modus agent runtime.
//
// Architecture:
//
// loader.go   - Module instance lifecycle (resolve, construct, cache, unload)
// executor.go - Linear pipeline execution threading a record through stages
//
// The loader owns at most one live instance per module name and is the only
// component that constructs modules. The executor resolves each stage through
// the loader on demand, so pipelines may reference modules that were never
// preloaded.
package engine
