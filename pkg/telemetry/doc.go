// Package telemetry wires OpenTelemetry exporters and meters for the Modus
// agent runtime.
//
// It centralises trace provider setup, applies runtime-specific resource
// attributes, and records per-stage execution metrics so operators can
// correlate pipeline behaviour with module performance.
package telemetry
