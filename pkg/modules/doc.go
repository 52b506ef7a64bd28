// Package modules ships the built-in processing modules and registers them
// against a module registry at process startup.
//
// Built-ins:
//
// passthrough.go - logs and forwards the record unchanged
// annotate.go    - stamps configured key/values onto the record
// counter.go     - counts invocations through the agent-state protocol
// policy.go      - OPA/Rego gate over the record
//
// Every built-in follows the same shape: an unexported struct constructed by
// a Factory, optional Initialize/Shutdown hooks, and a Process method that
// returns a derived copy of its input.
package modules
