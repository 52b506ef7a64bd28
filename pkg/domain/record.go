package domain

// Record is the unit of data passed between pipeline stages and to/from the
// caller. It has no fixed schema; modules agree on keys by convention.
//
// Two key families are reserved:
//
//   - KeyAgentState and KeyTimestamp are injected by the agent before pipeline
//     execution and are read-only context for modules.
//   - KeyStateUpdate may be set by a module to signal a state mutation. The
//     agent consumes and strips it after pipeline execution; it is never
//     returned to the caller.
type Record map[string]any

// Reserved record keys.
const (
	// KeyAgentState carries a snapshot of agent state into the pipeline.
	KeyAgentState = "_agent_state"
	// KeyTimestamp carries the wall-clock time (Unix seconds) at which the
	// process call started.
	KeyTimestamp = "_timestamp"
	// KeyStateUpdate is an optional module output signalling a shallow merge
	// into agent state.
	KeyStateUpdate = "_agent_state_update"
)

// Clone returns a shallow copy of the record. Values are shared; modules that
// modify nested structures must copy them first.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge shallow-merges update into the record, later keys winning.
func (r Record) Merge(update Record) {
	for k, v := range update {
		r[k] = v
	}
}

// StateUpdate extracts the state-update marker. The second return reports
// whether the key existed at all; the returned record is nil when the marker
// is present but not a mapping, in which case it is stripped without merging.
func (r Record) StateUpdate() (Record, bool) {
	raw, ok := r[KeyStateUpdate]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	default:
		return nil, true
	}
}
