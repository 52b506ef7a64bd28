package agent

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

func TestStateMergePropertyLaterKeysWin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ag := New(Options{Registry: module.NewRegistry(), Logger: quietLogger()})

		keys := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 8).Draw(t, "keys")
		updates := rapid.IntRange(1, 5).Draw(t, "updates")

		expected := map[string]int{}
		for round := 0; round < updates; round++ {
			update := domain.Record{}
			for _, k := range keys {
				if rapid.Bool().Draw(t, "include") {
					v := rapid.IntRange(0, 1000).Draw(t, "value")
					update[k] = v
					expected[k] = v
				}
			}
			ag.UpdateState(update)
		}

		state := ag.State()
		if len(state) != len(expected) {
			t.Fatalf("state has %d keys, want %d", len(state), len(expected))
		}
		for k, v := range expected {
			if state[k] != v {
				t.Fatalf("state[%q] = %v, want %v", k, state[k], v)
			}
		}
	})
}

func TestPipelineAddRemoveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ag := New(Options{Registry: module.NewRegistry(), Logger: quietLogger()})

		names := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 12).Draw(t, "names")
		for _, name := range names {
			ag.AddModuleToPipeline(name, "p")
		}

		// Adds are set-like: no duplicates regardless of the input sequence.
		modules := ag.Pipelines()["p"]
		seen := map[string]bool{}
		for _, m := range modules {
			if seen[m] {
				t.Fatalf("duplicate module %q in pipeline: %v", m, modules)
			}
			seen[m] = true
		}

		// Every added name is present.
		for _, name := range names {
			if !seen[name] {
				t.Fatalf("module %q missing from pipeline: %v", name, modules)
			}
		}

		// Removing everything empties the pipeline; repeat removes are no-ops.
		for _, name := range names {
			ag.RemoveModuleFromPipeline(name, "p")
			ag.RemoveModuleFromPipeline(name, "p")
		}
		if got := ag.Pipelines()["p"]; len(got) != 0 {
			t.Fatalf("pipeline not empty after removing all modules: %v", got)
		}
	})
}
