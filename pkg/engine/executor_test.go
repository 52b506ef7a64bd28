package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

// funcModule adapts a function to the module contract.
type funcModule func(ctx context.Context, in domain.Record) (domain.Record, error)

func (f funcModule) Process(ctx context.Context, in domain.Record) (domain.Record, error) {
	return f(ctx, in)
}

func registerFunc(registry *module.Registry, name string, fn funcModule) {
	registry.Register(name, func(map[string]any) (module.Module, error) {
		return fn, nil
	})
}

func appendTrace(name string) funcModule {
	return func(_ context.Context, in domain.Record) (domain.Record, error) {
		out := in.Clone()
		trace, _ := out["trace"].([]string)
		out["trace"] = append(append([]string(nil), trace...), name)
		return out, nil
	}
}

func newTestExecutor(registry *module.Registry) *Executor {
	loader := NewLoader(LoaderConfig{Registry: registry})
	return NewExecutor(ExecutorConfig{Loader: loader})
}

func TestExecutorThreadsRecordInOrder(t *testing.T) {
	registry := module.NewRegistry()
	registerFunc(registry, "a", appendTrace("a"))
	registerFunc(registry, "b", appendTrace("b"))
	registerFunc(registry, "c", appendTrace("c"))
	executor := newTestExecutor(registry)

	out, err := executor.Execute(context.Background(), domain.Record{"x": 1}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if got, _ := out["trace"].([]string); !reflect.DeepEqual(got, want) {
		t.Fatalf("stage order %v, want %v", got, want)
	}
	if out["x"] != 1 {
		t.Fatalf("input key lost: %v", out)
	}
}

func TestExecutorEmptyPipelineIsIdentity(t *testing.T) {
	executor := newTestExecutor(module.NewRegistry())

	in := domain.Record{"x": 1, "y": "two"}
	out, err := executor.Execute(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("empty pipeline changed the record: %v vs %v", out, in)
	}

	// The returned record is a copy, not the caller's map.
	out["z"] = 3
	if _, ok := in["z"]; ok {
		t.Fatalf("executor returned the caller's record without copying")
	}
}

func TestExecutorDoesNotMutateInput(t *testing.T) {
	registry := module.NewRegistry()
	registerFunc(registry, "stamp", func(_ context.Context, in domain.Record) (domain.Record, error) {
		out := in.Clone()
		out["stamped"] = true
		return out, nil
	})
	executor := newTestExecutor(registry)

	in := domain.Record{"x": 1}
	if _, err := executor.Execute(context.Background(), in, []string{"stamp"}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if _, ok := in["stamped"]; ok {
		t.Fatalf("input record was mutated: %v", in)
	}
}

func TestExecutorAbortsOnStageFailure(t *testing.T) {
	registry := module.NewRegistry()
	boom := errors.New("stage blew up")
	ran := []string{}
	registerFunc(registry, "ok", func(_ context.Context, in domain.Record) (domain.Record, error) {
		ran = append(ran, "ok")
		return in.Clone(), nil
	})
	registerFunc(registry, "bad", func(context.Context, domain.Record) (domain.Record, error) {
		ran = append(ran, "bad")
		return nil, boom
	})
	registerFunc(registry, "after", func(_ context.Context, in domain.Record) (domain.Record, error) {
		ran = append(ran, "after")
		return in.Clone(), nil
	})
	executor := newTestExecutor(registry)

	_, err := executor.Execute(context.Background(), domain.Record{}, []string{"ok", "bad", "after"})

	var procErr *domain.ModuleProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ModuleProcessError, got %v", err)
	}
	if procErr.Module != "bad" || !errors.Is(err, boom) {
		t.Fatalf("process error lost context: %v", err)
	}
	if !reflect.DeepEqual(ran, []string{"ok", "bad"}) {
		t.Fatalf("stages after the failure still ran: %v", ran)
	}
}

func TestExecutorAbortsOnLoadFailure(t *testing.T) {
	registry := module.NewRegistry()
	registerFunc(registry, "ok", appendTrace("ok"))
	executor := newTestExecutor(registry)

	_, err := executor.Execute(context.Background(), domain.Record{}, []string{"ok", "ghost"})
	if !errors.Is(err, domain.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestExecutorNilStageOutputIsFailure(t *testing.T) {
	registry := module.NewRegistry()
	registerFunc(registry, "void", func(context.Context, domain.Record) (domain.Record, error) {
		return nil, nil
	})
	executor := newTestExecutor(registry)

	_, err := executor.Execute(context.Background(), domain.Record{}, []string{"void"})
	var procErr *domain.ModuleProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ModuleProcessError for nil output, got %v", err)
	}
}

func TestExecutorLoadsOnDemand(t *testing.T) {
	registry := module.NewRegistry()
	registerFunc(registry, "lazy", appendTrace("lazy"))
	loader := NewLoader(LoaderConfig{Registry: registry})
	executor := NewExecutor(ExecutorConfig{Loader: loader})

	if loader.Loaded("lazy") {
		t.Fatalf("module loaded before execution")
	}
	if _, err := executor.Execute(context.Background(), domain.Record{}, []string{"lazy"}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !loader.Loaded("lazy") {
		t.Fatalf("module not cached after on-demand load")
	}
}
