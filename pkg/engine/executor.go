package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor threads a record through an ordered list of module names,
// resolving each stage through the loader.
type Executor struct {
	loader *Loader
	logger *slog.Logger
}

// ExecutorConfig holds dependencies for creating an Executor.
type ExecutorConfig struct {
	Loader *Loader
	Logger *slog.Logger
}

// NewExecutor creates an executor bound to a loader.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{loader: cfg.Loader, logger: logger}
}

// Execute runs the pipeline over a copy of in. Each stage's output is the
// next stage's input; the record produced by the last stage is returned. An
// empty pipeline returns the copied input unchanged.
//
// The first failure, whether a load failure or a stage's Process call,
// aborts the remaining stages immediately. There is no retry and no
// partial-pipeline recovery.
func (e *Executor) Execute(ctx context.Context, in domain.Record, pipeline []string) (domain.Record, error) {
	return e.ExecuteNamed(ctx, in, pipeline, "")
}

// ExecuteNamed is Execute with a pipeline name attached to logs, spans, and
// metrics. The name is informational only and does not affect execution.
func (e *Executor) ExecuteNamed(ctx context.Context, in domain.Record, pipeline []string, name string) (domain.Record, error) {
	executionID := uuid.NewString()

	tracer := otel.Tracer("modus.pipeline")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.String("execution.id", executionID),
		attribute.String("pipeline.name", name),
		attribute.Int("pipeline.stages", len(pipeline)),
	))
	defer span.End()

	e.logger.Debug("executing pipeline",
		"execution_id", executionID,
		"pipeline", name,
		"stages", len(pipeline),
	)

	current := in.Clone()

	for i, moduleName := range pipeline {
		stageCtx, stageSpan := tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
			attribute.String("module.name", moduleName),
			attribute.Int("stage.position", i),
		))

		start := time.Now()
		next, err := e.executeStage(stageCtx, current, moduleName)
		duration := time.Since(start)

		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeProcessFailed
			var loadErr *domain.ModuleLoadError
			if errors.As(err, &loadErr) || errors.Is(err, domain.ErrModuleNotFound) {
				outcome = telemetry.OutcomeLoadFailed
			}
		}
		telemetry.RecordStageMetrics(stageCtx, telemetry.StageMetrics{
			Pipeline: name,
			Module:   moduleName,
			Position: i,
			Outcome:  outcome,
			Duration: duration,
		})

		if err != nil {
			e.logger.Error("stage execution failed",
				"execution_id", executionID,
				"pipeline", name,
				"module", moduleName,
				"stage", i,
				"error", err,
			)
			stageSpan.RecordError(err)
			stageSpan.SetStatus(codes.Error, err.Error())
			stageSpan.End()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		stageSpan.End()
		current = next
	}

	return current, nil
}

// executeStage loads one module and runs its Process call against the
// current record.
func (e *Executor) executeStage(ctx context.Context, current domain.Record, moduleName string) (domain.Record, error) {
	inst, err := e.loader.Load(moduleName)
	if err != nil {
		return nil, err
	}

	out, err := inst.Process(ctx, current)
	if err != nil {
		return nil, &domain.ModuleProcessError{Module: moduleName, Err: err}
	}
	if out == nil {
		return nil, &domain.ModuleProcessError{
			Module: moduleName,
			Err:    fmt.Errorf("process returned nil record"),
		}
	}
	return out, nil
}
