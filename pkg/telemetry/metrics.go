package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StageOutcome classifies how a pipeline stage finished.
type StageOutcome string

const (
	// OutcomeSuccess indicates the stage returned a record.
	OutcomeSuccess StageOutcome = "success"
	// OutcomeLoadFailed indicates the module could not be resolved or constructed.
	OutcomeLoadFailed StageOutcome = "load_failed"
	// OutcomeProcessFailed indicates the stage's Process call raised.
	OutcomeProcessFailed StageOutcome = "process_failed"
)

var (
	metricsOnce           sync.Once
	metricsInitErr        error
	stageExecutionCounter metric.Int64Counter
	stageFailureCounter   metric.Int64Counter
	stageLatencyHistogram metric.Float64Histogram
)

// StageMetrics captures the fields needed to record pipeline stage telemetry.
type StageMetrics struct {
	Pipeline string
	Module   string
	Position int
	Outcome  StageOutcome
	Duration time.Duration
}

// RecordStageMetrics emits counters and histograms that describe stage
// execution behaviour.
func RecordStageMetrics(ctx context.Context, metrics StageMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("pipeline.name", metrics.Pipeline),
		attribute.String("module.name", metrics.Module),
		attribute.Int("stage.position", metrics.Position),
		attribute.String("stage.outcome", string(metrics.Outcome)),
	}

	stageExecutionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if metrics.Duration > 0 {
		stageLatencyHistogram.Record(ctx, float64(metrics.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	if metrics.Outcome != OutcomeSuccess {
		stageFailureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("modus.pipeline")

		stageExecutionCounter, metricsInitErr = meter.Int64Counter(
			"modus.stage.executions_total",
			metric.WithDescription("Pipeline stage executions partitioned by outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		stageFailureCounter, metricsInitErr = meter.Int64Counter(
			"modus.stage.failures_total",
			metric.WithDescription("Pipeline stage failures partitioned by outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		stageLatencyHistogram, metricsInitErr = meter.Float64Histogram(
			"modus.stage.duration_ms",
			metric.WithDescription("Pipeline stage latency in milliseconds"),
			metric.WithUnit("ms"),
		)
	})

	return metricsInitErr
}
