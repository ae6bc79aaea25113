package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("lineage.orchestrator")
	meter  = otel.Meter("lineage.orchestrator")
)

var (
	unitDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		unitDuration, err = meter.Float64Histogram(
			"lineage_unit_duration_seconds",
			metric.WithDescription("Time to parse, build and commit one unit"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startUnitSpan(ctx context.Context, file string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Pipeline.AnalyzeUnit",
		trace.WithAttributes(attribute.String("unit.file", file)),
	)
}

func setUnitSpanResult(span trace.Span, rep UnitReport, err error) {
	span.SetAttributes(
		attribute.Int("unit.nodes", rep.Nodes),
		attribute.Int("unit.edges", rep.Edges),
		attribute.Int("unit.unhandled", rep.Unhandled),
		attribute.Int("unit.unresolved", rep.Unresolved),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func recordUnitDuration(ctx context.Context, d time.Duration, ok bool) {
	if err := initMetrics(); err != nil {
		return
	}
	unitDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("ok", ok)))
}
