package validate

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dusk-indust/lineage/internal/graph"
)

var (
	tracer = otel.Tracer("lineage.validate")
	meter  = otel.Meter("lineage.validate")
)

var (
	issuesTotal     metric.Int64Counter
	traversalsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		issuesTotal, err = meter.Int64Counter(
			"lineage_issues_total",
			metric.WithDescription("Issues emitted by data-flow validation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		traversalsTotal, err = meter.Int64Counter(
			"lineage_traversals_total",
			metric.WithDescription("Lineage traversals by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startValidateSpan(ctx context.Context, starts int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Validator.Validate",
		trace.WithAttributes(attribute.Int("validate.starts", starts)),
	)
}

func setValidateSpanResult(span trace.Span, issues int, canceled bool) {
	span.SetAttributes(
		attribute.Int("validate.issues", issues),
		attribute.Bool("validate.canceled", canceled),
	)
}

func recordResults(ctx context.Context, results []Result, issues []graph.Node) {
	if err := initMetrics(); err != nil {
		return
	}
	for _, r := range results {
		if r.Skipped {
			continue
		}
		traversalsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", r.Status.String())))
	}
	for _, is := range issues {
		issuesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", is.Code)))
	}
}
