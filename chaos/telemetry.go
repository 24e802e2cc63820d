package chaos

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Telemetry is an optional ambient observability hook, wired to
// OpenTelemetry counters the way the teacher's resilience package
// instruments its circuit breaker (resilience/metrics_otel.go's counter
// style, reimplemented here against a much smaller surface since this
// package has no dependency on gomind's own telemetry plumbing). Nothing
// in the core pipeline requires Telemetry to be set; RecordInjection is a
// no-op on a zero-value Telemetry.
type Telemetry struct {
	injections metric.Int64Counter
}

// NewTelemetry builds a Telemetry backed by the given meter, registering
// one counter for injected failures keyed by mode. Returns the zero value
// (safe to use) if meter is nil or registration fails, so callers that
// don't care about metrics can skip wiring this up entirely.
func NewTelemetry(meter metric.Meter) Telemetry {
	if meter == nil {
		return Telemetry{}
	}
	counter, err := meter.Int64Counter(
		"failure_lambda.injections",
		metric.WithDescription("count of failure modes actually dispatched by the orchestrator"),
	)
	if err != nil {
		return Telemetry{}
	}
	return Telemetry{injections: counter}
}

// RecordInjection increments the injection counter for mode. Safe to call
// on a zero-value Telemetry.
func (t Telemetry) RecordInjection(ctx context.Context, mode Mode) {
	if t.injections == nil {
		return
	}
	t.injections.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(mode))))
}
