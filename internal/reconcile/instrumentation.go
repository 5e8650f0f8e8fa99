package reconcile

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/wokai/wokcook/internal/reconcile"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
)

var (
	sentCounter, _ = meter.Int64Counter("wokcook.reconcile.sent",
		metric.WithDescription("Contextual updates sent to the agent for user step changes"))
	suppressedCounter, _ = meter.Int64Counter("wokcook.reconcile.suppressed",
		metric.WithDescription("Agent-caused step changes not echoed back"))
	droppedCounter, _ = meter.Int64Counter("wokcook.reconcile.dropped",
		metric.WithDescription("Contextual updates dropped because the channel was unavailable"))
)
