package bridge

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/wokai/wokcook/internal/bridge"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
)

var toolCalls, _ = meter.Int64Counter("wokcook.bridge.tool_calls",
	metric.WithDescription("Agent tool calls by tool name and outcome"))
