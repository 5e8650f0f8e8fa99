package gpt

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/wokai/wokcook/internal/gpt"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
)

var tokensUsed, _ = meter.Int64Counter("wokcook.gpt.tokens",
	metric.WithDescription("Total tokens reported by the chat endpoint"))
