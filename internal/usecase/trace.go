package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("nhl-actions/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startUsecaseSpan opens a child span named "usecase.<Service>.<Operation>"
// when the caller is already traced. Scheduled refreshes and tests run
// untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	service, operation, ok := splitUsecaseSpanName(name)
	if !ok || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}

	attrs = append(attrs,
		attribute.String("usecase.service", service),
		attribute.String("usecase.operation", operation),
	)
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func splitUsecaseSpanName(name string) (service, operation string, ok bool) {
	parts := strings.Split(strings.TrimSpace(name), ".")
	if len(parts) != 3 || parts[0] != "usecase" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
