package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var apiTracer = otel.Tracer("nhl-actions/internal/interfaces/httpapi")
var noopSpan = trace.SpanFromContext(context.Background())

// startSpan only opens spans for action handlers inside a traced request.
// Each span is tagged with the action name, e.g. "GetTeamRoster".
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}
	action, ok := actionFromSpanName(name)
	if !ok {
		return ctx, noopSpan
	}

	attrs = append(attrs, attribute.String("nhl.action", action))
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func actionFromSpanName(name string) (string, bool) {
	action, ok := strings.CutPrefix(name, handlerSpanPrefix)
	if !ok || action == "" {
		return "", false
	}
	return action, true
}

func shouldCreateHTTPAPISpan(name string) bool {
	_, ok := actionFromSpanName(name)
	return ok
}
