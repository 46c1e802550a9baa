package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "roster action", in: "httpapi.Handler.GetTeamRoster", want: true},
		{name: "sync action", in: "httpapi.Handler.SyncRosters", want: true},
		{name: "bare prefix", in: "httpapi.Handler.", want: false},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "envelope helper", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldCreateHTTPAPISpan(tt.in)
			if got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestActionFromSpanName(t *testing.T) {
	got, ok := actionFromSpanName("httpapi.Handler.GetSkaterLeaders")
	if !ok || got != "GetSkaterLeaders" {
		t.Fatalf("unexpected action %q ok=%v", got, ok)
	}
}

func TestStartSpan_UntracedRequestIsNoop(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := startSpan(ctx, "httpapi.Handler.GetStandings")
	defer span.End()

	if gotCtx != ctx {
		t.Fatalf("expected context to be returned unchanged")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected noop span outside a traced request")
	}
	if trace.SpanFromContext(gotCtx).SpanContext().IsValid() {
		t.Fatalf("expected no span in returned context")
	}
}
