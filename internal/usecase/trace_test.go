package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitUsecaseSpanName(t *testing.T) {
	t.Parallel()

	service, operation, ok := splitUsecaseSpanName("usecase.StatsService.GetTeamRoster")
	assert.True(t, ok)
	assert.Equal(t, "StatsService", service)
	assert.Equal(t, "GetTeamRoster", operation)

	for _, name := range []string{"", "  ", "usecase.StatsService", "httpapi.Handler.GetPlayer", "usecase..Refresh"} {
		_, _, ok := splitUsecaseSpanName(name)
		assert.Falsef(t, ok, "expected %q to be rejected", name)
	}
}

func TestStartUsecaseSpan_UntracedIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.TeamDirectoryService.Refresh")
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.False(t, span.SpanContext().IsValid())
}
