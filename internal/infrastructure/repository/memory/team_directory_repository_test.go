package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamDirectoryRepository_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTeamDirectoryRepository()

	exists, err := repo.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	items := []team.Team{
		{Name: "Boston Bruins", Abbreviation: "BOS"},
		{Name: "Toronto Maple Leafs", Abbreviation: "TOR"},
	}
	require.NoError(t, repo.Replace(ctx, items))

	items[0].Abbreviation = "MUTATED"

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []team.Team{
		{Name: "Boston Bruins", Abbreviation: "BOS"},
		{Name: "Toronto Maple Leafs", Abbreviation: "TOR"},
	}, got)

	exists, err = repo.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTeamDirectoryRepository_InvalidReplaceKeepsPrevious(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewTeamDirectoryRepository()
	require.NoError(t, repo.Replace(ctx, []team.Team{{Name: "Boston Bruins", Abbreviation: "BOS"}}))

	err := repo.Replace(ctx, []team.Team{{Name: "", Abbreviation: "XXX"}})
	require.Error(t, err)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []team.Team{{Name: "Boston Bruins", Abbreviation: "BOS"}}, got)
}
