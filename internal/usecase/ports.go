package usecase

import (
	"context"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
)

// StatsProvider performs single GET calls against the stats API.
type StatsProvider interface {
	// GetJSON fetches path and returns the decoded body (map[string]any,
	// []any or a scalar). A zero-length body decodes to nil.
	GetJSON(ctx context.Context, path string) (any, error)
	// FetchStandingTeams returns the {name, abbreviation} pairs of the
	// current standings in upstream order.
	FetchStandingTeams(ctx context.Context) ([]team.Team, error)
}

// ArtifactWriter persists a transformed payload under a logical name such as
// "team_BOS_roster".
type ArtifactWriter interface {
	Write(ctx context.Context, name string, payload any) error
}

// DirectoryMetrics receives directory refresh and resolution outcomes.
type DirectoryMetrics interface {
	ObserveDirectoryRefresh(outcome string, teams int)
	ObserveTeamResolution(outcome string)
}

type nopDirectoryMetrics struct{}

func (nopDirectoryMetrics) ObserveDirectoryRefresh(string, int) {}
func (nopDirectoryMetrics) ObserveTeamResolution(string)        {}

// TeamDirectory resolves team queries and rebuilds the directory on demand.
type TeamDirectory interface {
	Resolve(ctx context.Context, query string) (string, error)
	Refresh(ctx context.Context) ([]team.Team, error)
	Teams(ctx context.Context) ([]team.Team, error)
}

var _ TeamDirectory = (*TeamDirectoryService)(nil)
