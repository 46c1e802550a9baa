package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/nhl-actions/internal/platform/jsontree"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const (
	keyHeadshot = "headshot"
	keyTeamLogo = "teamLogo"

	defaultPlayerFetchWorkers = 4
)

// resource describes one upstream endpoint. pathFormat takes the team
// abbreviation when teamScoped is set.
type resource struct {
	name       string
	pathFormat string
	teamScoped bool
	strip      []string
}

var (
	resourceTeamRoster     = resource{name: "team_roster", pathFormat: "/roster/%s/current", teamScoped: true, strip: []string{keyHeadshot}}
	resourceTeamScoreboard = resource{name: "team_scoreboard", pathFormat: "/scoreboard/%s/now", teamScoped: true}
	resourceTeamStats      = resource{name: "team_stats", pathFormat: "/club-stats/%s/now", teamScoped: true, strip: []string{keyHeadshot, keyTeamLogo}}
	resourceTeamSchedule   = resource{name: "team_schedule", pathFormat: "/club-schedule-season/%s/now", teamScoped: true}
	resourceStandings      = resource{name: "standings", pathFormat: "/standings/now"}
	resourceGoalieLeaders  = resource{name: "goalie_leaders", pathFormat: "/goalie-stats-leaders/current", strip: []string{keyHeadshot, keyTeamLogo}}
	resourceSkaterLeaders  = resource{name: "skater_leaders", pathFormat: "/skater-stats-leaders/current", strip: []string{keyHeadshot, keyTeamLogo}}
	resourceDailyScores    = resource{name: "daily_scores", pathFormat: "/score/now"}
	resourceScoreboard     = resource{name: "scoreboard", pathFormat: "/scoreboard/now"}
)

// rosterGroups are the player arrays of a roster payload, in output order.
var rosterGroups = []string{"forwards", "defensemen", "goalies"}

type StatsServiceConfig struct {
	PlayerFetchWorkers int
	Logger             *logging.Logger
}

// StatsService implements the fetch actions: each one optionally resolves a
// team, performs one GET and returns the stripped payload.
type StatsService struct {
	provider      StatsProvider
	teams         TeamDirectory
	artifacts     ArtifactWriter
	playerWorkers int
	logger        *logging.Logger
}

func NewStatsService(provider StatsProvider, teams TeamDirectory, artifacts ArtifactWriter, cfg StatsServiceConfig) *StatsService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.PlayerFetchWorkers
	if workers <= 0 {
		workers = defaultPlayerFetchWorkers
	}

	return &StatsService{
		provider:      provider,
		teams:         teams,
		artifacts:     artifacts,
		playerWorkers: workers,
		logger:        logger,
	}
}

// GetTeamRoster returns the current roster of the team matching query with
// headshots removed, and persists it as team_{ABBR}_roster. When refresh is
// set the team directory is rebuilt before resolving.
func (s *StatsService) GetTeamRoster(ctx context.Context, query string, refresh bool) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetTeamRoster")
	defer span.End()

	if refresh {
		if _, err := s.teams.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	abbr, payload, err := s.syncRoster(ctx, query)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("team.abbreviation", abbr))
	return payload, nil
}

// syncRoster fetches the stripped roster and persists it. Nothing is written
// when the fetch fails.
func (s *StatsService) syncRoster(ctx context.Context, query string) (string, any, error) {
	abbr, payload, err := s.fetchTeamResource(ctx, resourceTeamRoster, query)
	if err != nil {
		return abbr, nil, err
	}
	if err := s.artifacts.Write(ctx, rosterArtifactName(abbr), payload); err != nil {
		return abbr, nil, fmt.Errorf("write roster artifact: %w", err)
	}
	return abbr, payload, nil
}

func (s *StatsService) GetPlayer(ctx context.Context, playerID int64) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetPlayer")
	defer span.End()

	if playerID <= 0 {
		return nil, fmt.Errorf("%w: player id must be positive, got %d", ErrInvalidInput, playerID)
	}
	span.SetAttributes(attribute.Int64("player.id", playerID))

	return s.provider.GetJSON(ctx, playerPath(playerID))
}

func (s *StatsService) GetTeamScoreboard(ctx context.Context, query string) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetTeamScoreboard")
	defer span.End()

	_, payload, err := s.fetchTeamResource(ctx, resourceTeamScoreboard, query)
	return payload, err
}

func (s *StatsService) GetTeamStats(ctx context.Context, query string) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetTeamStats")
	defer span.End()

	_, payload, err := s.fetchTeamResource(ctx, resourceTeamStats, query)
	return payload, err
}

func (s *StatsService) GetTeamSchedule(ctx context.Context, query string) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetTeamSchedule")
	defer span.End()

	_, payload, err := s.fetchTeamResource(ctx, resourceTeamSchedule, query)
	return payload, err
}

func (s *StatsService) GetStandings(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetStandings")
	defer span.End()

	return s.fetch(ctx, resourceStandings, resourceStandings.pathFormat)
}

func (s *StatsService) GetGoalieLeaders(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetGoalieLeaders")
	defer span.End()

	return s.fetch(ctx, resourceGoalieLeaders, resourceGoalieLeaders.pathFormat)
}

func (s *StatsService) GetSkaterLeaders(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetSkaterLeaders")
	defer span.End()

	return s.fetch(ctx, resourceSkaterLeaders, resourceSkaterLeaders.pathFormat)
}

func (s *StatsService) GetDailyScores(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetDailyScores")
	defer span.End()

	return s.fetch(ctx, resourceDailyScores, resourceDailyScores.pathFormat)
}

func (s *StatsService) GetScoreboard(ctx context.Context) (any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetScoreboard")
	defer span.End()

	return s.fetch(ctx, resourceScoreboard, resourceScoreboard.pathFormat)
}

type TeamPlayers struct {
	TeamAbbreviation string `json:"team_abbreviation"`
	Players          []any  `json:"players"`
}

// GetTeamPlayers fetches the roster of the team matching query and then the
// detail of every listed player, writing one player_{id} artifact each. Any
// failed player fetch fails the whole call.
func (s *StatsService) GetTeamPlayers(ctx context.Context, query string) (TeamPlayers, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetTeamPlayers")
	defer span.End()

	abbr, roster, err := s.syncRoster(ctx, query)
	if err != nil {
		return TeamPlayers{}, err
	}

	ids := rosterPlayerIDs(roster)
	span.SetAttributes(attribute.String("team.abbreviation", abbr), attribute.Int("player.count", len(ids)))

	players := make([]any, len(ids))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(s.playerWorkers)
	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			payload, err := s.provider.GetJSON(ctx, playerPath(id))
			if err != nil {
				return fmt.Errorf("fetch player %d: %w", id, err)
			}
			if err := s.artifacts.Write(ctx, fmt.Sprintf("player_%d", id), payload); err != nil {
				return fmt.Errorf("write player %d artifact: %w", id, err)
			}
			players[i] = payload
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return TeamPlayers{}, err
	}

	s.logger.InfoContext(ctx, "team players fetched", "team", abbr, "players", len(players))
	return TeamPlayers{TeamAbbreviation: abbr, Players: players}, nil
}

func (s *StatsService) fetchTeamResource(ctx context.Context, res resource, query string) (string, any, error) {
	abbr, err := s.teams.Resolve(ctx, query)
	if err != nil {
		return "", nil, err
	}

	payload, err := s.fetch(ctx, res, fmt.Sprintf(res.pathFormat, abbr))
	if err != nil {
		return abbr, nil, err
	}
	if res.teamScoped && jsontree.IsEmpty(payload) {
		return abbr, nil, fmt.Errorf("%w: team %s has no %s", ErrEmptyResult, abbr, res.name)
	}
	return abbr, payload, nil
}

func (s *StatsService) fetch(ctx context.Context, res resource, path string) (any, error) {
	payload, err := s.provider.GetJSON(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "stats fetch failed", "resource", res.name, "path", path, "error", err)
		return nil, err
	}
	return jsontree.Strip(payload, res.strip...), nil
}

func rosterArtifactName(abbr string) string {
	return fmt.Sprintf("team_%s_roster", strings.ToUpper(abbr))
}

func playerPath(id int64) string {
	return fmt.Sprintf("/player/%d", id)
}

// rosterPlayerIDs returns the numeric ids listed in a roster payload in
// group order, skipping duplicates and entries without an id.
func rosterPlayerIDs(roster any) []int64 {
	obj, ok := roster.(map[string]any)
	if !ok {
		return nil
	}

	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, group := range rosterGroups {
		items, _ := obj[group].([]any)
		for _, item := range items {
			player, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, ok := numericID(player["id"])
			if !ok || id <= 0 {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func numericID(v any) (int64, bool) {
	switch typed := v.(type) {
	case float64:
		if typed != float64(int64(typed)) {
			return 0, false
		}
		return int64(typed), true
	case int64:
		return typed, true
	case int:
		return int64(typed), true
	default:
		return 0, false
	}
}
