package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/platform/cache"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/riskibarqy/nhl-actions/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

const (
	directoryCacheKey  = "team-directory"
	directoryFlightKey = "refresh"

	defaultDirectoryRefreshTimeout = 30 * time.Second

	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeNotFound = "not_found"
)

type TeamDirectoryServiceConfig struct {
	// CacheTTL keeps the loaded directory in memory. Zero or less reads the
	// store on every resolution.
	CacheTTL time.Duration
	// RefreshTimeout bounds a shared refresh or store load, which runs
	// detached from any single caller's cancellation.
	RefreshTimeout time.Duration
	Metrics        DirectoryMetrics
	Logger         *logging.Logger
}

// TeamDirectoryService owns the team directory: it refreshes it from the
// current standings and resolves free-text team queries to abbreviations.
type TeamDirectoryService struct {
	provider  StatsProvider
	directory team.Directory
	cacheTTL  time.Duration
	timeout   time.Duration
	cache     *cache.Store[[]team.Team]
	flight    resilience.Group[[]team.Team]
	metrics   DirectoryMetrics
	logger    *logging.Logger
}

func NewTeamDirectoryService(provider StatsProvider, directory team.Directory, cfg TeamDirectoryServiceConfig) *TeamDirectoryService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopDirectoryMetrics{}
	}
	timeout := cfg.RefreshTimeout
	if timeout <= 0 {
		timeout = defaultDirectoryRefreshTimeout
	}

	return &TeamDirectoryService{
		provider:  provider,
		directory: directory,
		cacheTTL:  cfg.CacheTTL,
		timeout:   timeout,
		cache:     cache.NewStore[[]team.Team](cfg.CacheTTL),
		metrics:   metrics,
		logger:    logger,
	}
}

// Refresh fetches the current standings, replaces the persisted directory
// wholesale and returns the new list. Concurrent refreshes share one
// upstream call.
func (s *TeamDirectoryService) Refresh(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamDirectoryService.Refresh")
	defer span.End()

	teams, err, shared := s.sharedRefresh(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("team.count", len(teams)), attribute.Bool("refresh.shared", shared))

	return cloneTeams(teams), nil
}

// ListTeams is the "list teams" action: always a fresh refresh.
func (s *TeamDirectoryService) ListTeams(ctx context.Context) ([]team.Team, error) {
	return s.Refresh(ctx)
}

// Teams returns the persisted directory, creating it from upstream when it
// does not exist yet.
func (s *TeamDirectoryService) Teams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamDirectoryService.Teams")
	defer span.End()

	teams, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneTeams(teams), nil
}

// Resolve returns the abbreviation of the first directory entry whose name or
// abbreviation contains query, case-insensitively. Ties go to directory order.
func (s *TeamDirectoryService) Resolve(ctx context.Context, query string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamDirectoryService.Resolve")
	defer span.End()

	teams, err := s.load(ctx)
	if err != nil {
		s.metrics.ObserveTeamResolution(outcomeFailure)
		return "", err
	}

	if query == "" && len(teams) > 0 {
		// Existing behaviour: the empty string is a substring of every entry.
		s.logger.WarnContext(ctx, "empty team query resolves to first directory entry", "abbreviation", teams[0].Abbreviation)
	}

	for _, item := range teams {
		if item.Matches(query) {
			s.metrics.ObserveTeamResolution(outcomeSuccess)
			span.SetAttributes(attribute.String("team.abbreviation", item.Abbreviation))
			return item.Abbreviation, nil
		}
	}

	s.metrics.ObserveTeamResolution(outcomeNotFound)
	return "", fmt.Errorf("%w: team %q", ErrNotFound, query)
}

func (s *TeamDirectoryService) refresh(ctx context.Context) ([]team.Team, error) {
	started := time.Now()
	fetched, err := s.provider.FetchStandingTeams(ctx)
	if err != nil {
		s.metrics.ObserveDirectoryRefresh(outcomeFailure, 0)
		s.logger.WarnContext(ctx, "fetch standings for team directory failed", "error", err)
		return nil, err
	}

	teams := normalizeDirectory(fetched)
	if err := s.directory.Replace(ctx, teams); err != nil {
		s.metrics.ObserveDirectoryRefresh(outcomeFailure, 0)
		return nil, fmt.Errorf("replace team directory: %w", err)
	}
	s.cache.Delete(ctx, directoryCacheKey)
	if s.cacheTTL > 0 {
		s.cache.Set(ctx, directoryCacheKey, teams)
	}

	s.metrics.ObserveDirectoryRefresh(outcomeSuccess, len(teams))
	s.logger.InfoContext(ctx, "team directory refreshed",
		"teams", len(teams),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return teams, nil
}

func (s *TeamDirectoryService) load(ctx context.Context) ([]team.Team, error) {
	if s.cacheTTL <= 0 {
		return s.loadFromStore(ctx)
	}
	return s.cache.GetOrLoad(ctx, directoryCacheKey, func(ctx context.Context) ([]team.Team, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.loadFromStore(ctx)
	})
}

// sharedRefresh joins or starts the one in-flight refresh. A caller that
// gives up does not cancel the refresh for the others.
func (s *TeamDirectoryService) sharedRefresh(ctx context.Context) ([]team.Team, error, bool) {
	return s.flight.DoContext(ctx, directoryFlightKey, func(ctx context.Context) ([]team.Team, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.refresh(ctx)
	})
}

func (s *TeamDirectoryService) loadFromStore(ctx context.Context) ([]team.Team, error) {
	exists, err := s.directory.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check team directory: %w", err)
	}
	if !exists {
		s.logger.InfoContext(ctx, "team directory missing, refreshing from standings")
		teams, err, _ := s.sharedRefresh(ctx)
		return teams, err
	}

	teams, err := s.directory.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load team directory: %w", err)
	}
	return teams, nil
}

// normalizeDirectory trims entries, drops incomplete ones and keeps the first
// occurrence of each abbreviation so the stored list stays unique.
func normalizeDirectory(items []team.Team) []team.Team {
	out := make([]team.Team, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		item.Abbreviation = strings.TrimSpace(item.Abbreviation)
		if item.Validate() != nil {
			continue
		}
		key := strings.ToUpper(item.Abbreviation)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func cloneTeams(items []team.Team) []team.Team {
	out := make([]team.Team, len(items))
	copy(out, items)
	return out
}
