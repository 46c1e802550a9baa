package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
)

const (
	rosterSyncStatusSuccess = "success"
	rosterSyncStatusFailed  = "failed"

	defaultRosterSyncWorkers = 4
	maxRosterSyncWorkers     = 16
)

type RosterSyncInput struct {
	// Teams are free-text team queries. Empty syncs every directory team.
	Teams      []string
	MaxWorkers int
}

type RosterSyncResult struct {
	TaskCount    int                    `json:"task_count"`
	SuccessCount int                    `json:"success_count"`
	FailedCount  int                    `json:"failed_count"`
	WorkerCount  int                    `json:"worker_count"`
	Tasks        []RosterSyncTaskResult `json:"tasks"`
}

type RosterSyncTaskResult struct {
	Query            string `json:"query"`
	TeamAbbreviation string `json:"team_abbreviation,omitempty"`
	Status           string `json:"status"`
	DurationMs       int64  `json:"duration_ms"`
	Message          string `json:"message,omitempty"`
}

// RosterSyncService refreshes roster artifacts for many teams at once.
type RosterSyncService struct {
	stats          *StatsService
	teams          TeamDirectory
	defaultWorkers int
	logger         *logging.Logger
}

func NewRosterSyncService(stats *StatsService, teams TeamDirectory, defaultWorkers int, logger *logging.Logger) *RosterSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if defaultWorkers <= 0 {
		defaultWorkers = defaultRosterSyncWorkers
	}
	return &RosterSyncService{
		stats:          stats,
		teams:          teams,
		defaultWorkers: defaultWorkers,
		logger:         logger,
	}
}

// SyncRosters fetches and persists the roster of every requested team. A
// failing team is reported in its row and does not stop the others.
func (s *RosterSyncService) SyncRosters(ctx context.Context, input RosterSyncInput) (RosterSyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterSyncService.SyncRosters")
	defer span.End()

	queries, err := s.resolveSyncQueries(ctx, input.Teams)
	if err != nil {
		return RosterSyncResult{}, err
	}

	workers := input.MaxWorkers
	if workers <= 0 {
		workers = s.defaultWorkers
	}
	workerCount := normalizeRosterSyncWorkerCount(workers, len(queries))
	result := RosterSyncResult{
		TaskCount:   len(queries),
		WorkerCount: workerCount,
		Tasks:       make([]RosterSyncTaskResult, 0, len(queries)),
	}
	if len(queries) == 0 {
		return result, nil
	}

	p, err := ants.NewPool(workerCount)
	if err != nil {
		return RosterSyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer p.Release()

	results := make(chan RosterSyncTaskResult, len(queries))
	var successCount atomic.Int32
	var failedCount atomic.Int32

	var workersWG sync.WaitGroup
	for _, query := range queries {
		workersWG.Add(1)
		if err := p.Submit(func() {
			defer workersWG.Done()

			start := time.Now()
			row := RosterSyncTaskResult{Query: query, Status: rosterSyncStatusSuccess}
			abbr, err := s.syncOne(ctx, query)
			row.TeamAbbreviation = abbr
			if err != nil {
				row.Status = rosterSyncStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			} else {
				successCount.Add(1)
			}
			row.DurationMs = time.Since(start).Milliseconds()
			results <- row
		}); err != nil {
			workersWG.Done()
			return RosterSyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workersWG.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Query < result.Tasks[j].Query
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	s.logger.InfoContext(ctx, "roster sync finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"workers", result.WorkerCount,
	)
	return result, nil
}

func (s *RosterSyncService) syncOne(ctx context.Context, query string) (string, error) {
	abbr, _, err := s.stats.syncRoster(ctx, query)
	return abbr, err
}

func (s *RosterSyncService) resolveSyncQueries(ctx context.Context, input []string) ([]string, error) {
	if len(input) == 0 {
		teams, err := s.teams.Teams(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(teams))
		for _, item := range teams {
			out = append(out, item.Abbreviation)
		}
		return out, nil
	}

	out := make([]string, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, raw := range input {
		query := strings.TrimSpace(raw)
		if query == "" {
			return nil, fmt.Errorf("%w: team query must not be empty", ErrInvalidInput)
		}
		key := strings.ToLower(query)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, query)
	}
	return out, nil
}

func normalizeRosterSyncWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > maxRosterSyncWorkers {
		value = maxRosterSyncWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
