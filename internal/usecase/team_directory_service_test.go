package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	teammock "github.com/riskibarqy/nhl-actions/internal/mocks/domain/team"
	usecasemock "github.com/riskibarqy/nhl-actions/internal/mocks/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var bruinsDirectory = []team.Team{{Name: "Boston Bruins", Abbreviation: "BOS"}}

func newTestDirectoryService(provider StatsProvider, directory team.Directory, ttl time.Duration) *TeamDirectoryService {
	return NewTeamDirectoryService(provider, directory, TeamDirectoryServiceConfig{
		CacheTTL: ttl,
		Logger:   logging.NewNop(),
	})
}

type recordingMetrics struct {
	refreshes   []string
	resolutions []string
}

func (m *recordingMetrics) ObserveDirectoryRefresh(outcome string, _ int) {
	m.refreshes = append(m.refreshes, outcome)
}

func (m *recordingMetrics) ObserveTeamResolution(outcome string) {
	m.resolutions = append(m.resolutions, outcome)
}

func TestTeamDirectoryService_Resolve_BruinsScenario(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil)
	directory.On("Load", mock.Anything).Return(bruinsDirectory, nil)

	service := newTestDirectoryService(provider, directory, 0)
	ctx := context.Background()

	got, err := service.Resolve(ctx, "bruins")
	require.NoError(t, err)
	assert.Equal(t, "BOS", got)

	got, err = service.Resolve(ctx, "BOS")
	require.NoError(t, err)
	assert.Equal(t, "BOS", got)

	_, err = service.Resolve(ctx, "xyz")
	assert.ErrorIs(t, err, ErrNotFound)

	directory.AssertNumberOfCalls(t, "Load", 3)
}

func TestTeamDirectoryService_Resolve_FirstMatchWins(t *testing.T) {
	t.Parallel()

	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil)
	directory.On("Load", mock.Anything).Return([]team.Team{
		{Name: "New York Rangers", Abbreviation: "NYR"},
		{Name: "New York Islanders", Abbreviation: "NYI"},
	}, nil)

	service := newTestDirectoryService(usecasemock.NewStatsProvider(t), directory, 0)

	got, err := service.Resolve(context.Background(), "new york")
	require.NoError(t, err)
	assert.Equal(t, "NYR", got)

	got, err = service.Resolve(context.Background(), "ISL")
	require.NoError(t, err)
	assert.Equal(t, "NYI", got)
}

func TestTeamDirectoryService_Resolve_EmptyQueryReturnsFirstEntry(t *testing.T) {
	t.Parallel()

	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil)
	directory.On("Load", mock.Anything).Return([]team.Team{
		{Name: "Toronto Maple Leafs", Abbreviation: "TOR"},
		{Name: "Boston Bruins", Abbreviation: "BOS"},
	}, nil)

	service := newTestDirectoryService(usecasemock.NewStatsProvider(t), directory, 0)

	got, err := service.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "TOR", got)
}

func TestTeamDirectoryService_Resolve_EmptyDirectoryIsNotFound(t *testing.T) {
	t.Parallel()

	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil)
	directory.On("Load", mock.Anything).Return([]team.Team{}, nil)

	metrics := &recordingMetrics{}
	service := NewTeamDirectoryService(usecasemock.NewStatsProvider(t), directory, TeamDirectoryServiceConfig{
		Metrics: metrics,
		Logger:  logging.NewNop(),
	})

	for _, query := range []string{"", "bos", "anything"} {
		_, err := service.Resolve(context.Background(), query)
		assert.ErrorIsf(t, err, ErrNotFound, "query %q", query)
	}
	assert.Equal(t, []string{outcomeNotFound, outcomeNotFound, outcomeNotFound}, metrics.resolutions)
}

func TestTeamDirectoryService_Resolve_RefreshesMissingDirectory(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)

	directory.On("Exists", mock.Anything).Return(false, nil).Once()
	provider.On("FetchStandingTeams", mock.Anything).Return(bruinsDirectory, nil).Once()
	directory.On("Replace", mock.Anything, bruinsDirectory).Return(nil).Once()

	service := newTestDirectoryService(provider, directory, 0)

	got, err := service.Resolve(context.Background(), "bruins")
	require.NoError(t, err)
	assert.Equal(t, "BOS", got)
	directory.AssertNotCalled(t, "Load", mock.Anything)
}

func TestTeamDirectoryService_Resolve_UpstreamFailureDuringBootstrap(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)

	upstream := &UpstreamError{Path: "/standings/now", StatusCode: 503}
	directory.On("Exists", mock.Anything).Return(false, nil).Once()
	provider.On("FetchStandingTeams", mock.Anything).Return(nil, upstream).Once()

	service := newTestDirectoryService(provider, directory, 0)

	_, err := service.Resolve(context.Background(), "bruins")
	require.ErrorIs(t, err, ErrUpstream)
	assert.False(t, errors.Is(err, ErrNotFound))
	directory.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestTeamDirectoryService_Refresh_NormalizesAndReplaces(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)

	provider.On("FetchStandingTeams", mock.Anything).Return([]team.Team{
		{Name: " Boston Bruins ", Abbreviation: "BOS"},
		{Name: "", Abbreviation: "XXX"},
		{Name: "Bruins Again", Abbreviation: "bos"},
		{Name: "Toronto Maple Leafs", Abbreviation: "TOR"},
	}, nil).Once()
	want := []team.Team{
		{Name: "Boston Bruins", Abbreviation: "BOS"},
		{Name: "Toronto Maple Leafs", Abbreviation: "TOR"},
	}
	directory.On("Replace", mock.Anything, want).Return(nil).Once()

	metrics := &recordingMetrics{}
	service := NewTeamDirectoryService(provider, directory, TeamDirectoryServiceConfig{
		Metrics: metrics,
		Logger:  logging.NewNop(),
	})

	got, err := service.ListTeams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, team.ValidateDirectory(got))
	assert.Equal(t, []string{outcomeSuccess}, metrics.refreshes)
}

func TestTeamDirectoryService_Refresh_ReplaceFailure(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)

	diskErr := errors.New("disk full")
	provider.On("FetchStandingTeams", mock.Anything).Return(bruinsDirectory, nil).Once()
	directory.On("Replace", mock.Anything, bruinsDirectory).Return(diskErr).Once()

	service := newTestDirectoryService(provider, directory, 0)

	_, err := service.Refresh(context.Background())
	assert.ErrorIs(t, err, diskErr)
}

func TestTeamDirectoryService_CachedDirectoryLoadsOnce(t *testing.T) {
	t.Parallel()

	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil).Once()
	directory.On("Load", mock.Anything).Return(bruinsDirectory, nil).Once()

	service := newTestDirectoryService(usecasemock.NewStatsProvider(t), directory, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := service.Resolve(context.Background(), "bos")
		require.NoError(t, err)
		assert.Equal(t, "BOS", got)
	}
}

func TestTeamDirectoryService_RefreshReplacesCachedDirectory(t *testing.T) {
	t.Parallel()

	provider := usecasemock.NewStatsProvider(t)
	directory := teammock.NewDirectory(t)

	directory.On("Exists", mock.Anything).Return(true, nil).Once()
	directory.On("Load", mock.Anything).Return(bruinsDirectory, nil).Once()
	refreshed := []team.Team{{Name: "Utah Hockey Club", Abbreviation: "UTA"}}
	provider.On("FetchStandingTeams", mock.Anything).Return(refreshed, nil).Once()
	directory.On("Replace", mock.Anything, refreshed).Return(nil).Once()

	service := newTestDirectoryService(provider, directory, time.Hour)
	ctx := context.Background()

	got, err := service.Resolve(ctx, "bos")
	require.NoError(t, err)
	assert.Equal(t, "BOS", got)

	_, err = service.Refresh(ctx)
	require.NoError(t, err)

	got, err = service.Resolve(ctx, "utah")
	require.NoError(t, err)
	assert.Equal(t, "UTA", got)

	_, err = service.Resolve(ctx, "bos")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeamDirectoryService_TeamsReturnsCopy(t *testing.T) {
	t.Parallel()

	directory := teammock.NewDirectory(t)
	directory.On("Exists", mock.Anything).Return(true, nil).Once()
	directory.On("Load", mock.Anything).Return([]team.Team{{Name: "Boston Bruins", Abbreviation: "BOS"}}, nil).Once()

	service := newTestDirectoryService(usecasemock.NewStatsProvider(t), directory, time.Hour)

	first, err := service.Teams(context.Background())
	require.NoError(t, err)
	first[0].Abbreviation = "MUTATED"

	second, err := service.Teams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BOS", second[0].Abbreviation)
}

type gatedStandingsProvider struct {
	entered chan struct{}
	release chan struct{}
	teams   []team.Team
	once    sync.Once
}

func newGatedStandingsProvider(teams []team.Team) *gatedStandingsProvider {
	return &gatedStandingsProvider{entered: make(chan struct{}), release: make(chan struct{}), teams: teams}
}

func (p *gatedStandingsProvider) GetJSON(context.Context, string) (any, error) {
	return nil, errors.New("not used")
}

func (p *gatedStandingsProvider) FetchStandingTeams(ctx context.Context) ([]team.Team, error) {
	p.once.Do(func() { close(p.entered) })
	select {
	case <-p.release:
		return p.teams, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type gatedDirectory struct {
	mu      sync.Mutex
	teams   []team.Team
	loads   int
	loading chan struct{}
	release chan struct{}
}

func (d *gatedDirectory) Exists(context.Context) (bool, error) { return true, nil }

func (d *gatedDirectory) Load(context.Context) ([]team.Team, error) {
	d.mu.Lock()
	snapshot := cloneTeams(d.teams)
	d.loads++
	first := d.loads == 1
	d.mu.Unlock()

	if first && d.loading != nil {
		close(d.loading)
		<-d.release
	}
	return snapshot, nil
}

func (d *gatedDirectory) Replace(_ context.Context, items []team.Team) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teams = cloneTeams(items)
	return nil
}

func (d *gatedDirectory) loadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads
}

func TestTeamDirectoryService_Refresh_CallerCancelDoesNotFailJoinedCaller(t *testing.T) {
	t.Parallel()

	provider := newGatedStandingsProvider(bruinsDirectory)
	directory := &gatedDirectory{}
	service := newTestDirectoryService(provider, directory, 0)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := service.Refresh(firstCtx)
		firstErr <- err
	}()
	<-provider.entered

	type result struct {
		teams []team.Team
		err   error
	}
	second := make(chan result, 1)
	go func() {
		teams, err := service.Refresh(context.Background())
		second <- result{teams: teams, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(provider.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, bruinsDirectory, got.teams)
	assert.Equal(t, bruinsDirectory, directory.teams)
}

func TestTeamDirectoryService_StaleLoadDoesNotReplaceRefreshedCache(t *testing.T) {
	t.Parallel()

	fresh := []team.Team{{Name: "Toronto Maple Leafs", Abbreviation: "TOR"}}
	provider := newGatedStandingsProvider(fresh)
	close(provider.release)

	directory := &gatedDirectory{
		teams:   bruinsDirectory,
		loading: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := newTestDirectoryService(provider, directory, time.Minute)

	staleResolve := make(chan error, 1)
	go func() {
		_, err := service.Resolve(context.Background(), "bruins")
		staleResolve <- err
	}()
	<-directory.loading

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)

	close(directory.release)
	require.NoError(t, <-staleResolve)

	got, err := service.Resolve(context.Background(), "leafs")
	require.NoError(t, err)
	assert.Equal(t, "TOR", got)
	assert.Equal(t, 1, directory.loadCount())
}
