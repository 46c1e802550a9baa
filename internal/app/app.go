package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/nhl-actions/external/nhle"
	"github.com/riskibarqy/nhl-actions/internal/config"
	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/infrastructure/artifact"
	"github.com/riskibarqy/nhl-actions/internal/infrastructure/repository/file"
	"github.com/riskibarqy/nhl-actions/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/nhl-actions/internal/infrastructure/repository/postgres"
	redisrepo "github.com/riskibarqy/nhl-actions/internal/infrastructure/repository/redis"
	"github.com/riskibarqy/nhl-actions/internal/interfaces/httpapi"
	"github.com/riskibarqy/nhl-actions/internal/observability"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/riskibarqy/nhl-actions/internal/platform/resilience"
	"github.com/riskibarqy/nhl-actions/internal/platform/scheduler"
	"github.com/riskibarqy/nhl-actions/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	dependencyPingTimeout = 5 * time.Second
	schedulerStopTimeout  = 10 * time.Second
	directoryRefreshJob   = "team-directory-refresh"
)

// App holds the HTTP server and every resource it needs released on
// shutdown.
type App struct {
	Server    *http.Server
	Teams     *usecase.TeamDirectoryService
	scheduler *scheduler.Scheduler
	closers   []func() error
	logger    *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}

	var metrics *observability.Metrics
	var upstreamObserver nhle.RequestObserver
	var directoryMetrics usecase.DirectoryMetrics
	var httpObserver httpapi.RequestObserver
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		upstreamObserver = metrics
		directoryMetrics = metrics
		httpObserver = metrics
	}

	client := nhle.NewClient(nhle.ClientConfig{
		BaseURL: cfg.NHLEBaseURL,
		Timeout: cfg.NHLETimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.NHLECircuitEnabled,
			FailureThreshold: cfg.NHLECircuitFailureCount,
			OpenTimeout:      cfg.NHLECircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.NHLECircuitHalfOpenMaxReq,
		},
		Observer: upstreamObserver,
	})

	directory, err := a.openDirectory(ctx, cfg)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	teams := usecase.NewTeamDirectoryService(client, directory, usecase.TeamDirectoryServiceConfig{
		CacheTTL: cfg.TeamDirectoryCacheTTL,
		Metrics:  directoryMetrics,
		Logger:   logger,
	})
	stats := usecase.NewStatsService(client, teams, artifact.NewFileWriter(cfg.DataDir, logger), usecase.StatsServiceConfig{
		PlayerFetchWorkers: cfg.PlayerFetchWorkers,
		Logger:             logger,
	})
	rosters := usecase.NewRosterSyncService(stats, teams, cfg.RosterSyncWorkers, logger)

	routerCfg := httpapi.RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Observer:           httpObserver,
	}
	if metrics != nil {
		routerCfg.MetricsHandler = metrics.Handler()
	}
	router := httpapi.NewRouter(httpapi.NewHandler(teams, stats, rosters, logger), routerCfg)

	if cfg.TeamDirectoryRefreshCron != "" {
		sched := scheduler.New(logger)
		err := sched.Add(directoryRefreshJob, cfg.TeamDirectoryRefreshCron, func(ctx context.Context) error {
			_, err := teams.Refresh(ctx)
			return err
		})
		if err != nil {
			_ = a.closeResources()
			return nil, fmt.Errorf("schedule team directory refresh: %w", err)
		}
		a.scheduler = sched
	}

	a.Teams = teams
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("app wired",
		"store", cfg.TeamDirectoryStore,
		"nhle_base_url", cfg.NHLEBaseURL,
		"metrics_enabled", cfg.MetricsEnabled,
		"refresh_cron", cfg.TeamDirectoryRefreshCron,
	)

	return a, nil
}

// StartBackground starts scheduled jobs, if any were configured.
func (a *App) StartBackground() {
	if a.scheduler != nil {
		a.scheduler.Start()
	}
}

// Close stops scheduled jobs and releases store connections.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop(schedulerStopTimeout)
	}
	if err := a.closeResources(); err != nil {
		return err
	}
	a.logger.Info("app resources released")
	return nil
}

func (a *App) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openDirectory(ctx context.Context, cfg config.Config) (team.Directory, error) {
	switch cfg.TeamDirectoryStore {
	case config.StoreMemory:
		return memory.NewTeamDirectoryRepository(), nil
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewTeamDirectoryRepository(db), nil
	case config.StoreRedis:
		client, err := openRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisrepo.NewTeamDirectoryRepository(client, cfg.RedisDirectoryKey), nil
	case config.StoreFile, "":
		return file.NewTeamDirectoryRepository(cfg.DataDir), nil
	default:
		return nil, fmt.Errorf("unsupported team directory store %q", cfg.TeamDirectoryStore)
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBBinaryParameters),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func openRedis(ctx context.Context, cfg config.Config) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, dependencyPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
