package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. The context is canceled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron specs. Overlapping runs of the same job
// are skipped and panics are recovered.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

func New(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	cronLogger := cronLogAdapter{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under spec, a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.WarnContext(s.ctx, "scheduled job failed",
				"job", name,
				"duration_ms", time.Since(started).Milliseconds(),
				"error", err,
			)
			return
		}
		s.logger.InfoContext(s.ctx, "scheduled job completed",
			"job", name,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop cancels running jobs and waits up to timeout for them to return.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.cancel()
		return
	}

	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-time.After(timeout):
		s.logger.Warn("scheduler stop timed out", "timeout", timeout.String())
	}
	s.running = false
}

type cronLogAdapter struct {
	logger *logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
