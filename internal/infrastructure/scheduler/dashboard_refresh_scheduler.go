package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DashboardRefresher rebuilds and caches the dashboard summary
type DashboardRefresher interface {
	RefreshDashboard(ctx context.Context) error
}

// DashboardRefreshConfig holds configuration for the refresh job
type DashboardRefreshConfig struct {
	// Schedule is a standard 5-field cron expression or a descriptor such as
	// "@every 1m". Empty disables the job.
	Schedule string
	// JobTimeout bounds a single refresh
	JobTimeout time.Duration
	// Location evaluates the schedule; nil means time.Local
	Location *time.Location
}

// DefaultDashboardRefreshConfig refreshes every minute
func DefaultDashboardRefreshConfig() DashboardRefreshConfig {
	return DashboardRefreshConfig{
		Schedule:   "@every 1m",
		JobTimeout: 30 * time.Second,
	}
}

// DashboardRefreshScheduler keeps the cached dashboard warm on a cron schedule.
// Runs never overlap: a tick that arrives while a refresh is still running is skipped.
type DashboardRefreshScheduler struct {
	config    DashboardRefreshConfig
	refresher DashboardRefresher
	logger    *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
	lastError error
	runs      int64
}

// NewDashboardRefreshScheduler validates the schedule and prepares the job
func NewDashboardRefreshScheduler(config DashboardRefreshConfig, refresher DashboardRefresher, logger *zap.Logger) (*DashboardRefreshScheduler, error) {
	if refresher == nil {
		return nil, fmt.Errorf("%w: refresher is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultDashboardRefreshConfig().JobTimeout
	}
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	s := &DashboardRefreshScheduler{
		config:    config,
		refresher: refresher,
		logger:    logger,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if config.Schedule != "" {
		id, err := s.cron.AddFunc(config.Schedule, s.runJob)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, config.Schedule, err)
		}
		s.entryID = id
	}
	return s, nil
}

// Enabled reports whether a schedule is configured
func (s *DashboardRefreshScheduler) Enabled() bool {
	return s.config.Schedule != ""
}

// Start starts the cron loop. It is a no-op when disabled or already running.
func (s *DashboardRefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning || !s.Enabled() {
		return
	}
	s.isRunning = true
	s.cron.Start()

	s.logger.Info("Dashboard refresh scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Time("next_run_at", s.cron.Entry(s.entryID).Next),
	)
}

// Stop stops scheduling and waits for a running refresh to finish or ctx to expire
func (s *DashboardRefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info("Dashboard refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Dashboard refresh scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun runs one refresh synchronously
func (s *DashboardRefreshScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrSchedulerNotRunning
	}
	return s.refresh(ctx)
}

func (s *DashboardRefreshScheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()
	_ = s.refresh(ctx)
}

func (s *DashboardRefreshScheduler) refresh(ctx context.Context) error {
	start := time.Now()
	err := s.refresher.RefreshDashboard(ctx)

	s.mu.Lock()
	s.lastRunAt = &start
	s.lastError = err
	s.runs++
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Dashboard refresh failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return err
	}
	s.logger.Debug("Dashboard refreshed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *DashboardRefreshScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":     s.Enabled(),
		"is_running":  s.isRunning,
		"schedule":    s.config.Schedule,
		"last_run_at": s.lastRunAt,
		"runs":        s.runs,
	}
	if s.lastError != nil {
		status["last_error"] = s.lastError.Error()
	}
	if s.isRunning {
		status["next_run_at"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

// GetLastRunAt returns when the last refresh started
func (s *DashboardRefreshScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
