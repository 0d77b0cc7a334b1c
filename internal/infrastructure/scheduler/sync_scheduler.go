// Package scheduler runs interval-triggered sync jobs. It periodically scans
// the active configurations and submits the due ones to a bounded worker
// pool; per-configuration mutual exclusion is enforced downstream by the job
// lock, so a configuration picked up twice is rejected, not run twice.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// SyncExecutor runs one sync job for a due configuration
type SyncExecutor interface {
	Execute(ctx context.Context, config *syncdomain.SyncConfiguration) error
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the interval scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// PollInterval is how often active configurations are scanned
	PollInterval time.Duration
	// MaxConcurrentJobs is the maximum number of concurrent sync jobs
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:           true,
		PollInterval:      time.Minute,
		MaxConcurrentJobs: 3,
		JobTimeout:        15 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler scans active configurations and runs the due ones
type SyncScheduler struct {
	config   SyncSchedulerConfig
	configs  syncdomain.ConfigRepository
	executor SyncExecutor
	logger   *zap.Logger

	jobs      chan *syncdomain.SyncConfiguration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// now is injectable for tests
	now func() time.Time
}

// NewSyncScheduler creates a new interval scheduler
func NewSyncScheduler(config SyncSchedulerConfig, configs syncdomain.ConfigRepository, executor SyncExecutor, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &SyncScheduler{
		config:   config,
		configs:  configs,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *syncdomain.SyncConfiguration, 100),
		now:      time.Now,
	}, nil
}

// Start starts the worker pool and the poll loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues one configuration for execution
func (s *SyncScheduler) Submit(config *syncdomain.SyncConfiguration) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- config:
		s.logger.Debug("Sync job submitted",
			zap.String("config_id", config.ID.String()),
			zap.String("platform", config.Platform.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// pollLoop scans active configurations on each tick and submits the due ones
func (s *SyncScheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce runs a single due-configuration scan
func (s *SyncScheduler) scanOnce(ctx context.Context) {
	active, err := s.configs.FindAllActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active sync configurations", zap.Error(err))
		return
	}

	now := s.now()
	for i := range active {
		config := active[i]
		if !config.Due(now) {
			continue
		}
		if err := s.Submit(&config); err != nil {
			s.logger.Warn("Failed to queue due sync configuration",
				zap.String("config_id", config.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// worker processes queued configurations
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case config, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, config, workerID)
		}
	}
}

// processJob executes one queued configuration
func (s *SyncScheduler) processJob(ctx context.Context, config *syncdomain.SyncConfiguration, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, config)
	switch {
	case err == nil:
		s.logger.Info("Scheduled sync job completed",
			zap.Int("worker_id", workerID),
			zap.String("config_id", config.ID.String()),
			zap.String("platform", config.Platform.String()),
		)
	case errors.Is(err, syncdomain.ErrJobAlreadyRunning):
		// another trigger beat us to this configuration
		s.logger.Debug("Scheduled sync job skipped, already running",
			zap.String("config_id", config.ID.String()),
		)
	default:
		s.logger.Error("Scheduled sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("config_id", config.ID.String()),
			zap.String("platform", config.Platform.String()),
			zap.Error(err),
		)
	}
}
