package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pix/backend/internal/application/pix"
	"github.com/pix/backend/internal/infrastructure/config"
)

// ExpirySweeper resolves overdue claims found at the given instant
type ExpirySweeper interface {
	Sweep(ctx context.Context, now time.Time) (pix.SweepSummary, error)
}

// SweepSchedulerConfig holds the expiry sweep loop configuration
type SweepSchedulerConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	SweepTimeout  time.Duration
}

// DefaultSweepSchedulerConfig returns default sweep scheduler configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Minute,
		SweepTimeout:  30 * time.Second,
	}
}

// NewSweepSchedulerConfig derives the loop configuration from app config
func NewSweepSchedulerConfig(cfg config.ReconcilerConfig) SweepSchedulerConfig {
	out := DefaultSweepSchedulerConfig()
	out.Enabled = cfg.Enabled
	if cfg.SweepInterval > 0 {
		out.SweepInterval = cfg.SweepInterval
	}
	return out
}

// SweepScheduler periodically runs the expiry reconciler.
//
// Each tick runs one bounded sweep. Sweeps are safe under at-least-once
// scheduling, so an instance restart or an overlapping deploy never needs
// coordination beyond the row-level claim locking the sweep already uses.
type SweepScheduler struct {
	config  SweepSchedulerConfig
	sweeper ExpirySweeper
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(config SweepSchedulerConfig, sweeper ExpirySweeper, logger *zap.Logger) *SweepScheduler {
	return &SweepScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start starts the sweep loop
func (s *SweepScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Expiry sweep scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Expiry sweep scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)

	return nil
}

// Stop gracefully stops the sweep loop
func (s *SweepScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Expiry sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Expiry sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// RunOnce triggers a single sweep outside the timer, for manual refreshes
func (s *SweepScheduler) RunOnce(ctx context.Context) (pix.SweepSummary, error) {
	return s.runSweep(ctx)
}

// runLoop runs sweeps on the configured interval
func (s *SweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.runSweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// runSweep executes one bounded sweep
func (s *SweepScheduler) runSweep(ctx context.Context) (pix.SweepSummary, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	return s.sweeper.Sweep(sweepCtx, time.Now())
}
