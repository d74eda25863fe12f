package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"checkbook/internal/core"
)

// SchedulerConfig holds configuration for the recurring scheduler
type SchedulerConfig struct {
	// Interval is how often to look for due templates (default: 1h)
	Interval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: 1 * time.Hour,
	}
}

// Scheduler periodically runs the recurring processor against the
// clock's current day.
type Scheduler struct {
	processor *RecurringProcessor
	clock     core.Clock
	config    SchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(processor *RecurringProcessor, clock core.Clock, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{
		processor: processor,
		clock:     clock,
		config:    config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Scheduler started",
		"interval", s.config.Interval)

	return nil
}

// Stop gracefully stops the scheduler and waits for completion.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// Signal stop
	close(s.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runLoop is the main processing loop
func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.runOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce processes everything due as of the clock's current day
func (s *Scheduler) runOnce(ctx context.Context) {
	asOf := s.clock.Today()
	result, err := s.processor.ProcessDue(ctx, asOf)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled processing failed", "as_of", asOf.String(), "error", err)
		return
	}
	if result.Failed > 0 {
		slog.WarnContext(ctx, "Scheduled processing finished with failures",
			"as_of", asOf.String(),
			"processed", result.Processed,
			"failed", result.Failed)
	}
}
