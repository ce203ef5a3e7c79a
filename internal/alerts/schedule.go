package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cosmicwatch/cosmic-watch/internal/observability"
)

// Runner is anything that performs one alert check.
type Runner interface {
	Run(ctx context.Context) RunResult
}

// Scheduler triggers a Runner on a fixed interval. Runs never overlap
// within one process: a tick that fires while a run is active is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. timeout bounds every run.
func NewScheduler(runner Runner, interval, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// StartScheduler runs the checker once immediately and then every interval.
// Blocks until ctx is cancelled. Intended to be called with `go`.
func StartScheduler(ctx context.Context, runner Runner, interval, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) {
	NewScheduler(runner, interval, timeout, clock, metrics, logger).Start(ctx)
}

// Start is the blocking loop behind StartScheduler. In-flight runs are
// awaited before it returns.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Alert scheduler started", "interval", s.interval, "run_timeout", s.timeout)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx)

	for {
		select {
		case <-ticker.Chan():
			s.trigger(ctx)
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("Alert scheduler stopped")
			return
		}
	}
}

// RunNow performs a run synchronously. ok is false when another run was
// already active and nothing was done.
func (s *Scheduler) RunNow(ctx context.Context) (result RunResult, ok bool) {
	if !s.acquire() {
		return RunResult{}, false
	}
	defer s.release()
	return s.run(ctx), true
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.acquire() {
		s.logger.Warn("Previous alert run still active, skipping tick")
		if s.metrics != nil {
			s.metrics.AlertRuns.WithLabelValues("skipped").Inc()
		}
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()
		s.run(ctx)
	}()
}

func (s *Scheduler) run(ctx context.Context) RunResult {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := s.runner.Run(runCtx)
	if result.Aborted {
		s.logger.Warn("Alert run finished without checking users", "summary", result.Summary())
	} else {
		s.logger.Info("Alert run complete", "summary", result.Summary())
	}
	return result
}

func (s *Scheduler) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
