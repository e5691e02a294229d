package news

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs an Ingester on a cron schedule.
type Scheduler struct {
	ingester *Ingester
	spec     string
	delay    time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for the standard five-field spec. One
// run is started startDelay after Start; a negative delay disables it.
func NewScheduler(ingester *Ingester, spec string, startDelay time.Duration) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		spec:     spec,
		delay:    startDelay,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "news.scheduler"),
	}
}

// Start validates the schedule and begins running jobs until ctx ends or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if _, err := cron.ParseStandard(s.spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.spec, err)
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx, "cron") }); err != nil {
		return fmt.Errorf("failed to schedule ingest: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.logger.Info("ingest scheduler started", "schedule", s.spec)

	if s.delay >= 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			select {
			case <-time.After(s.delay):
				s.run(ctx, "startup")
			case <-stopCh:
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Info("starting ingest", "trigger", trigger)
	if _, err := s.ingester.RunOnce(ctx); err != nil {
		s.logger.Error("ingest failed", "trigger", trigger, "error", err)
	}
}

// Stop stops the schedule and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.running = false
	s.logger.Info("ingest scheduler stopped")
}

// IsRunning reports whether the scheduler is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run, or nil when not started.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
