// internal/syncer/scheduler.go
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"showcase-sync/internal/model"
)

// intervals maps a sync frequency to its ticker period.
var intervals = map[string]time.Duration{
	"daily":   24 * time.Hour,
	"weekly":  7 * 24 * time.Hour,
	"monthly": 30 * 24 * time.Hour,
}

// Runner is what the scheduler invokes on each tick.
type Runner interface {
	SyncAll(ctx context.Context) (*model.SyncResult, error)
}

// Scheduler fires SyncAll periodically. Reschedule is called explicitly by
// the settings-update path when the frequency changes; the scheduler does
// not watch settings itself.
type Scheduler struct {
	runner Runner
	lock   *RunLock
	logger *slog.Logger

	mu        sync.Mutex
	frequency string
	changed   chan struct{}
}

// NewScheduler creates a scheduler with the initial frequency, which may be
// "disabled".
func NewScheduler(runner Runner, lock *RunLock, frequency string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:    runner,
		lock:      lock,
		logger:    logger,
		frequency: frequency,
		changed:   make(chan struct{}, 1),
	}
}

// Reschedule switches the sync frequency. The running loop picks up the new
// value immediately, restarting its wait from now.
func (s *Scheduler) Reschedule(frequency string) error {
	if _, ok := intervals[frequency]; !ok && frequency != "disabled" {
		return fmt.Errorf("unknown sync frequency %q", frequency)
	}

	s.mu.Lock()
	s.frequency = frequency
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}

	s.logger.Info("Sync schedule updated", "frequency", frequency)
	return nil
}

// Run blocks until ctx is cancelled, firing a sync each interval.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		interval, enabled := intervals[s.currentFrequency()]

		if !enabled {
			select {
			case <-ctx.Done():
				return
			case <-s.changed:
				continue
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.changed:
			timer.Stop()
			continue
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) currentFrequency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.lock.TryAcquire() {
		s.logger.Info("Sync already in progress, skipping scheduled run")
		return
	}
	defer s.lock.Release()

	result, err := s.runner.SyncAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled sync failed", "error", err)
		return
	}
	s.logger.Info("Scheduled sync finished",
		"synced", result.Synced, "failed", result.Failed,
		"skipped", result.Skipped, "total", result.Total)
}
