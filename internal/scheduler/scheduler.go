// Package scheduler runs the calendar update on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler invokes a Job on a cron expression evaluated in JST, the zone
// JMA publishes its updates in. Runs never overlap: a tick that arrives
// while the previous run is still going is dropped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	spec      string
	job       Job
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler. timeout bounds each run; zero means no bound.
func New(spec string, job Job, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(domain.JST)
	s.SingletonModeAll()
	s.WaitForScheduleAll()
	return &Scheduler{
		scheduler: s,
		spec:      strings.TrimSpace(spec),
		job:       job,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler in the background.
// Jobs run with ctx; cancel it and call Stop to shut down. A six-field spec
// is read with a leading seconds field.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.spec == "" {
		return errors.New("empty schedule")
	}

	var sched *gocron.Scheduler
	if len(strings.Fields(s.spec)) == 6 {
		sched = s.scheduler.CronWithSeconds(s.spec)
	} else {
		sched = s.scheduler.Cron(s.spec)
	}
	if _, err := sched.Do(s.run, ctx); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}

	s.scheduler.StartAsync()
	_, next := s.scheduler.NextRun()
	s.logger.Info("scheduler started", "schedule", s.spec, "next_run", next)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("scheduler: running calendar update")
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduler: calendar update failed", "error", err)
		return
	}
	s.logger.Info("scheduler: calendar update completed")
}
