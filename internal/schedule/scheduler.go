// Package schedule runs named periodic jobs on gocron.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
	"git.home.luguber.info/inful/companion/internal/logfields"
)

// Scheduler wraps a gocron scheduler for interval jobs.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu      sync.Mutex
	names   map[uuid.UUID]string
	started bool
}

// Option configures a Scheduler.
type Option func(*[]gocron.SchedulerOption)

// WithClock drives the scheduler from clock instead of wall time.
func WithClock(clock clockwork.Clock) Option {
	return func(opts *[]gocron.SchedulerOption) {
		*opts = append(*opts, gocron.WithClock(clock))
	}
}

// WithLocation sets the time zone used for job scheduling.
func WithLocation(loc *time.Location) Option {
	return func(opts *[]gocron.SchedulerOption) {
		*opts = append(*opts, gocron.WithLocation(loc))
	}
}

// NewScheduler creates a new scheduler instance. It does not run jobs until Start.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	var gopts []gocron.SchedulerOption
	for _, opt := range opts {
		opt(&gopts)
	}

	s, err := gocron.NewScheduler(gopts...)
	if err != nil {
		return nil, errors.SchedulerError("failed to create gocron scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s, names: make(map[uuid.UUID]string)}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	slog.Debug("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Debug("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.SchedulerError("failed to stop scheduler").WithCause(err).Build()
	}
	return nil
}

// ScheduleEvery runs fn every interval, first after one interval has passed.
// A run that is still busy when the next one is due is skipped rather than
// overlapped. Returns the job ID for Remove.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn func()) (string, error) {
	if interval <= 0 {
		return "", errors.SchedulerError("interval must be positive").
			WithContext("job", name).
			WithContext("interval", interval.String()).
			Build()
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.SchedulerError("failed to create periodic job").
			WithCause(err).
			WithContext("job", name).
			Build()
	}

	s.mu.Lock()
	s.names[job.ID()] = name
	s.mu.Unlock()

	slog.Debug("Scheduled periodic job", logfields.Trigger(name), slog.Duration("interval", interval))
	return job.ID().String(), nil
}

// Remove cancels a job returned by ScheduleEvery. Runs already in progress
// finish normally.
func (s *Scheduler) Remove(id string) error {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return errors.SchedulerError("invalid job id").WithCause(err).WithContext("id", id).Build()
	}
	if err := s.scheduler.RemoveJob(jobID); err != nil {
		return errors.SchedulerError("failed to remove job").WithCause(err).WithContext("id", id).Build()
	}

	s.mu.Lock()
	name := s.names[jobID]
	delete(s.names, jobID)
	s.mu.Unlock()

	slog.Debug("Removed periodic job", logfields.Trigger(name))
	return nil
}

// Jobs returns the names of the currently scheduled jobs.
func (s *Scheduler) Jobs() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("schedule.Scheduler(%d jobs)", len(s.scheduler.Jobs()))
}
