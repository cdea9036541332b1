// Package scheduler provides cron-based task scheduling for the daemon.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
)

// staleGap is how late a run may fire before it is treated as a wake from
// sleep and skipped.
const staleGap = time.Hour

// Job names.
const (
	JobTodoDigest = "todo-digest"
	JobReconcile  = "reconcile"
)

var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Reconciler re-reads whether the geofence task is registered.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ReconcileFunc adapts a function to a Reconciler.
type ReconcileFunc func(ctx context.Context) error

// Reconcile calls f.
func (f ReconcileFunc) Reconcile(ctx context.Context) error { return f(ctx) }

type job struct {
	name     string
	schedule cron.Schedule
	expected time.Time
	run      func(ctx context.Context) error
}

// Scheduler manages scheduled tasks using cron.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.SchedulerConfig
	ctx        context.Context
	mu         sync.Mutex
	now        func() time.Time
	digest     *DigestChecker
	reconciler Reconciler
}

// NewScheduler creates a scheduler for the given specs. Specs carry a
// seconds field.
func NewScheduler(cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		cfg:  cfg,
		ctx:  context.Background(),
		now:  time.Now,
	}
}

// SetDigestChecker sets the todo digest job.
func (s *Scheduler) SetDigestChecker(c *DigestChecker) {
	s.digest = c
}

// SetReconciler sets the geofence reconcile job.
func (s *Scheduler) SetReconciler(r Reconciler) {
	s.reconciler = r
}

// Start registers the configured jobs and starts the cron loop. Jobs run
// with ctx. An empty spec disables its job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx

	if s.digest != nil && s.cfg.TodoDigestSpec != "" {
		if err := s.schedule(JobTodoDigest, s.cfg.TodoDigestSpec, s.digest.Check); err != nil {
			return fmt.Errorf("failed to add todo digest job: %w", err)
		}
	}

	if s.reconciler != nil && s.cfg.ReconcileSpec != "" {
		if err := s.schedule(JobReconcile, s.cfg.ReconcileSpec, s.reconciler.Reconcile); err != nil {
			return fmt.Errorf("failed to add reconcile job: %w", err)
		}
	}

	s.cron.Start()
	logging.DebugContext(ctx, "scheduler started", logging.KeyCount, len(s.cron.Entries()))
	return nil
}

func (s *Scheduler) schedule(name, spec string, run func(ctx context.Context) error) error {
	sched, err := specParser.Parse(spec)
	if err != nil {
		return err
	}
	j := &job{name: name, schedule: sched, expected: sched.Next(s.now()), run: run}
	s.cron.Schedule(sched, cron.FuncJob(func() { s.runJob(j) }))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	logging.DebugContext(s.ctx, "scheduler stopped")
}

// runJob runs j unless it fired more than staleGap after it was expected,
// which happens when the machine wakes from sleep.
func (s *Scheduler) runJob(j *job) {
	if !s.due(j) {
		logging.DebugContext(s.ctx, "skipping stale run", logging.KeyTask, j.name)
		return
	}

	ctx := logging.NewRequestContext(s.ctx)
	if err := j.run(ctx); err != nil {
		logging.ErrorContext(ctx, "scheduled job failed",
			logging.KeyTask, j.name,
			logging.KeyError, err,
		)
	}
}

func (s *Scheduler) due(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	late := now.Sub(j.expected)
	j.expected = j.schedule.Next(now)
	return late <= staleGap
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(spec string, fn func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, fn)
}

// RemoveJob removes a job from the scheduler.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
