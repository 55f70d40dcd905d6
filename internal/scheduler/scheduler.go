// Package scheduler drives periodic background catalog refreshes. The
// active source's cron schedule (or the configured default) triggers a
// non-forced sync pass; cache freshness decides whether any network work
// actually happens.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jwhitfield/ottarr/internal/config"
	"github.com/jwhitfield/ottarr/internal/repository"
)

// SyncRunner is the slice of the sync coordinator the scheduler needs.
type SyncRunner interface {
	SyncAll(ctx context.Context, force bool) error
}

// Scheduler runs the refresh job on the active source's cron schedule.
type Scheduler struct {
	mu sync.Mutex

	sources repository.SourceRepository
	runner  SyncRunner
	cfg     config.SchedulerConfig
	logger  *slog.Logger

	parser  cron.Parser
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler. Call Start to begin scheduling.
func New(sources repository.SourceRepository, runner SyncRunner, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		sources: sources,
		runner:  runner,
		cfg:     cfg,
		logger:  slog.Default(),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// ValidateSchedule reports whether expr is a valid five-field cron
// expression, for rejecting bad per-source schedules at configuration time.
func (s *Scheduler) ValidateSchedule(expr string) error {
	if _, err := s.parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Start begins scheduling. The schedule is resolved from the active
// source at start and whenever Reload is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithParser(s.parser))
	if err := s.scheduleLocked(ctx); err != nil {
		s.cron = nil
		s.cancel()
		return err
	}
	s.cron.Start()

	s.logger.Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// Reload re-resolves the schedule from the active source, for use after a
// source switch or schedule edit.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	return s.scheduleLocked(ctx)
}

// resolveSchedule picks the active source's cron schedule, falling back
// to the configured default when unset or invalid.
func (s *Scheduler) resolveSchedule(ctx context.Context) string {
	expr := s.cfg.DefaultCron

	active, err := s.sources.GetActive(ctx)
	if err != nil {
		s.logger.Warn("resolving active source schedule failed, using default",
			"error", err.Error(),
		)
		return expr
	}
	if active == nil || active.CronSchedule == "" {
		return expr
	}

	if _, err := s.parser.Parse(active.CronSchedule); err != nil {
		s.logger.Warn("active source has invalid cron schedule, using default",
			"source_id", active.ID.String(),
			"schedule", active.CronSchedule,
		)
		return expr
	}
	return active.CronSchedule
}

func (s *Scheduler) scheduleLocked(ctx context.Context) error {
	expr := s.resolveSchedule(ctx)

	id, err := s.cron.AddFunc(expr, s.runJob)
	if err != nil {
		return fmt.Errorf("scheduling refresh job %q: %w", expr, err)
	}
	s.entryID = id

	s.logger.Info("refresh job scheduled", "cron", expr)
	return nil
}

func (s *Scheduler) runJob() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	s.logger.Info("scheduled refresh starting")
	if err := s.runner.SyncAll(ctx, false); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err.Error())
		return
	}
	s.logger.Info("scheduled refresh complete")
}
