package cron

import (
	"context"
	"fmt"
	"time"
	"tracker-service/internal/config"
	"tracker-service/internal/domain/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	jobDaily  = "daily-maintenance"
	jobWeekly = "weekly-snapshots"
)

// Locker keeps a job from running on two replicas at once
type Locker interface {
	TryLock(ctx context.Context, job string, ttl time.Duration) (unlock func(), ok bool, err error)
}

type nopLocker struct{}

// NewNopLocker returns a locker that always grants the lock, for single-replica deployments
func NewNopLocker() Locker {
	return nopLocker{}
}

func (nopLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

// Scheduler triggers the maintenance entry points on calendar schedules
type Scheduler struct {
	maintenance service.MaintenanceService
	locker      Locker
	cron        *cron.Cron
	cfg         config.SchedulerConfig
	logger      *zap.Logger
}

// NewScheduler creates a new scheduler. Schedules are evaluated in UTC.
func NewScheduler(maintenance service.MaintenanceService, locker Locker, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	cronLog := cronLogger{logger.Sugar()}
	return &Scheduler{
		maintenance: maintenance,
		locker:      locker,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler",
		zap.String("daily_spec", s.cfg.DailySpec),
		zap.String("weekly_spec", s.cfg.WeeklySpec),
	)

	if _, err := s.cron.AddFunc(s.cfg.DailySpec, s.runDaily); err != nil {
		return fmt.Errorf("failed to add daily job: %w", err)
	}

	if s.cfg.WeeklySpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.WeeklySpec, s.runWeekly); err != nil {
			return fmt.Errorf("failed to add weekly job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runDaily() {
	s.run(jobDaily, s.maintenance.RunDaily)
}

func (s *Scheduler) runWeekly() {
	s.run(jobWeekly, s.maintenance.RunWeeklySnapshots)
}

func (s *Scheduler) run(job string, entry func(context.Context) *service.MaintenanceReport) {
	timeout := s.cfg.JobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = timeout
	}

	unlock, ok, err := s.locker.TryLock(ctx, job, ttl)
	if err != nil {
		s.logger.Error("Failed to acquire job lock", zap.String("job", job), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Info("Job already running elsewhere, skipping", zap.String("job", job))
		return
	}
	defer unlock()

	started := time.Now()
	report := entry(ctx)

	fields := []zap.Field{
		zap.String("job", job),
		zap.Duration("took", time.Since(started)),
		zap.Int("trackers", report.Trackers),
		zap.Int("banned", report.Banned),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("snapshots", report.Snapshots),
	}
	if report.Err != nil {
		for _, err := range multierr.Errors(report.Err) {
			s.logger.Error("Job error", zap.String("job", job), zap.Error(err))
		}
		s.logger.Warn("Job completed with errors", fields...)
		return
	}
	s.logger.Info("Job completed", fields...)
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
