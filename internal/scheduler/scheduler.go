package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rentrush-backend/internal/config"
	"rentrush-backend/internal/jobs"
	"rentrush-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner.
// An invalid cron spec is an error.
func NewScheduler(jobRunner *jobs.JobRunner, cfg config.SchedulerConfig) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs(cfg config.SchedulerConfig) error {
	specs := map[string]string{
		jobs.JobRetryFailedInvoices: cfg.RetryFailedInvoices,
		jobs.JobSendReturnReminders: cfg.SendReturnReminders,
	}

	for name, job := range s.jobs.Jobs() {
		spec := specs[name]
		if spec == "" {
			logger.Warn("Job has no schedule, skipping", "job", name)
			continue
		}
		if _, err := s.cron.AddFunc(spec, job); err != nil {
			return fmt.Errorf("failed to register %s job: %w", name, err)
		}
		logger.Info("Registered cron job", "job", name, "schedule", spec)
	}

	logger.Info("All cron jobs registered successfully")
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
