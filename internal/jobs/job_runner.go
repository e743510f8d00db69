package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/metrics"
	"rentrush-backend/internal/repository"
	"rentrush-backend/internal/service"
)

const (
	JobRetryFailedInvoices = "retry-failed-invoices"
	JobSendReturnReminders = "send-return-reminders"
)

// jobTimeout bounds a single run so a hung store cannot pile runs up.
const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	bookings repository.BookingRepository
	cars     repository.CarRepository
	loc      *time.Location
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Invoices service.InvoiceService
	Notifier service.Notifier
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, bookings repository.BookingRepository, cars repository.CarRepository, loc *time.Location) *JobRunner {
	if loc == nil {
		loc = time.UTC
	}
	return &JobRunner{
		services: services,
		bookings: bookings,
		cars:     cars,
		loc:      loc,
		now:      time.Now,
	}
}

// Jobs maps job names to their entry points.
func (jr *JobRunner) Jobs() map[string]func() {
	return map[string]func(){
		JobRetryFailedInvoices: jr.RetryFailedInvoices,
		JobSendReturnReminders: jr.SendReturnReminders,
	}
}

// Run executes one job by name, or every job for "all".
func (jr *JobRunner) Run(name string) error {
	jobs := jr.Jobs()
	if name == "all" {
		names := make([]string, 0, len(jobs))
		for n := range jobs {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			jobs[n]()
		}
		return nil
	}
	job, ok := jobs[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	job()
	return nil
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			status = "panic"
		}
		metrics.JobRunsTotal.WithLabelValues(jobName, status).Inc()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(ctx); err != nil {
		status = "failure"
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName)
}
