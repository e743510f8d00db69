package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rentrush-backend/internal/domain"
)

var (
	// BookingOperationsTotal counts lifecycle operations by outcome.
	// outcome: ok or the error kind (validation, state_conflict, ...)
	BookingOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentrush_booking_operations_total",
			Help: "Total number of booking lifecycle operations.",
		},
		[]string{"operation", "outcome"},
	)

	// BookingRejectionsTotal counts rejections by reason (overlapping_booking, ...).
	BookingRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentrush_booking_rejections_total",
			Help: "Total number of rejected booking operations by reason.",
		},
		[]string{"operation", "reason"},
	)

	// InvoiceFailuresTotal counts invoices that could not be issued.
	InvoiceFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rentrush_invoice_failures_total",
			Help: "Total number of invoices that failed to render or store.",
		},
	)

	// BookingOperationLatency records how long lifecycle operations take,
	// including the time spent waiting for the per-car lock.
	BookingOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentrush_booking_operation_latency_seconds",
			Help:    "Latency of booking lifecycle operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// JobRunsTotal counts scheduled job runs.
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentrush_job_runs_total",
			Help: "Total number of scheduled job runs.",
		},
		[]string{"job", "status"},
	)
)

func init() {
	prometheus.MustRegister(BookingOperationsTotal)
	prometheus.MustRegister(BookingRejectionsTotal)
	prometheus.MustRegister(InvoiceFailuresTotal)
	prometheus.MustRegister(BookingOperationLatency)
	prometheus.MustRegister(JobRunsTotal)
}

// ObserveOperation records the outcome and latency of one lifecycle call.
func ObserveOperation(operation string, started time.Time, err error) {
	BookingOperationLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err == nil {
		BookingOperationsTotal.WithLabelValues(operation, "ok").Inc()
		return
	}
	BookingOperationsTotal.WithLabelValues(operation, domain.KindOf(err)).Inc()

	var rej *domain.RejectionError
	if errors.As(err, &rej) && rej.Reason != "" {
		BookingRejectionsTotal.WithLabelValues(operation, string(rej.Reason)).Inc()
	}
}
