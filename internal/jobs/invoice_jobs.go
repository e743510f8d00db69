package jobs

import (
	"context"

	"rentrush-backend/internal/logger"
)

// RetryFailedInvoices re-issues invoices whose first issue failed.
func (jr *JobRunner) RetryFailedInvoices() {
	jr.runWithRecovery(JobRetryFailedInvoices, func(ctx context.Context) error {
		issued, err := jr.services.Invoices.RetryFailedInvoices(ctx)
		logger.Info("Retried failed invoices", "issued", issued)
		return err
	})
}
