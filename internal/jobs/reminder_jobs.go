package jobs

import (
	"context"
	"fmt"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/utils"
)

// SendReturnReminders reminds renters whose booking ends today to bring
// the car back.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery(JobSendReturnReminders, func(ctx context.Context) error {
		today := utils.Today(jr.now(), jr.loc)

		bookings, err := jr.bookings.ListLiveEndingOn(ctx, today)
		if err != nil {
			return err
		}

		count := 0
		for _, b := range bookings {
			vehicle := "your rental car"
			if car, err := jr.cars.GetByID(ctx, b.CarID); err == nil {
				vehicle = fmt.Sprintf("the %s %s", car.Brand, car.Model)
			} else {
				logger.Warn("Reminder car lookup failed", "bookingID", b.ID, "carID", b.CarID, "error", err)
			}

			jr.services.Notifier.Notify(ctx, b.RenterID, domain.NotificationEvent{
				Type:  domain.NotificationReturnReminder,
				Title: "Return Reminder",
				Message: fmt.Sprintf("Please return %s by %s on %s.",
					vehicle, utils.FormatClock(b.Window.End), utils.FormatDate(b.Window.End)),
				Attributes: map[string]string{
					"booking_id": b.ID.String(),
					"car_id":     b.CarID.String(),
				},
			})
			count++
			logger.Debug("Sent return reminder", "bookingID", b.ID, "renterID", b.RenterID)
		}

		logger.Info("Sent return reminders", "count", count)
		return nil
	})
}
