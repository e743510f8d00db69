package utils

import (
	"math"
	"time"

	"rentrush-backend/internal/domain"
)

const day = 24 * time.Hour

// PriceBreakdown provides the figures printed on an invoice.
type PriceBreakdown struct {
	Days      int64 `json:"days"`
	DailyRate int64 `json:"daily_rate"`
	Total     int64 `json:"total"`
}

// CalculateBillableDays returns max(0, ceil(end-start in days) + 1).
// Both endpoints count, a same-day rental is one day and any started day
// is billed in full. Durations are measured on the wall clock so a DST
// shift never adds or removes a billed day.
func CalculateBillableDays(start, end time.Time) int64 {
	elapsed := domain.WallClock(end).Sub(domain.WallClock(start))

	// Integer division truncates toward zero, which is already the ceiling
	// for negative durations.
	days := int64(elapsed / day)
	if elapsed > 0 && elapsed%day != 0 {
		days++
	}
	days++

	if days < 0 {
		return 0
	}
	return days
}

// CalculateRentalPrice returns the total price of a rental at the given
// daily rate.
func CalculateRentalPrice(start, end time.Time, dailyRate int64) int64 {
	return CalculateBillableDays(start, end) * dailyRate
}

// CalculatePriceBreakdown provides the billed days alongside the total.
// A total that does not fit in an int64 is rejected rather than wrapped.
func CalculatePriceBreakdown(w domain.Window, dailyRate int64) (PriceBreakdown, error) {
	days := CalculateBillableDays(w.Start, w.End)
	if dailyRate < 0 {
		return PriceBreakdown{}, domain.Reject(domain.ErrValidation, domain.ReasonInvalidField, "daily rate %d is negative", dailyRate)
	}
	if days > 0 && dailyRate > math.MaxInt64/days {
		return PriceBreakdown{}, domain.Reject(domain.ErrValidation, domain.ReasonInvalidField,
			"%d days at %d per day exceeds the largest billable total", days, dailyRate)
	}
	return PriceBreakdown{
		Days:      days,
		DailyRate: dailyRate,
		Total:     days * dailyRate,
	}, nil
}

// BookingPrice returns the figures a booking was billed at.
func BookingPrice(b *domain.Booking) PriceBreakdown {
	return PriceBreakdown{
		Days:      b.BilledDays,
		DailyRate: b.DailyRate,
		Total:     b.TotalPrice,
	}
}
