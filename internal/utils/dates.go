package utils

import (
	"strings"
	"time"

	"rentrush-backend/internal/domain"
)

// ParseDateTime combines a yyyy-mm-dd date and an HH:MM clock time into an
// instant in loc. A clock time skipped by a DST change is rejected.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(domain.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, domain.Wrap(domain.ErrValidation, domain.ReasonMalformedDate, err, "date %q must be formatted as yyyy-mm-dd", date)
	}
	c, err := time.Parse(domain.ClockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, domain.Wrap(domain.ErrValidation, domain.ReasonMalformedTime, err, "time %q must be formatted as HH:MM", clock)
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
	// time.Date normalizes a clock time skipped by a DST change.
	if t.Hour() != c.Hour() || t.Minute() != c.Minute() {
		return time.Time{}, domain.Reject(domain.ErrValidation, domain.ReasonMalformedTime,
			"time %s on %s does not exist in %s", strings.TrimSpace(clock), strings.TrimSpace(date), loc)
	}
	return t, nil
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// FormatClock renders the HH:MM clock time of t.
func FormatClock(t time.Time) string {
	return t.Format(domain.ClockLayout)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return domain.DayOf(now.In(loc))
}
