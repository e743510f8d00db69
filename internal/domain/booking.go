package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	TimestampLayout = "2006-01-02 15:04:05"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusModified  BookingStatus = "MODIFIED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// LiveBookingStatuses are the statuses that occupy a car's calendar.
var LiveBookingStatuses = []BookingStatus{BookingStatusConfirmed, BookingStatusModified}

// IsLive reports whether a booking in this status blocks its window.
func (s BookingStatus) IsLive() bool {
	return s == BookingStatusConfirmed || s == BookingStatusModified
}

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusIssued  InvoiceStatus = "ISSUED"
	InvoiceStatusFailed  InvoiceStatus = "FAILED"
)

// BoundaryPolicy selects how two windows touching on the same day are judged.
type BoundaryPolicy string

const (
	// BoundaryClosed treats both endpoints as occupied days, so a booking
	// ending on a day blocks another starting that day.
	BoundaryClosed BoundaryPolicy = "closed"
	// BoundaryHalfOpen compares wall-clock instants, allowing a same-day
	// handover when the pickup follows the return.
	BoundaryHalfOpen BoundaryPolicy = "half_open"
)

// Window is a rental period in calendar-local wall-clock time.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StartDay returns the calendar day the window starts on.
func (w Window) StartDay() time.Time { return DayOf(w.Start) }

// EndDay returns the calendar day the window ends on.
func (w Window) EndDay() time.Time { return DayOf(w.End) }

// Ordered reports whether End is not before Start on the wall clock.
func (w Window) Ordered() bool {
	return !WallClock(w.End).Before(WallClock(w.Start))
}

// WallClock re-anchors t in UTC keeping its calendar fields, so windows
// from different locations compare by what the clock on the wall showed.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DayOf truncates t to its calendar day on the wall clock.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Booking struct {
	ID            uuid.UUID     `json:"id"`
	CarID         uuid.UUID     `json:"car_id"`
	RenterID      uuid.UUID     `json:"renter_id"`
	ShowroomID    uuid.UUID     `json:"showroom_id"`
	Window        Window        `json:"window"`
	TotalPrice    int64         `json:"total_price"`
	DailyRate     int64         `json:"daily_rate"`
	BilledDays    int64         `json:"billed_days"`
	Status        BookingStatus `json:"status"`
	InvoiceKey    string        `json:"invoice_key,omitempty"`
	InvoiceStatus InvoiceStatus `json:"invoice_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BookingDetail joins a booking with the car and showroom a renter sees
// in their booking list.
type BookingDetail struct {
	Booking  Booking `json:"booking"`
	Car      *Car    `json:"car,omitempty"`
	Showroom *User   `json:"showroom,omitempty"`
}
