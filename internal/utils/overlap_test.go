package utils

import (
	"errors"
	"testing"
	"time"

	"rentrush-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(start, end string) domain.Window {
	return domain.Window{Start: at(start), End: at(end)}
}

func TestOverlaps_Closed(t *testing.T) {
	base := window("2025-01-10 10:00", "2025-01-12 10:00")

	tests := []struct {
		name     string
		other    domain.Window
		expected bool
	}{
		{"Identical", base, true},
		{"Contained", window("2025-01-11 08:00", "2025-01-11 20:00"), true},
		{"Containing", window("2025-01-09 08:00", "2025-01-13 20:00"), true},
		{"Same-day handover", window("2025-01-12 14:00", "2025-01-14 10:00"), true},
		{"Ends on start day", window("2025-01-08 10:00", "2025-01-10 08:00"), true},
		{"Day after", window("2025-01-13 00:00", "2025-01-14 10:00"), false},
		{"Day before", window("2025-01-07 10:00", "2025-01-09 23:59"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(base, tt.other, domain.BoundaryClosed))
			assert.Equal(t, tt.expected, Overlaps(tt.other, base, domain.BoundaryClosed), "rule must be symmetric")
		})
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	base := window("2025-01-10 10:00", "2025-01-12 10:00")

	t.Run("Handover after return", func(t *testing.T) {
		assert.False(t, Overlaps(base, window("2025-01-12 14:00", "2025-01-14 10:00"), domain.BoundaryHalfOpen))
	})

	t.Run("Handover at return instant", func(t *testing.T) {
		assert.False(t, Overlaps(base, window("2025-01-12 10:00", "2025-01-14 10:00"), domain.BoundaryHalfOpen))
	})

	t.Run("Pickup before return", func(t *testing.T) {
		assert.True(t, Overlaps(base, window("2025-01-12 09:00", "2025-01-14 10:00"), domain.BoundaryHalfOpen))
	})

	t.Run("Same-day rentals with overlapping hours", func(t *testing.T) {
		a := window("2025-02-01 09:00", "2025-02-01 13:00")
		b := window("2025-02-01 12:00", "2025-02-01 18:00")
		assert.True(t, Overlaps(a, b, domain.BoundaryHalfOpen))
	})
}

func TestFindConflicts(t *testing.T) {
	self := uuid.New()
	existing := []domain.Booking{
		{ID: self, Status: domain.BookingStatusConfirmed, Window: window("2025-01-10 10:00", "2025-01-12 10:00")},
		{ID: uuid.New(), Status: domain.BookingStatusCancelled, Window: window("2025-01-11 10:00", "2025-01-11 12:00")},
		{ID: uuid.New(), Status: domain.BookingStatusCompleted, Window: window("2025-01-11 10:00", "2025-01-11 12:00")},
		{ID: uuid.New(), Status: domain.BookingStatusModified, Window: window("2025-01-15 10:00", "2025-01-16 10:00")},
	}

	t.Run("Only live bookings conflict", func(t *testing.T) {
		got := FindConflicts(window("2025-01-11 00:00", "2025-01-11 23:00"), existing, uuid.Nil, domain.BoundaryClosed)
		require.Len(t, got, 1)
		assert.Equal(t, self, got[0].ID)
	})

	t.Run("Excluded booking is ignored", func(t *testing.T) {
		got := FindConflicts(window("2025-01-11 00:00", "2025-01-13 23:00"), existing, self, domain.BoundaryClosed)
		assert.Empty(t, got)
	})

	t.Run("Modified counts as live", func(t *testing.T) {
		got := FindConflicts(window("2025-01-16 00:00", "2025-01-17 00:00"), existing, uuid.Nil, domain.BoundaryClosed)
		assert.Len(t, got, 1)
	})
}

func TestParseBoundaryPolicy(t *testing.T) {
	p, err := ParseBoundaryPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, domain.BoundaryClosed, p)

	p, err = ParseBoundaryPolicy("Half_Open")
	assert.NoError(t, err)
	assert.Equal(t, domain.BoundaryHalfOpen, p)

	_, err = ParseBoundaryPolicy("sometimes")
	assert.Error(t, err)
}

func TestParseDateTime(t *testing.T) {
	loc := time.UTC

	t.Run("Valid", func(t *testing.T) {
		got, err := ParseDateTime("2025-01-10", "14:30", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 10, 14, 30, 0, 0, loc), got)
	})

	t.Run("Malformed date", func(t *testing.T) {
		_, err := ParseDateTime("10/01/2025", "14:30", loc)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, domain.ReasonMalformedDate, domain.ReasonOf(err))
	})

	t.Run("Malformed time", func(t *testing.T) {
		_, err := ParseDateTime("2025-01-10", "2pm", loc)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, domain.ReasonMalformedTime, domain.ReasonOf(err))
	})
}
