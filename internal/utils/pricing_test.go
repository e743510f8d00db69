package utils

import (
	"math"
	"testing"
	"time"

	"rentrush-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateBillableDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int64
	}{
		{"Same day same time", "2025-01-10 10:00", "2025-01-10 10:00", 1},
		{"Same day later time", "2025-01-10 09:00", "2025-01-10 18:00", 1},
		{"Two whole days", "2025-01-10 10:00", "2025-01-12 10:00", 3},
		{"Fraction rounds up", "2025-01-10 10:00", "2025-01-12 11:00", 4},
		{"Just under two days", "2025-01-10 10:00", "2025-01-12 09:00", 3},
		{"Month boundary", "2025-01-30 12:00", "2025-02-02 12:00", 4},
		{"Leap day", "2024-02-28 08:00", "2024-03-01 08:00", 3},
		{"Half day reversed", "2025-01-10 12:00", "2025-01-10 00:00", 1},
		{"Far reversed clamps to zero", "2025-01-10 10:00", "2025-01-05 10:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateBillableDays(at(tt.start), at(tt.end)))
		})
	}
}

func TestCalculateRentalPrice(t *testing.T) {
	t.Run("Scenario three days", func(t *testing.T) {
		price := CalculateRentalPrice(at("2025-01-10 10:00"), at("2025-01-12 10:00"), 1000)
		assert.Equal(t, int64(3000), price)
	})

	t.Run("Same day equals rate", func(t *testing.T) {
		for _, rate := range []int64{1, 250, 1000, 99999} {
			d := at("2025-06-01 08:30")
			assert.Equal(t, rate, CalculateRentalPrice(d, d, rate))
		}
	})

	t.Run("Monotone in end", func(t *testing.T) {
		start := at("2025-03-01 09:00")
		prev := CalculateRentalPrice(start, start, 700)
		for h := 1; h <= 24*40; h++ {
			cur := CalculateRentalPrice(start, start.Add(time.Duration(h)*time.Hour), 700)
			assert.GreaterOrEqual(t, cur, prev, "price decreased at +%dh", h)
			prev = cur
		}
	})

	t.Run("DST shift does not change days", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skip("tzdata not available")
		}
		start := time.Date(2025, 3, 8, 10, 0, 0, 0, loc)
		end := time.Date(2025, 3, 10, 10, 0, 0, 0, loc)
		assert.Equal(t, int64(3), CalculateBillableDays(start, end))
	})
}

func TestCalculatePriceBreakdown(t *testing.T) {
	w := domain.Window{Start: at("2025-01-10 10:00"), End: at("2025-01-12 10:00")}
	b, err := CalculatePriceBreakdown(w, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.Days)
	assert.Equal(t, int64(1000), b.DailyRate)
	assert.Equal(t, int64(3000), b.Total)

	t.Run("Overflowing total is a validation error", func(t *testing.T) {
		_, err := CalculatePriceBreakdown(w, math.MaxInt64/2)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.ReasonInvalidField, domain.ReasonOf(err))
	})

	t.Run("Largest representable total is accepted", func(t *testing.T) {
		b, err := CalculatePriceBreakdown(w, math.MaxInt64/3)
		require.NoError(t, err)
		assert.Equal(t, int64(3)*(math.MaxInt64/3), b.Total)
	})
}
