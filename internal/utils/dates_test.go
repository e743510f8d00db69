package utils

import (
	"testing"
	"time"

	"rentrush-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime_DaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone database unavailable: %v", err)
	}

	t.Run("Skipped clock time is rejected", func(t *testing.T) {
		_, err := ParseDateTime("2025-03-09", "02:30", loc)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.ReasonMalformedTime, domain.ReasonOf(err))
	})

	t.Run("Times around the gap are kept", func(t *testing.T) {
		before, err := ParseDateTime("2025-03-09", "01:59", loc)
		require.NoError(t, err)
		assert.Equal(t, "01:59", FormatClock(before))

		after, err := ParseDateTime("2025-03-09", "03:00", loc)
		require.NoError(t, err)
		assert.Equal(t, "03:00", FormatClock(after))
	})

	t.Run("Repeated clock time is accepted", func(t *testing.T) {
		got, err := ParseDateTime("2025-11-02", "01:30", loc)
		require.NoError(t, err)
		assert.Equal(t, "01:30", FormatClock(got))
	})
}
