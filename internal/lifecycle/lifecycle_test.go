package lifecycle

import (
	"context"
	"errors"
	"testing"

	"rentrush-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path", func(t *testing.T) {
		b := &domain.Booking{}
		m := NewBookingMachine(b)

		require.NoError(t, m.Fire(ctx, EventConfirm))
		assert.Equal(t, domain.BookingStatusConfirmed, b.Status)

		require.NoError(t, m.Fire(ctx, EventModify))
		assert.Equal(t, domain.BookingStatusModified, b.Status)

		// Modified -> Modified is a self-transition and succeeds.
		require.NoError(t, m.Fire(ctx, EventModify))
		assert.Equal(t, domain.BookingStatusModified, b.Status)

		require.NoError(t, m.Fire(ctx, EventComplete))
		assert.Equal(t, domain.BookingStatusCompleted, b.Status)
	})

	t.Run("Terminal states reject events", func(t *testing.T) {
		b := &domain.Booking{Status: domain.BookingStatusCancelled}
		err := Transition(ctx, b, EventModify)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStateConflict))
		assert.Equal(t, domain.ReasonInvalidTransition, domain.ReasonOf(err))
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)

		b = &domain.Booking{Status: domain.BookingStatusCompleted}
		assert.Error(t, Transition(ctx, b, EventCancel))
	})

	t.Run("Cancel from any live state", func(t *testing.T) {
		for _, s := range []domain.BookingStatus{domain.BookingStatusRequested, domain.BookingStatusConfirmed, domain.BookingStatusModified} {
			b := &domain.Booking{Status: s}
			require.NoError(t, Transition(ctx, b, EventCancel), "from %s", s)
			assert.Equal(t, domain.BookingStatusCancelled, b.Status)
		}
	})
}

func TestCarMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("Rent and release", func(t *testing.T) {
		car := &domain.Car{Availability: domain.CarAvailable}
		require.NoError(t, Move(ctx, car, EventRent))
		assert.Equal(t, domain.CarRentedOut, car.Availability)

		require.NoError(t, Move(ctx, car, EventRelease))
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Return waits for inspection", func(t *testing.T) {
		car := &domain.Car{Availability: domain.CarRentedOut}
		m := NewCarMachine(car)

		require.NoError(t, m.Fire(ctx, EventReturn))
		assert.Equal(t, domain.CarPendingInspection, car.Availability)

		assert.Error(t, m.Fire(ctx, EventRent), "a car awaiting inspection cannot be rented")

		require.NoError(t, m.Fire(ctx, EventPassInspection))
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Maintenance cycle", func(t *testing.T) {
		car := &domain.Car{Availability: domain.CarPendingInspection}
		m := NewCarMachine(car)

		require.NoError(t, m.Fire(ctx, EventStartMaintenance))
		require.NoError(t, m.Fire(ctx, EventStartMaintenance))
		assert.Equal(t, domain.CarInMaintenance, car.Availability)

		require.NoError(t, m.Fire(ctx, EventFinishMaintenance))
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Rented car cannot enter maintenance", func(t *testing.T) {
		car := &domain.Car{Availability: domain.CarRentedOut}
		err := Move(ctx, car, EventStartMaintenance)
		assert.True(t, errors.Is(err, domain.ErrStateConflict))
		assert.Equal(t, domain.CarRentedOut, car.Availability)
	})
}
