package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCar(t *testing.T, s *Store) *domain.Car {
	t.Helper()
	car := &domain.Car{OwnerID: uuid.New(), Brand: "Suzuki", Model: "Swift", RentRate: 800, Availability: domain.CarAvailable}
	require.NoError(t, s.Cars().Create(context.Background(), car))
	return car
}

func TestStore_WithCarLockRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	car := seedCar(t, s)

	var bookingID uuid.UUID
	boom := errors.New("boom")
	err := s.WithCarLock(ctx, car.ID, func(ctx context.Context, repos repository.Repos) error {
		b := &domain.Booking{CarID: car.ID, Status: domain.BookingStatusConfirmed}
		if err := repos.Bookings.Create(ctx, b); err != nil {
			return err
		}
		bookingID = b.ID
		if err := repos.Cars.SetAvailability(ctx, car.ID, domain.CarRentedOut); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Bookings().GetByID(ctx, bookingID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "booking must be rolled back")

	stored, err := s.Cars().GetByID(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CarAvailable, stored.Availability, "availability must be rolled back")
}

func TestStore_WithCarLockUnknownCar(t *testing.T) {
	s := NewStore()
	err := s.WithCarLock(context.Background(), uuid.New(), func(ctx context.Context, repos repository.Repos) error {
		t.Fatal("unit of work must not run")
		return nil
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_WithCarLockSerializes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	car := seedCar(t, s)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithCarLock(ctx, car.ID, func(ctx context.Context, repos repository.Repos) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestStore_DeleteDropsCarLock(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	kept := seedCar(t, s)
	removed := seedCar(t, s)

	require.NoError(t, s.WithCarLock(ctx, kept.ID, func(ctx context.Context, repos repository.Repos) error {
		return repos.Cars.SetAvailability(ctx, kept.ID, domain.CarRentedOut)
	}))
	require.NoError(t, s.WithCarLock(ctx, removed.ID, func(ctx context.Context, repos repository.Repos) error {
		return repos.Cars.Delete(ctx, removed.ID)
	}))

	s.locksMu.Lock()
	_, keptLock := s.carLocks[kept.ID]
	_, removedLock := s.carLocks[removed.ID]
	s.locksMu.Unlock()
	assert.True(t, keptLock)
	assert.False(t, removedLock)

	t.Run("Failed delete keeps the lock", func(t *testing.T) {
		err := s.WithCarLock(ctx, kept.ID, func(ctx context.Context, repos repository.Repos) error {
			if err := repos.Cars.Delete(ctx, kept.ID); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)

		s.locksMu.Lock()
		_, ok := s.carLocks[kept.ID]
		s.locksMu.Unlock()
		assert.True(t, ok)
	})
}

func TestBookingRepository_Update(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	car := seedCar(t, s)

	b := &domain.Booking{CarID: car.ID, TotalPrice: 2400, DailyRate: 800, BilledDays: 3, Status: domain.BookingStatusConfirmed}
	require.NoError(t, s.Bookings().Create(ctx, b))

	b.TotalPrice, b.DailyRate, b.BilledDays = 4000, 1000, 4
	b.Status = domain.BookingStatusModified
	require.NoError(t, s.Bookings().Update(ctx, b))

	stored, err := s.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), stored.TotalPrice)
	assert.Equal(t, int64(1000), stored.DailyRate)
	assert.Equal(t, int64(4), stored.BilledDays)
}

func TestBookingRepository_FindConflicting(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	car := seedCar(t, s)

	existing := &domain.Booking{
		CarID:  car.ID,
		Status: domain.BookingStatusConfirmed,
		Window: domain.Window{
			Start: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, s.Bookings().Create(ctx, existing))

	other := domain.Window{
		Start: time.Date(2025, 1, 12, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC),
	}

	got, err := s.Bookings().FindConflicting(ctx, car.ID, other, uuid.Nil, domain.BoundaryClosed)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.Bookings().FindConflicting(ctx, car.ID, other, uuid.Nil, domain.BoundaryHalfOpen)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Bookings().FindConflicting(ctx, uuid.New(), other, uuid.Nil, domain.BoundaryClosed)
	require.NoError(t, err)
	assert.Empty(t, got, "bookings of other cars never conflict")
}

func TestNotificationRepository_List(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Notifications().Create(ctx, &domain.Notification{UserID: user, Title: "t"}))
	}
	require.NoError(t, s.Notifications().Create(ctx, &domain.Notification{UserID: uuid.New(), Title: "other"}))

	notes, total, err := s.Notifications().List(ctx, user, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Len(t, notes, 2)

	notes, _, err = s.Notifications().List(ctx, user, 2, 2)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, s.Notifications().MarkAsRead(ctx, notes[0].ID, user))
	assert.Error(t, s.Notifications().MarkAsRead(ctx, notes[0].ID, uuid.New()))
}
