package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentrush-backend/internal/domain"
)

func TestCarService_AddCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newCar := func() *domain.Car {
		return &domain.Car{
			Brand:        "Honda",
			Model:        "Civic",
			Color:        "Black",
			Year:         2023,
			EngineType:   "Petrol",
			BodyType:     domain.BodyTypeSedan,
			Transmission: domain.TransmissionManual,
			Mileage:      "14 km/l",
			RentRate:     1500,
			Availability: domain.CarInMaintenance,
		}
	}

	t.Run("Success", func(t *testing.T) {
		car := newCar()
		err := f.cars.AddCar(ctx, f.showroom, car)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, car.ID)
		assert.Equal(t, f.showroom.UserID, car.OwnerID)
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Clients may not list cars", func(t *testing.T) {
		err := f.cars.AddCar(ctx, f.renter, newCar())
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("Missing attributes", func(t *testing.T) {
		car := newCar()
		car.Model = ""
		err := f.cars.AddCar(ctx, f.showroom, car)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, domain.ReasonMissingFields, domain.ReasonOf(err))
	})
}

func TestCarService_UpdateCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate := int64(1200)
	updated, err := f.cars.UpdateCar(ctx, f.showroom, f.car.ID, domain.CarUpdate{RentRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.RentRate)
	assert.Equal(t, domain.CarAvailable, updated.Availability)

	rival := domain.Principal{UserID: uuid.New(), Role: domain.RoleShowroom}
	_, err = f.cars.UpdateCar(ctx, rival, f.car.ID, domain.CarUpdate{RentRate: &rate})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.cars.UpdateCar(ctx, f.showroom, uuid.New(), domain.CarUpdate{RentRate: &rate})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCarService_RemoveCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.bookings.BookCar(ctx, f.renter, f.request("2025-01-10", "2025-01-12"))
	require.NoError(t, err)

	err = f.cars.RemoveCar(ctx, f.showroom, f.car.ID)
	assert.True(t, errors.Is(err, domain.ErrStateConflict))

	_, err = f.bookings.CancelBooking(ctx, f.renter, res.Booking.ID)
	require.NoError(t, err)

	require.NoError(t, f.cars.RemoveCar(ctx, f.showroom, f.car.ID))
	_, err = f.cars.GetCar(ctx, f.car.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCarService_InspectionFlow(t *testing.T) {
	ctx := context.Background()

	returned := func(t *testing.T) *fixture {
		f := newFixture(t)
		res, err := f.bookings.BookCar(ctx, f.renter, f.request("2025-01-10", "2025-01-12"))
		require.NoError(t, err)
		_, err = f.bookings.ProcessReturn(ctx, f.renter, res.Booking.ID)
		require.NoError(t, err)
		return f
	}

	t.Run("Passed inspection frees the car", func(t *testing.T) {
		f := returned(t)

		car, err := f.cars.UpdateReturnDetails(ctx, f.showroom, f.car.ID, "14 km/l", 60)
		require.NoError(t, err)
		require.NotNil(t, car.FuelLevel)
		assert.Equal(t, 60, *car.FuelLevel)

		car, err = f.cars.CompleteInspection(ctx, f.showroom, f.car.ID, true, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Failed inspection sends the car to maintenance", func(t *testing.T) {
		f := returned(t)

		_, err := f.cars.CompleteInspection(ctx, f.showroom, f.car.ID, false, []string{" "})
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, domain.CarPendingInspection, f.availability(t), "rejected call leaves the car as is")

		car, err := f.cars.CompleteInspection(ctx, f.showroom, f.car.ID, false, []string{"replace wiper", "refill coolant"})
		require.NoError(t, err)
		assert.Equal(t, domain.CarInMaintenance, car.Availability)
		require.Len(t, car.MaintenanceLogs, 1)
		assert.Equal(t, []string{"replace wiper", "refill coolant"}, car.MaintenanceLogs[0].Tasks)

		car, err = f.cars.CompleteMaintenance(ctx, f.showroom, f.car.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CarAvailable, car.Availability)
	})

	t.Run("Inspection requires a returned car", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cars.CompleteInspection(ctx, f.showroom, f.car.ID, true, nil)
		assert.True(t, errors.Is(err, domain.ErrStateConflict))
		assert.Equal(t, domain.ReasonInvalidTransition, domain.ReasonOf(err))
	})

	t.Run("Bad fuel level", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cars.UpdateReturnDetails(ctx, f.showroom, f.car.ID, "14 km/l", 140)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestCarService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cars.SearchCars(ctx, " ", "")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	cars, err := f.cars.SearchCars(ctx, "", "toyota")
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, f.car.ID, cars[0].ID)

	mine, err := f.cars.ListMyCars(ctx, f.showroom)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
