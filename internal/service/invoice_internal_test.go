package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/invoice"
	"rentrush-backend/internal/repository/memory"
	"rentrush-backend/internal/storage"
)

func TestInvoiceService_SnapshotUsesBilledRate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	renterID, showroomID := uuid.New(), uuid.New()
	store.AddUser(domain.User{ID: renterID, Name: "Ayesha Khan", Role: domain.RoleClient})
	store.AddUser(domain.User{ID: showroomID, Name: "Motor Hub", Role: domain.RoleShowroom})

	car := &domain.Car{
		OwnerID:      showroomID,
		Brand:        "Toyota",
		Model:        "Corolla",
		Color:        "White",
		Year:         2022,
		EngineType:   "Petrol",
		BodyType:     domain.BodyTypeSedan,
		Transmission: domain.TransmissionAutomatic,
		Mileage:      "15 km/l",
		RentRate:     1500,
		Availability: domain.CarRentedOut,
	}
	require.NoError(t, store.Cars().Create(ctx, car))

	booking := &domain.Booking{
		CarID:      car.ID,
		RenterID:   renterID,
		ShowroomID: showroomID,
		Window: domain.Window{
			Start: time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC),
		},
		TotalPrice: 3000,
		DailyRate:  1000,
		BilledDays: 3,
		Status:     domain.BookingStatusConfirmed,
	}
	require.NoError(t, store.Bookings().Create(ctx, booking))

	local, err := storage.NewLocalStore("http://localhost:8080", t.TempDir())
	require.NoError(t, err)
	svc := NewInvoiceService(store, store.Bookings(), store.Cars(), store.Users(),
		invoice.NewRenderer(invoice.Issuer{}), local, time.Minute).(*invoiceService)

	snap, err := svc.snapshot(ctx, booking)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Days)
	assert.Equal(t, int64(1000), snap.DailyRate)
	assert.Equal(t, int64(3000), snap.Total)
	assert.Equal(t, snap.Total, snap.Days*snap.DailyRate)
}
