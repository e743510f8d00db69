package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
)

type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Car, error)
	// Update writes the listing attributes. Availability is not touched.
	Update(ctx context.Context, car *domain.Car) error
	SetAvailability(ctx context.Context, id uuid.UUID, availability domain.CarAvailability) error
	UpdateReturnDetails(ctx context.Context, id uuid.UUID, mileage string, fuelLevel int) error
	AddMaintenanceLog(ctx context.Context, id uuid.UUID, log domain.MaintenanceLog) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]domain.Car, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Car, error)
	Search(ctx context.Context, model, brand string) ([]domain.Car, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// Update writes window, price and status.
	Update(ctx context.Context, booking *domain.Booking) error
	UpdateInvoice(ctx context.Context, id uuid.UUID, key string, status domain.InvoiceStatus) error
	// FindConflicting returns live bookings of carID whose window overlaps w
	// under policy, skipping excludeID.
	FindConflicting(ctx context.Context, carID uuid.UUID, w domain.Window, excludeID uuid.UUID, policy domain.BoundaryPolicy) ([]domain.Booking, error)
	ListLiveByCar(ctx context.Context, carID uuid.UUID) ([]domain.Booking, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error)
	ListByShowroom(ctx context.Context, showroomID uuid.UUID) ([]domain.Booking, error)
	ListByInvoiceStatus(ctx context.Context, status domain.InvoiceStatus) ([]domain.Booking, error)
	// ListLiveEndingOn returns live bookings whose window ends on day.
	ListLiveEndingOn(ctx context.Context, day time.Time) ([]domain.Booking, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
}

// Repos are the repositories bound to one unit of work.
type Repos struct {
	Cars     CarRepository
	Bookings BookingRepository
}

// TxManager runs units of work that are serialized per car.
type TxManager interface {
	// WithCarLock runs fn while holding an exclusive lock on carID. Writes
	// made through repos commit together when fn returns nil and are rolled
	// back otherwise. Units of work on different cars do not contend.
	WithCarLock(ctx context.Context, carID uuid.UUID, fn func(ctx context.Context, repos Repos) error) error
}
