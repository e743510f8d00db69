package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/lifecycle"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository"
	"rentrush-backend/internal/utils"
)

type carService struct {
	tx       repository.TxManager
	cars     repository.CarRepository
	bookings repository.BookingRepository
	loc      *time.Location
	now      func() time.Time
}

func NewCarService(tx repository.TxManager, cars repository.CarRepository, bookings repository.BookingRepository, loc *time.Location) CarService {
	if loc == nil {
		loc = time.UTC
	}
	return &carService{
		tx:       tx,
		cars:     cars,
		bookings: bookings,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *carService) AddCar(ctx context.Context, p domain.Principal, car *domain.Car) error {
	logger.EnterMethod("carService.AddCar", "ownerID", p.UserID)

	if !p.IsShowroom() && !p.IsAdmin() {
		err := domain.Reject(domain.ErrForbidden, domain.ReasonNotOwner, "only showrooms may list cars")
		logger.ExitMethodWithError("carService.AddCar", err, "ownerID", p.UserID)
		return err
	}
	car.OwnerID = p.UserID
	car.Availability = domain.CarAvailable
	if err := car.Validate(); err != nil {
		logger.ExitMethodWithError("carService.AddCar", err, "ownerID", p.UserID)
		return err
	}
	if err := s.cars.Create(ctx, car); err != nil {
		logger.ExitMethodWithError("carService.AddCar", err, "ownerID", p.UserID)
		return err
	}

	logger.ExitMethod("carService.AddCar", "carID", car.ID)
	return nil
}

func (s *carService) UpdateCar(ctx context.Context, p domain.Principal, id uuid.UUID, update domain.CarUpdate) (*domain.Car, error) {
	return s.mutate(ctx, p, id, "carService.UpdateCar", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		update.Apply(car)
		if err := car.Validate(); err != nil {
			return err
		}
		return repos.Cars.Update(ctx, car)
	})
}

func (s *carService) RemoveCar(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	_, err := s.mutate(ctx, p, id, "carService.RemoveCar", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		if car.Availability == domain.CarRentedOut {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonCarUnavailable, "car %s is rented out", car.ID)
		}
		live, err := repos.Bookings.ListLiveByCar(ctx, car.ID)
		if err != nil {
			return err
		}
		if len(live) > 0 {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonCarUnavailable,
				"car %s has %d open bookings", car.ID, len(live))
		}
		return repos.Cars.Delete(ctx, car.ID)
	})
	return err
}

func (s *carService) GetCar(ctx context.Context, id uuid.UUID) (*domain.Car, error) {
	return s.cars.GetByID(ctx, id)
}

func (s *carService) ListCars(ctx context.Context) ([]domain.Car, error) {
	return s.cars.List(ctx)
}

func (s *carService) ListMyCars(ctx context.Context, p domain.Principal) ([]domain.Car, error) {
	return s.cars.ListByOwner(ctx, p.UserID)
}

func (s *carService) SearchCars(ctx context.Context, model, brand string) ([]domain.Car, error) {
	model, brand = strings.TrimSpace(model), strings.TrimSpace(brand)
	if model == "" && brand == "" {
		return nil, domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "model or brand is required")
	}
	return s.cars.Search(ctx, model, brand)
}

func (s *carService) UpdateReturnDetails(ctx context.Context, p domain.Principal, id uuid.UUID, mileage string, fuelLevel int) (*domain.Car, error) {
	return s.mutate(ctx, p, id, "carService.UpdateReturnDetails", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		if strings.TrimSpace(mileage) == "" {
			return domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "mileage is required")
		}
		if fuelLevel < 0 || fuelLevel > 100 {
			return domain.Reject(domain.ErrValidation, domain.ReasonInvalidField, "fuel level %d is outside 0-100", fuelLevel)
		}
		return repos.Cars.UpdateReturnDetails(ctx, car.ID, mileage, fuelLevel)
	})
}

// CompleteInspection clears a returned car. A failed inspection records
// the tasks found and sends the car to maintenance.
func (s *carService) CompleteInspection(ctx context.Context, p domain.Principal, id uuid.UUID, passed bool, tasks []string) (*domain.Car, error) {
	return s.mutate(ctx, p, id, "carService.CompleteInspection", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		if car.Availability != domain.CarPendingInspection {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonInvalidTransition,
				"car %s is %s, not pending inspection", car.ID, car.Availability)
		}
		if passed {
			if err := lifecycle.Move(ctx, car, lifecycle.EventPassInspection); err != nil {
				return err
			}
			return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
		}
		return s.startMaintenance(ctx, repos, car, tasks)
	})
}

func (s *carService) AddMaintenanceLog(ctx context.Context, p domain.Principal, id uuid.UUID, tasks []string) (*domain.Car, error) {
	return s.mutate(ctx, p, id, "carService.AddMaintenanceLog", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		return s.startMaintenance(ctx, repos, car, tasks)
	})
}

func (s *carService) CompleteMaintenance(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Car, error) {
	return s.mutate(ctx, p, id, "carService.CompleteMaintenance", func(ctx context.Context, repos repository.Repos, car *domain.Car) error {
		if err := lifecycle.Move(ctx, car, lifecycle.EventFinishMaintenance); err != nil {
			return err
		}
		return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
	})
}

func (s *carService) startMaintenance(ctx context.Context, repos repository.Repos, car *domain.Car, tasks []string) error {
	var cleaned []string
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "at least one maintenance task is required")
	}

	if err := lifecycle.Move(ctx, car, lifecycle.EventStartMaintenance); err != nil {
		return err
	}
	if err := repos.Cars.AddMaintenanceLog(ctx, car.ID, domain.MaintenanceLog{
		Date:  utils.Today(s.now(), s.loc),
		Tasks: cleaned,
	}); err != nil {
		return err
	}
	return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
}

// mutate runs fn on the car under its lock after checking that p owns it,
// and returns the car as stored afterwards.
func (s *carService) mutate(
	ctx context.Context,
	p domain.Principal,
	id uuid.UUID,
	method string,
	fn func(ctx context.Context, repos repository.Repos, car *domain.Car) error,
) (*domain.Car, error) {
	logger.EnterMethod(method, "userID", p.UserID, "carID", id)

	var out *domain.Car
	err := s.tx.WithCarLock(ctx, id, func(ctx context.Context, repos repository.Repos) error {
		car, err := repos.Cars.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if car.OwnerID != p.UserID && !p.IsAdmin() {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotOwner, "car %s belongs to another showroom", id)
		}
		if err := fn(ctx, repos, car); err != nil {
			return err
		}
		out, err = repos.Cars.GetByID(ctx, id)
		if err != nil && domain.ReasonOf(err) == domain.ReasonCarNotFound {
			// Deleted by fn.
			return nil
		}
		return err
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "carID", id)
		return nil, err
	}

	logger.ExitMethod(method, "carID", id)
	return out, nil
}
