package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run inside or outside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.CarRepository
	repository.BookingRepository
	repository.UserRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		CarRepository:          NewCarRepository(db),
		BookingRepository:      NewBookingRepository(db),
		UserRepository:         NewUserRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// Cars returns the car repository outside any unit of work.
func (s *Store) Cars() repository.CarRepository { return s.CarRepository }

// Bookings returns the booking repository outside any unit of work.
func (s *Store) Bookings() repository.BookingRepository { return s.BookingRepository }

// Users returns the account lookup repository.
func (s *Store) Users() repository.UserRepository { return s.UserRepository }

// Notifications returns the inbox repository.
func (s *Store) Notifications() repository.NotificationRepository { return s.NotificationRepository }

// WithCarLock opens a transaction and takes the car's row lock with
// SELECT ... FOR UPDATE. Concurrent units of work on the same car queue on
// that lock until this one commits or rolls back.
func (s *Store) WithCarLock(ctx context.Context, carID uuid.UUID, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	logger.EnterMethod("Store.WithCarLock", "carID", carID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.ExitMethodWithError("Store.WithCarLock", err, "step", "begin")
		return storeError("begin transaction", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Failed to roll back transaction", "carID", carID, "error", rbErr)
		}
		logger.ExitMethodWithError("Store.WithCarLock", err, "carID", carID)
	}()

	logger.DatabaseCall("SELECT FOR UPDATE", "cars", "carID", carID)
	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM cars WHERE id = $1 FOR UPDATE`, carID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", carID)
		}
		return storeError("lock car", err)
	}

	repos := repository.Repos{
		Cars:     newCarRepository(tx),
		Bookings: newBookingRepository(tx),
	}
	if err = fn(ctx, repos); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return storeError("commit transaction", err)
	}
	logger.ExitMethod("Store.WithCarLock", "carID", carID)
	return nil
}
