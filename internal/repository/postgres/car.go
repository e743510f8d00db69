package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository"
)

const carColumns = `id, owner_id, brand, model, color, year, engine_type, body_type, transmission, mileage, fuel_level, images, rent_rate, availability, created_at, updated_at`

type carRepository struct {
	db querier
}

func NewCarRepository(db *sql.DB) repository.CarRepository {
	return newCarRepository(db)
}

func newCarRepository(q querier) *carRepository {
	return &carRepository{db: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var (
		c     domain.Car
		fuel  sql.NullInt64
		body  string
		trans string
		avail string
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.Color, &c.Year, &c.EngineType, &body, &trans,
		&c.Mileage, &fuel, pq.Array(&c.Images), &c.RentRate, &avail, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.BodyType = domain.BodyType(body)
	c.Transmission = domain.Transmission(trans)
	c.Availability = domain.CarAvailability(avail)
	if fuel.Valid {
		level := int(fuel.Int64)
		c.FuelLevel = &level
	}
	return &c, nil
}

func (r *carRepository) Create(ctx context.Context, c *domain.Car) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	images := c.Images
	if images == nil {
		images = []string{}
	}
	now := time.Now().UTC()

	query := `INSERT INTO cars (id, owner_id, brand, model, color, year, engine_type, body_type, transmission, mileage, images, rent_rate, availability, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	logger.DatabaseCall("INSERT", "cars", "carID", c.ID, "ownerID", c.OwnerID)
	res, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.Brand, c.Model, c.Color, c.Year, c.EngineType,
		string(c.BodyType), string(c.Transmission), c.Mileage, pq.Array(images), c.RentRate, string(c.Availability), now, now)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "carID", c.ID)
	if err != nil {
		return storeError("insert car", err)
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`
	c, err := scanCar(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
		}
		return nil, storeError("get car", err)
	}

	logs, err := r.maintenanceLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	c.MaintenanceLogs = logs
	return c, nil
}

func (r *carRepository) maintenanceLogs(ctx context.Context, carID uuid.UUID) ([]domain.MaintenanceLog, error) {
	query := `SELECT performed_on, tasks FROM car_maintenance_logs WHERE car_id = $1 ORDER BY performed_on`
	rows, err := r.db.QueryContext(ctx, query, carID)
	if err != nil {
		return nil, storeError("list maintenance logs", err)
	}
	defer rows.Close()

	var logs []domain.MaintenanceLog
	for rows.Next() {
		var l domain.MaintenanceLog
		if err := rows.Scan(&l.Date, pq.Array(&l.Tasks)); err != nil {
			return nil, storeError("scan maintenance log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate maintenance logs", err)
	}
	return logs, nil
}

func (r *carRepository) Update(ctx context.Context, c *domain.Car) error {
	images := c.Images
	if images == nil {
		images = []string{}
	}
	now := time.Now().UTC()

	query := `UPDATE cars SET brand=$1, model=$2, color=$3, year=$4, engine_type=$5, body_type=$6, transmission=$7, mileage=$8, images=$9, rent_rate=$10, updated_at=$11
	          WHERE id=$12`
	logger.DatabaseCall("UPDATE", "cars", "carID", c.ID)
	res, err := r.db.ExecContext(ctx, query, c.Brand, c.Model, c.Color, c.Year, c.EngineType, string(c.BodyType),
		string(c.Transmission), c.Mileage, pq.Array(images), c.RentRate, now, c.ID)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "carID", c.ID)
	if err != nil {
		return storeError("update car", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", c.ID)
	}
	c.UpdatedAt = now
	return nil
}

func (r *carRepository) SetAvailability(ctx context.Context, id uuid.UUID, availability domain.CarAvailability) error {
	query := `UPDATE cars SET availability=$1, updated_at=$2 WHERE id=$3`
	logger.DatabaseCall("UPDATE", "cars.availability", "carID", id, "availability", availability)
	res, err := r.db.ExecContext(ctx, query, string(availability), time.Now().UTC(), id)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "carID", id)
	if err != nil {
		return storeError("set car availability", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	return nil
}

func (r *carRepository) UpdateReturnDetails(ctx context.Context, id uuid.UUID, mileage string, fuelLevel int) error {
	query := `UPDATE cars SET mileage=$1, fuel_level=$2, updated_at=$3 WHERE id=$4`
	res, err := r.db.ExecContext(ctx, query, mileage, fuelLevel, time.Now().UTC(), id)
	if err != nil {
		return storeError("update return details", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	return nil
}

func (r *carRepository) AddMaintenanceLog(ctx context.Context, id uuid.UUID, log domain.MaintenanceLog) error {
	query := `INSERT INTO car_maintenance_logs (car_id, performed_on, tasks) VALUES ($1, $2, $3)`
	logger.DatabaseCall("INSERT", "car_maintenance_logs", "carID", id, "tasks", len(log.Tasks))
	_, err := r.db.ExecContext(ctx, query, id, log.Date, pq.Array(log.Tasks))
	logger.DatabaseResult("INSERT", 1, err, "carID", id)
	if err != nil {
		return storeError("insert maintenance log", err)
	}
	return nil
}

func (r *carRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return storeError("delete car", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	return nil
}

func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	return r.list(ctx, `SELECT `+carColumns+` FROM cars ORDER BY created_at DESC`)
}

func (r *carRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Car, error) {
	return r.list(ctx, `SELECT `+carColumns+` FROM cars WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// Search matches model and brand as case-insensitive substrings. An empty
// term matches everything.
func (r *carRepository) Search(ctx context.Context, model, brand string) ([]domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars
	          WHERE ($1 = '' OR model ILIKE '%' || $1 || '%')
	            AND ($2 = '' OR brand ILIKE '%' || $2 || '%')
	          ORDER BY created_at DESC`
	return r.list(ctx, query, model, brand)
}

func (r *carRepository) list(ctx context.Context, query string, args ...any) ([]domain.Car, error) {
	logger.DatabaseCall("SELECT", "cars", "args", len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, storeError("list cars", err)
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, storeError("scan car", err)
		}
		cars = append(cars, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate cars", err)
	}
	logger.DatabaseResult("SELECT", int64(len(cars)), nil)
	return cars, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
