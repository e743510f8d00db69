package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository"
)

const bookingColumns = `id, car_id, renter_id, showroom_id, start_at, end_at, total_price, daily_rate, billed_days, status, invoice_key, invoice_status, created_at, updated_at`

// liveStatusFilter must list the same statuses as domain.LiveBookingStatuses.
const liveStatusFilter = `status IN ('CONFIRMED', 'MODIFIED')`

type bookingRepository struct {
	db querier
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return newBookingRepository(db)
}

func newBookingRepository(q querier) *bookingRepository {
	return &bookingRepository{db: q}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b             domain.Booking
		status        string
		invoiceStatus string
	)
	err := row.Scan(&b.ID, &b.CarID, &b.RenterID, &b.ShowroomID, &b.Window.Start, &b.Window.End, &b.TotalPrice,
		&b.DailyRate, &b.BilledDays, &status, &b.InvoiceKey, &invoiceStatus, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.InvoiceStatus = domain.InvoiceStatus(invoiceStatus)
	return &b, nil
}

// Windows are stored as TIMESTAMP WITHOUT TIME ZONE. Passing the wall clock
// as text keeps the session time zone out of the conversion.
func wallTimestamp(t time.Time) string {
	return t.Format(domain.TimestampLayout)
}

func wallDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "carID", b.CarID, "renterID", b.RenterID)

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.InvoiceStatus == "" {
		b.InvoiceStatus = domain.InvoiceStatusPending
	}
	now := time.Now().UTC()

	query := `INSERT INTO bookings (id, car_id, renter_id, showroom_id, start_at, end_at, total_price, daily_rate, billed_days, status, invoice_key, invoice_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)
	res, err := r.db.ExecContext(ctx, query, b.ID, b.CarID, b.RenterID, b.ShowroomID,
		wallTimestamp(b.Window.Start), wallTimestamp(b.Window.End), b.TotalPrice, b.DailyRate, b.BilledDays, string(b.Status),
		b.InvoiceKey, string(b.InvoiceStatus), now, now)
	logger.DatabaseResult("INSERT", rowsAffected(res), err, "bookingID", b.ID)
	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "bookingID", b.ID)
		return storeError("insert booking", err)
	}

	b.CreatedAt, b.UpdatedAt = now, now
	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Reject(domain.ErrNotFound, domain.ReasonBookingNotFound, "booking %s not found", id)
		}
		return nil, storeError("get booking", err)
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	now := time.Now().UTC()
	query := `UPDATE bookings SET start_at=$1, end_at=$2, total_price=$3, daily_rate=$4, billed_days=$5, status=$6, updated_at=$7 WHERE id=$8`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID, "status", b.Status)
	res, err := r.db.ExecContext(ctx, query, wallTimestamp(b.Window.Start), wallTimestamp(b.Window.End),
		b.TotalPrice, b.DailyRate, b.BilledDays, string(b.Status), now, b.ID)
	logger.DatabaseResult("UPDATE", rowsAffected(res), err, "bookingID", b.ID)
	if err != nil {
		return storeError("update booking", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonBookingNotFound, "booking %s not found", b.ID)
	}
	b.UpdatedAt = now
	return nil
}

func (r *bookingRepository) UpdateInvoice(ctx context.Context, id uuid.UUID, key string, status domain.InvoiceStatus) error {
	query := `UPDATE bookings SET invoice_key=$1, invoice_status=$2, updated_at=$3 WHERE id=$4`
	res, err := r.db.ExecContext(ctx, query, key, string(status), time.Now().UTC(), id)
	if err != nil {
		return storeError("update booking invoice", err)
	}
	if rowsAffected(res) == 0 {
		return domain.Reject(domain.ErrNotFound, domain.ReasonBookingNotFound, "booking %s not found", id)
	}
	return nil
}

// FindConflicting applies the overlap rule in SQL. The closed rule compares
// calendar days, the half-open rule compares wall-clock instants.
func (r *bookingRepository) FindConflicting(ctx context.Context, carID uuid.UUID, w domain.Window, excludeID uuid.UUID, policy domain.BoundaryPolicy) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE car_id = $1 AND ` + liveStatusFilter + ` AND id <> $2`
	var args []any
	if policy == domain.BoundaryHalfOpen {
		query += ` AND start_at < $3::timestamp AND end_at > $4::timestamp`
		args = []any{carID, excludeID, wallTimestamp(w.End), wallTimestamp(w.Start)}
	} else {
		query += ` AND start_at::date <= $3::date AND end_at::date >= $4::date`
		args = []any{carID, excludeID, wallDate(w.End), wallDate(w.Start)}
	}
	query += ` ORDER BY start_at`

	return r.list(ctx, "find conflicting bookings", query, args...)
}

func (r *bookingRepository) ListLiveByCar(ctx context.Context, carID uuid.UUID) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE car_id = $1 AND ` + liveStatusFilter + ` ORDER BY start_at`
	return r.list(ctx, "list live bookings by car", query, carID)
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE renter_id = $1 ORDER BY start_at DESC`
	return r.list(ctx, "list bookings by renter", query, renterID)
}

func (r *bookingRepository) ListByShowroom(ctx context.Context, showroomID uuid.UUID) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE showroom_id = $1 ORDER BY start_at DESC`
	return r.list(ctx, "list bookings by showroom", query, showroomID)
}

func (r *bookingRepository) ListByInvoiceStatus(ctx context.Context, status domain.InvoiceStatus) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE invoice_status = $1 AND status <> 'CANCELLED' ORDER BY created_at`
	return r.list(ctx, "list bookings by invoice status", query, string(status))
}

func (r *bookingRepository) ListLiveEndingOn(ctx context.Context, day time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + liveStatusFilter + ` AND end_at::date = $1::date ORDER BY end_at`
	return r.list(ctx, "list bookings ending on day", query, wallDate(day))
}

func (r *bookingRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	logger.DatabaseCall("SELECT", op)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "op", op)
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	logger.DatabaseResult("SELECT", int64(len(bookings)), nil, "op", op)
	return bookings, nil
}
