package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/invoice"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/metrics"
	"rentrush-backend/internal/repository"
	"rentrush-backend/internal/storage"
	"rentrush-backend/internal/utils"
)

type invoiceService struct {
	tx        repository.TxManager
	bookings  repository.BookingRepository
	cars      repository.CarRepository
	users     repository.UserRepository
	renderer  *invoice.Renderer
	store     storage.DocumentStore
	urlExpiry time.Duration
	now       func() time.Time
}

func NewInvoiceService(
	tx repository.TxManager,
	bookings repository.BookingRepository,
	cars repository.CarRepository,
	users repository.UserRepository,
	renderer *invoice.Renderer,
	store storage.DocumentStore,
	urlExpiry time.Duration,
) InvoiceService {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &invoiceService{
		tx:        tx,
		bookings:  bookings,
		cars:      cars,
		users:     users,
		renderer:  renderer,
		store:     store,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

func (s *invoiceService) IssueInvoice(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	logger.EnterMethod("invoiceService.IssueInvoice", "bookingID", bookingID)

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.IssueInvoice", err, "bookingID", bookingID)
		return nil, err
	}

	key := domain.InvoiceKey(b.ID)
	issueErr := s.render(ctx, b, key)

	status := domain.InvoiceStatusIssued
	if issueErr != nil {
		status = domain.InvoiceStatusFailed
	}

	// Recorded under the car lock so it cannot interleave with a
	// reschedule of the same booking.
	err = s.tx.WithCarLock(ctx, b.CarID, func(ctx context.Context, repos repository.Repos) error {
		return repos.Bookings.UpdateInvoice(ctx, b.ID, key, status)
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.IssueInvoice", err, "bookingID", bookingID, "invoiceStatus", status)
		return nil, err
	}
	b.InvoiceKey = key
	b.InvoiceStatus = status

	if issueErr != nil {
		metrics.InvoiceFailuresTotal.Inc()
		logger.Error("Invoice could not be issued",
			"bookingID", b.ID, "carID", b.CarID, "renterID", b.RenterID,
			"total", b.TotalPrice, "key", key, "error", issueErr)
		return b, domain.Wrap(domain.ErrDownstream, domain.ReasonInvoiceFailed, issueErr,
			"booking %s is saved but its invoice could not be issued", b.ID)
	}

	logger.ExitMethod("invoiceService.IssueInvoice", "bookingID", bookingID, "key", key)
	return b, nil
}

// render builds the invoice snapshot of b and stores the PDF under key.
func (s *invoiceService) render(ctx context.Context, b *domain.Booking, key string) error {
	snap, err := s.snapshot(ctx, b)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, snap); err != nil {
		return err
	}
	return s.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), invoice.ContentType)
}

func (s *invoiceService) snapshot(ctx context.Context, b *domain.Booking) (domain.InvoiceSnapshot, error) {
	car, err := s.cars.GetByID(ctx, b.CarID)
	if err != nil {
		return domain.InvoiceSnapshot{}, err
	}
	// Billed figures come from the booking, not the car's current rate.
	price := utils.BookingPrice(b)

	snap := domain.InvoiceSnapshot{
		BookingID: b.ID,
		IssuedAt:  s.now(),
		CarBrand:  car.Brand,
		CarModel:  car.Model,
		CarColor:  car.Color,
		CarYear:   car.Year,
		Window:    b.Window,
		Days:      price.Days,
		DailyRate: price.DailyRate,
		Total:     b.TotalPrice,
	}
	if renter, err := s.users.GetByID(ctx, b.RenterID); err == nil {
		snap.RenterName = renter.Name
		snap.RenterEmail = renter.Email
		snap.RenterPhone = renter.Phone
	} else {
		logger.Warn("Invoice renter lookup failed", "bookingID", b.ID, "renterID", b.RenterID, "error", err)
	}
	if showroom, err := s.users.GetByID(ctx, b.ShowroomID); err == nil {
		snap.ShowroomName = showroom.Name
	}
	return snap, nil
}

func (s *invoiceService) RegenerateInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(p, b); err != nil {
		return nil, err
	}
	return s.IssueInvoice(ctx, bookingID)
}

// OpenInvoice streams the stored invoice. The caller closes the reader.
func (s *invoiceService) OpenInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (io.ReadCloser, string, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if err := authorizeView(p, b); err != nil {
		return nil, "", err
	}
	if b.InvoiceKey == "" || b.InvoiceStatus != domain.InvoiceStatusIssued {
		return nil, "", domain.Reject(domain.ErrNotFound, domain.ReasonInvoiceNotFound, "booking %s has no issued invoice", b.ID)
	}

	rc, err := s.store.Open(ctx, b.InvoiceKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", domain.Reject(domain.ErrNotFound, domain.ReasonInvoiceNotFound, "invoice %s is missing from storage", b.InvoiceKey)
		}
		return nil, "", domain.Wrap(domain.ErrDownstream, domain.ReasonInvoiceFailed, err, "invoice %s could not be opened", b.InvoiceKey)
	}
	return rc, b.InvoiceKey, nil
}

func (s *invoiceService) InvoiceURL(ctx context.Context, b *domain.Booking) (string, error) {
	if b.InvoiceStatus != domain.InvoiceStatusIssued || b.InvoiceKey == "" {
		return "", nil
	}
	return s.store.PresignedDownloadURL(ctx, b.InvoiceKey, s.urlExpiry)
}

// RetryFailedInvoices re-issues every invoice left FAILED and reports how
// many succeeded.
func (s *invoiceService) RetryFailedInvoices(ctx context.Context) (int, error) {
	failed, err := s.bookings.ListByInvoiceStatus(ctx, domain.InvoiceStatusFailed)
	if err != nil {
		return 0, err
	}

	var (
		issued int
		errs   []error
	)
	for _, b := range failed {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.IssueInvoice(ctx, b.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		issued++
	}
	return issued, errors.Join(errs...)
}
