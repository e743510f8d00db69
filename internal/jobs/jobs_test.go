package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/metrics"
	"rentrush-backend/internal/repository/memory"
)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) IssueInvoice(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInvoiceService) RegenerateInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, p, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockInvoiceService) OpenInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (io.ReadCloser, string, error) {
	args := m.Called(ctx, p, bookingID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

func (m *MockInvoiceService) InvoiceURL(ctx context.Context, b *domain.Booking) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceService) RetryFailedInvoices(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID uuid.UUID, event domain.NotificationEvent) {
	m.Called(ctx, userID, event)
}

func TestRetryFailedInvoices(t *testing.T) {
	store := memory.NewStore()

	t.Run("Success", func(t *testing.T) {
		invoices := new(MockInvoiceService)
		invoices.On("RetryFailedInvoices", mock.Anything).Return(2, nil)
		runner := NewJobRunner(&Services{Invoices: invoices}, store.Bookings(), store.Cars(), time.UTC)

		before := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "success"))
		runner.RetryFailedInvoices()
		after := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "success"))

		assert.Equal(t, before+1, after)
		invoices.AssertExpectations(t)
	})

	t.Run("Failure", func(t *testing.T) {
		invoices := new(MockInvoiceService)
		invoices.On("RetryFailedInvoices", mock.Anything).Return(0, errors.New("bucket unavailable"))
		runner := NewJobRunner(&Services{Invoices: invoices}, store.Bookings(), store.Cars(), time.UTC)

		before := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "failure"))
		require.NoError(t, runner.Run(JobRetryFailedInvoices))
		after := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "failure"))

		assert.Equal(t, before+1, after)
	})

	t.Run("Panic is recovered", func(t *testing.T) {
		runner := NewJobRunner(&Services{}, store.Bookings(), store.Cars(), time.UTC)

		before := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "panic"))
		assert.NotPanics(t, runner.RetryFailedInvoices)
		after := testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues(JobRetryFailedInvoices, "panic"))

		assert.Equal(t, before+1, after)
	})
}

func TestSendReturnReminders(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	car := &domain.Car{OwnerID: uuid.New(), Brand: "Toyota", Model: "Corolla", RentRate: 1000, Availability: domain.CarRentedOut}
	require.NoError(t, store.Cars().Create(ctx, car))

	day := func(d int, clock int) time.Time { return time.Date(2025, 1, d, clock, 0, 0, 0, time.UTC) }
	endingToday := &domain.Booking{
		CarID: car.ID, RenterID: uuid.New(), Status: domain.BookingStatusConfirmed,
		Window: domain.Window{Start: day(10, 10), End: day(12, 18)},
	}
	endingLater := &domain.Booking{
		CarID: car.ID, RenterID: uuid.New(), Status: domain.BookingStatusModified,
		Window: domain.Window{Start: day(13, 10), End: day(15, 10)},
	}
	cancelled := &domain.Booking{
		CarID: car.ID, RenterID: uuid.New(), Status: domain.BookingStatusCancelled,
		Window: domain.Window{Start: day(11, 10), End: day(12, 10)},
	}
	for _, b := range []*domain.Booking{endingToday, endingLater, cancelled} {
		require.NoError(t, store.Bookings().Create(ctx, b))
	}

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return()

	runner := NewJobRunner(&Services{Notifier: notifier}, store.Bookings(), store.Cars(), time.UTC)
	runner.now = func() time.Time { return day(12, 7) }
	runner.SendReturnReminders()

	notifier.AssertNumberOfCalls(t, "Notify", 1)
	notifier.AssertCalled(t, "Notify", mock.Anything, endingToday.RenterID,
		mock.MatchedBy(func(e domain.NotificationEvent) bool {
			return e.Type == domain.NotificationReturnReminder &&
				e.Attributes["booking_id"] == endingToday.ID.String() &&
				e.Message == "Please return the Toyota Corolla by 18:00 on 2025-01-12."
		}))
}

func TestRun_UnknownJob(t *testing.T) {
	store := memory.NewStore()
	runner := NewJobRunner(&Services{}, store.Bookings(), store.Cars(), time.UTC)
	assert.Error(t, runner.Run("mark-overdue-rentals"))
}
