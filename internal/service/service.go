package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/utils"
)

// BookCarRequest is the payload of a new booking. All fields are required.
type BookCarRequest struct {
	CarID     string `json:"carId"`
	StartDate string `json:"rentalStartDate"`
	StartTime string `json:"rentalStartTime"`
	EndDate   string `json:"rentalEndDate"`
	EndTime   string `json:"rentalEndTime"`
}

// UpdateBookingRequest reschedules a booking. Nil fields keep their
// current value.
type UpdateBookingRequest struct {
	StartDate *string `json:"rentalStartDate,omitempty"`
	StartTime *string `json:"rentalStartTime,omitempty"`
	EndDate   *string `json:"rentalEndDate,omitempty"`
	EndTime   *string `json:"rentalEndTime,omitempty"`
}

// ExtendBookingRequest pushes the end of a booking out. Both fields are
// required.
type ExtendBookingRequest struct {
	EndDate string `json:"rentalEndDate"`
	EndTime string `json:"rentalEndTime"`
}

// BookingResult is the success payload of create, update and extend.
type BookingResult struct {
	Booking    *domain.Booking      `json:"booking"`
	Price      utils.PriceBreakdown `json:"price"`
	InvoiceURL string               `json:"invoice_url,omitempty"`
}

type BookingService interface {
	BookCar(ctx context.Context, p domain.Principal, req BookCarRequest) (*BookingResult, error)
	UpdateBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingResult, error)
	ExtendBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID, req ExtendBookingRequest) (*BookingResult, error)
	CancelBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.Booking, error)
	ProcessReturn(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.Booking, error)
	GetBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.BookingDetail, error)
	ListMyBookings(ctx context.Context, p domain.Principal) ([]domain.BookingDetail, error)
	ListShowroomBookings(ctx context.Context, p domain.Principal) ([]domain.BookingDetail, error)
}

type InvoiceService interface {
	// IssueInvoice renders and stores the invoice of a booking and records
	// the outcome on it. A failure leaves the booking with InvoiceStatus
	// FAILED and returns a downstream error.
	IssueInvoice(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
	RegenerateInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.Booking, error)
	OpenInvoice(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (io.ReadCloser, string, error)
	InvoiceURL(ctx context.Context, booking *domain.Booking) (string, error)
	RetryFailedInvoices(ctx context.Context) (int, error)
}

type CarService interface {
	AddCar(ctx context.Context, p domain.Principal, car *domain.Car) error
	UpdateCar(ctx context.Context, p domain.Principal, id uuid.UUID, update domain.CarUpdate) (*domain.Car, error)
	RemoveCar(ctx context.Context, p domain.Principal, id uuid.UUID) error
	GetCar(ctx context.Context, id uuid.UUID) (*domain.Car, error)
	ListCars(ctx context.Context) ([]domain.Car, error)
	ListMyCars(ctx context.Context, p domain.Principal) ([]domain.Car, error)
	SearchCars(ctx context.Context, model, brand string) ([]domain.Car, error)
	UpdateReturnDetails(ctx context.Context, p domain.Principal, id uuid.UUID, mileage string, fuelLevel int) (*domain.Car, error)
	CompleteInspection(ctx context.Context, p domain.Principal, id uuid.UUID, passed bool, tasks []string) (*domain.Car, error)
	AddMaintenanceLog(ctx context.Context, p domain.Principal, id uuid.UUID, tasks []string) (*domain.Car, error)
	CompleteMaintenance(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Car, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Notifier delivers lifecycle events to a user. Delivery is best-effort
// and never blocks the caller.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event domain.NotificationEvent)
}

type EmailService interface {
	SendEmail(ctx context.Context, to, toName, subject, plainText, htmlContent string) error
}

type PushService interface {
	Push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}
