package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/lifecycle"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/metrics"
	"rentrush-backend/internal/repository"
	"rentrush-backend/internal/utils"
)

// BookingOptions configures the booking calendar.
type BookingOptions struct {
	// Location is the time zone booking dates and times are given in.
	Location *time.Location
	Policy   domain.BoundaryPolicy
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

type bookingService struct {
	tx       repository.TxManager
	cars     repository.CarRepository
	bookings repository.BookingRepository
	users    repository.UserRepository
	invoices InvoiceService
	notifier Notifier

	loc    *time.Location
	policy domain.BoundaryPolicy
	now    func() time.Time
}

func NewBookingService(
	tx repository.TxManager,
	cars repository.CarRepository,
	bookings repository.BookingRepository,
	users repository.UserRepository,
	invoices InvoiceService,
	notifier Notifier,
	opts BookingOptions,
) BookingService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Policy == "" {
		opts.Policy = domain.BoundaryClosed
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &bookingService{
		tx:       tx,
		cars:     cars,
		bookings: bookings,
		users:    users,
		invoices: invoices,
		notifier: notifier,
		loc:      opts.Location,
		policy:   opts.Policy,
		now:      opts.Now,
	}
}

func (s *bookingService) BookCar(ctx context.Context, p domain.Principal, req BookCarRequest) (result *BookingResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOperation("book", started, err) }()
	logger.EnterMethod("bookingService.BookCar", "renterID", p.UserID, "carID", req.CarID)

	carID, w, err := s.parseBookRequest(req)
	if err != nil {
		logger.ExitMethodWithError("bookingService.BookCar", err, "renterID", p.UserID)
		return nil, err
	}
	if err := s.checkWindow(w); err != nil {
		logger.ExitMethodWithError("bookingService.BookCar", err, "renterID", p.UserID)
		return nil, err
	}

	booking := &domain.Booking{
		ID:       uuid.New(),
		CarID:    carID,
		RenterID: p.UserID,
		Window:   w,
	}
	var (
		price utils.PriceBreakdown
		car   *domain.Car
	)
	err = s.tx.WithCarLock(ctx, carID, func(ctx context.Context, repos repository.Repos) error {
		var err error
		car, err = repos.Cars.GetByID(ctx, carID)
		if err != nil {
			return err
		}
		if err := s.ensureNoConflict(ctx, repos, carID, w, uuid.Nil); err != nil {
			return err
		}
		if car.Availability != domain.CarAvailable {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonCarUnavailable,
				"car %s is %s", carID, car.Availability)
		}

		price, err = s.price(w, car)
		if err != nil {
			return err
		}
		booking.ShowroomID = car.OwnerID
		applyPrice(booking, price)
		booking.InvoiceStatus = domain.InvoiceStatusPending

		if err := lifecycle.Transition(ctx, booking, lifecycle.EventConfirm); err != nil {
			return err
		}
		if err := repos.Bookings.Create(ctx, booking); err != nil {
			return err
		}
		if err := lifecycle.Move(ctx, car, lifecycle.EventRent); err != nil {
			return err
		}
		return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.BookCar", err, "renterID", p.UserID, "carID", carID)
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ShowroomID, domain.NotificationEvent{
		Type:    domain.NotificationBookingCreated,
		Title:   "New Booking",
		Message: fmt.Sprintf("%s %s was booked from %s", car.Brand, car.Model, describeWindow(w)),
		Attributes: map[string]string{
			"booking_id": booking.ID.String(),
			"car_id":     car.ID.String(),
		},
	})

	result, err = s.finish(ctx, booking, price)
	if err != nil {
		logger.ExitMethodWithError("bookingService.BookCar", err, "bookingID", booking.ID)
		return result, err
	}
	logger.ExitMethod("bookingService.BookCar", "bookingID", booking.ID, "total", booking.TotalPrice)
	return result, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID, req UpdateBookingRequest) (result *BookingResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOperation("update", started, err) }()
	logger.EnterMethod("bookingService.UpdateBooking", "renterID", p.UserID, "bookingID", bookingID)

	result, err = s.reschedule(ctx, p, bookingID, func(current domain.Window) (domain.Window, error) {
		if req.StartDate == nil && req.StartTime == nil && req.EndDate == nil && req.EndTime == nil {
			return domain.Window{}, domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "nothing to update")
		}
		start, err := utils.ParseDateTime(
			valueOr(req.StartDate, utils.FormatDate(current.Start)),
			valueOr(req.StartTime, utils.FormatClock(current.Start)),
			s.loc)
		if err != nil {
			return domain.Window{}, err
		}
		end, err := utils.ParseDateTime(
			valueOr(req.EndDate, utils.FormatDate(current.End)),
			valueOr(req.EndTime, utils.FormatClock(current.End)),
			s.loc)
		if err != nil {
			return domain.Window{}, err
		}
		return domain.Window{Start: start, End: end}, nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.UpdateBooking", err, "bookingID", bookingID)
		return result, err
	}
	logger.ExitMethod("bookingService.UpdateBooking", "bookingID", bookingID, "total", result.Booking.TotalPrice)
	return result, nil
}

func (s *bookingService) ExtendBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID, req ExtendBookingRequest) (result *BookingResult, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOperation("extend", started, err) }()
	logger.EnterMethod("bookingService.ExtendBooking", "renterID", p.UserID, "bookingID", bookingID)

	result, err = s.reschedule(ctx, p, bookingID, func(current domain.Window) (domain.Window, error) {
		if err := requireFields(map[string]string{
			"rentalEndDate": req.EndDate,
			"rentalEndTime": req.EndTime,
		}); err != nil {
			return domain.Window{}, err
		}
		end, err := utils.ParseDateTime(req.EndDate, req.EndTime, s.loc)
		if err != nil {
			return domain.Window{}, err
		}
		if !domain.WallClock(end).After(domain.WallClock(current.Start)) {
			return domain.Window{}, domain.Reject(domain.ErrTemporal, domain.ReasonWindowInvalid,
				"new end must be after the rental start")
		}
		if domain.WallClock(end).Before(domain.WallClock(current.End)) {
			return domain.Window{}, domain.Reject(domain.ErrTemporal, domain.ReasonWindowInvalid,
				"an extension cannot move the end earlier")
		}
		return domain.Window{Start: current.Start, End: end}, nil
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ExtendBooking", err, "bookingID", bookingID)
		return result, err
	}
	logger.ExitMethod("bookingService.ExtendBooking", "bookingID", bookingID, "total", result.Booking.TotalPrice)
	return result, nil
}

// reschedule revalidates a booking against the window produced by merge.
// Update and extend differ only in which endpoints merge may move.
func (s *bookingService) reschedule(
	ctx context.Context,
	p domain.Principal,
	bookingID uuid.UUID,
	merge func(current domain.Window) (domain.Window, error),
) (*BookingResult, error) {
	existing, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Booking
		car     *domain.Car
		price   utils.PriceBreakdown
	)
	err = s.tx.WithCarLock(ctx, existing.CarID, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.RenterID != p.UserID {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotRenter, "only the renter may change booking %s", bookingID)
		}
		if !current.Status.IsLive() {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonNotLive, "booking %s is %s", bookingID, current.Status)
		}
		if !s.beforeStart(current) {
			return domain.Reject(domain.ErrTemporal, domain.ReasonNotModifiable, "booking %s has already started", bookingID)
		}

		w, err := merge(current.Window)
		if err != nil {
			return err
		}
		if err := s.checkWindow(w); err != nil {
			return err
		}

		car, err = repos.Cars.GetByID(ctx, current.CarID)
		if err != nil {
			return err
		}
		if err := s.ensureNoConflict(ctx, repos, current.CarID, w, current.ID); err != nil {
			return err
		}

		price, err = s.price(w, car)
		if err != nil {
			return err
		}
		current.Window = w
		applyPrice(current, price)
		if err := lifecycle.Transition(ctx, current, lifecycle.EventModify); err != nil {
			return err
		}
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, updated.ShowroomID, domain.NotificationEvent{
		Type:    domain.NotificationBookingUpdated,
		Title:   "Booking Updated",
		Message: fmt.Sprintf("The booking of %s %s now runs from %s", car.Brand, car.Model, describeWindow(updated.Window)),
		Attributes: map[string]string{
			"booking_id": updated.ID.String(),
			"car_id":     car.ID.String(),
		},
	})

	return s.finish(ctx, updated, price)
}

// price bills w at the car's current rate.
func (s *bookingService) price(w domain.Window, car *domain.Car) (utils.PriceBreakdown, error) {
	price, err := utils.CalculatePriceBreakdown(w, car.RentRate)
	if err != nil {
		return utils.PriceBreakdown{}, err
	}
	if price.Total <= 0 {
		return utils.PriceBreakdown{}, domain.Reject(domain.ErrTemporal, domain.ReasonWindowInvalid, "rental window bills no days")
	}
	return price, nil
}

// applyPrice records the billed figures on b so later invoices print what
// was charged, whatever the car's rate has become.
func applyPrice(b *domain.Booking, price utils.PriceBreakdown) {
	b.TotalPrice = price.Total
	b.DailyRate = price.DailyRate
	b.BilledDays = price.Days
}

// finish issues the invoice of a committed booking. The booking stands
// even if the invoice fails.
func (s *bookingService) finish(ctx context.Context, booking *domain.Booking, price utils.PriceBreakdown) (*BookingResult, error) {
	result := &BookingResult{Booking: booking, Price: price}

	issued, err := s.invoices.IssueInvoice(ctx, booking.ID)
	if issued != nil {
		result.Booking = issued
	}
	if err != nil {
		return result, err
	}

	url, err := s.invoices.InvoiceURL(ctx, result.Booking)
	if err != nil {
		logger.Warn("Failed to sign invoice URL", "bookingID", booking.ID, "error", err)
	}
	result.InvoiceURL = url
	return result, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOperation("cancel", started, err) }()
	logger.EnterMethod("bookingService.CancelBooking", "renterID", p.UserID, "bookingID", bookingID)

	existing, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}

	var car *domain.Car
	err = s.tx.WithCarLock(ctx, existing.CarID, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.RenterID != p.UserID {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotRenter, "only the renter may cancel booking %s", bookingID)
		}
		if !current.Status.IsLive() {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonNotLive, "booking %s is %s", bookingID, current.Status)
		}
		if err := lifecycle.Transition(ctx, current, lifecycle.EventCancel); err != nil {
			return err
		}
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		booking = current

		car, err = repos.Cars.GetByID(ctx, current.CarID)
		if err != nil {
			return err
		}
		if car.Availability != domain.CarRentedOut {
			return nil
		}
		live, err := repos.Bookings.ListLiveByCar(ctx, car.ID)
		if err != nil {
			return err
		}
		if len(live) > 0 {
			return nil
		}
		if err := lifecycle.Move(ctx, car, lifecycle.EventRelease); err != nil {
			return err
		}
		return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CancelBooking", err, "bookingID", bookingID)
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ShowroomID, domain.NotificationEvent{
		Type:    domain.NotificationBookingCancelled,
		Title:   "Booking Cancelled",
		Message: fmt.Sprintf("The booking of %s %s from %s was cancelled", car.Brand, car.Model, describeWindow(booking.Window)),
		Attributes: map[string]string{
			"booking_id": booking.ID.String(),
			"car_id":     car.ID.String(),
		},
	})

	logger.ExitMethod("bookingService.CancelBooking", "bookingID", bookingID, "carAvailability", car.Availability)
	return booking, nil
}

func (s *bookingService) ProcessReturn(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	started := time.Now()
	defer func() { metrics.ObserveOperation("return", started, err) }()
	logger.EnterMethod("bookingService.ProcessReturn", "userID", p.UserID, "bookingID", bookingID)

	existing, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("bookingService.ProcessReturn", err, "bookingID", bookingID)
		return nil, err
	}

	var car *domain.Car
	err = s.tx.WithCarLock(ctx, existing.CarID, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.RenterID != p.UserID && !p.IsAdmin() {
			return domain.Reject(domain.ErrForbidden, domain.ReasonNotRenter, "only the renter may return booking %s", bookingID)
		}
		if !current.Status.IsLive() {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonNotLive, "booking %s is %s", bookingID, current.Status)
		}
		car, err = repos.Cars.GetByID(ctx, current.CarID)
		if err != nil {
			return err
		}
		if car.Availability != domain.CarRentedOut {
			return domain.Reject(domain.ErrStateConflict, domain.ReasonCarUnavailable,
				"car %s is %s, not rented out", car.ID, car.Availability)
		}

		if err := lifecycle.Transition(ctx, current, lifecycle.EventComplete); err != nil {
			return err
		}
		if err := repos.Bookings.Update(ctx, current); err != nil {
			return err
		}
		if err := lifecycle.Move(ctx, car, lifecycle.EventReturn); err != nil {
			return err
		}
		booking = current
		return repos.Cars.SetAvailability(ctx, car.ID, car.Availability)
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ProcessReturn", err, "bookingID", bookingID)
		return nil, err
	}

	s.notifier.Notify(ctx, booking.ShowroomID, domain.NotificationEvent{
		Type:    domain.NotificationCarReturned,
		Title:   "Car Returned",
		Message: fmt.Sprintf("%s %s has been returned and is waiting for inspection", car.Brand, car.Model),
		Attributes: map[string]string{
			"booking_id": booking.ID.String(),
			"car_id":     car.ID.String(),
		},
	})

	logger.ExitMethod("bookingService.ProcessReturn", "bookingID", bookingID)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, p domain.Principal, bookingID uuid.UUID) (*domain.BookingDetail, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(p, b); err != nil {
		return nil, err
	}
	details := s.details(ctx, []domain.Booking{*b})
	return &details[0], nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, p domain.Principal) ([]domain.BookingDetail, error) {
	bookings, err := s.bookings.ListByRenter(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, bookings), nil
}

func (s *bookingService) ListShowroomBookings(ctx context.Context, p domain.Principal) ([]domain.BookingDetail, error) {
	if !p.IsShowroom() && !p.IsAdmin() {
		return nil, domain.Reject(domain.ErrForbidden, domain.ReasonNotOwner, "only showrooms have a booking index")
	}
	bookings, err := s.bookings.ListByShowroom(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, bookings), nil
}

// details joins bookings with their car and showroom. Lookups that fail
// leave the field empty.
func (s *bookingService) details(ctx context.Context, bookings []domain.Booking) []domain.BookingDetail {
	cars := make(map[uuid.UUID]*domain.Car)
	users := make(map[uuid.UUID]*domain.User)

	out := make([]domain.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		car, ok := cars[b.CarID]
		if !ok {
			var err error
			if car, err = s.cars.GetByID(ctx, b.CarID); err != nil {
				logger.Debug("Car lookup failed", "carID", b.CarID, "error", err)
			}
			cars[b.CarID] = car
		}
		showroom, ok := users[b.ShowroomID]
		if !ok {
			var err error
			if showroom, err = s.users.GetByID(ctx, b.ShowroomID); err != nil {
				logger.Debug("Showroom lookup failed", "showroomID", b.ShowroomID, "error", err)
			}
			users[b.ShowroomID] = showroom
		}
		out = append(out, domain.BookingDetail{Booking: b, Car: car, Showroom: showroom})
	}
	return out
}

func (s *bookingService) parseBookRequest(req BookCarRequest) (uuid.UUID, domain.Window, error) {
	if err := requireFields(map[string]string{
		"carId":           req.CarID,
		"rentalStartDate": req.StartDate,
		"rentalStartTime": req.StartTime,
		"rentalEndDate":   req.EndDate,
		"rentalEndTime":   req.EndTime,
	}); err != nil {
		return uuid.Nil, domain.Window{}, err
	}

	carID, err := uuid.Parse(strings.TrimSpace(req.CarID))
	if err != nil {
		return uuid.Nil, domain.Window{}, domain.Wrap(domain.ErrValidation, domain.ReasonInvalidField, err, "carId %q is not a valid id", req.CarID)
	}
	start, err := utils.ParseDateTime(req.StartDate, req.StartTime, s.loc)
	if err != nil {
		return uuid.Nil, domain.Window{}, err
	}
	end, err := utils.ParseDateTime(req.EndDate, req.EndTime, s.loc)
	if err != nil {
		return uuid.Nil, domain.Window{}, err
	}
	return carID, domain.Window{Start: start, End: end}, nil
}

// checkWindow enforces end >= start and that neither endpoint falls on a
// day before today.
func (s *bookingService) checkWindow(w domain.Window) error {
	if !w.Ordered() {
		return domain.Reject(domain.ErrTemporal, domain.ReasonWindowInvalid, "end date must not be before start date")
	}
	today := utils.Today(s.now(), s.loc)
	if w.StartDay().Before(today) {
		return domain.Reject(domain.ErrTemporal, domain.ReasonPastDated, "start date %s is in the past", utils.FormatDate(w.Start))
	}
	if w.EndDay().Before(today) {
		return domain.Reject(domain.ErrTemporal, domain.ReasonPastDated, "end date %s is in the past", utils.FormatDate(w.End))
	}
	return nil
}

func (s *bookingService) beforeStart(b *domain.Booking) bool {
	return domain.WallClock(s.now().In(s.loc)).Before(domain.WallClock(b.Window.Start))
}

func (s *bookingService) ensureNoConflict(ctx context.Context, repos repository.Repos, carID uuid.UUID, w domain.Window, excludeID uuid.UUID) error {
	existing, err := repos.Bookings.FindConflicting(ctx, carID, w, excludeID, s.policy)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, domain.ReasonStoreFailure, err, "conflict lookup failed")
	}
	conflicts := utils.FindConflicts(w, existing, excludeID, s.policy)
	if len(conflicts) == 0 {
		return nil
	}
	return domain.Reject(domain.ErrStateConflict, domain.ReasonOverlapping,
		"car is already booked from %s", describeWindow(conflicts[0].Window))
}

// authorizeView lets the renter, the showroom owning the car and admins
// see a booking.
func authorizeView(p domain.Principal, b *domain.Booking) error {
	if p.IsAdmin() || p.UserID == b.RenterID || p.UserID == b.ShowroomID {
		return nil
	}
	return domain.Reject(domain.ErrForbidden, domain.ReasonNotRenter, "booking %s belongs to another user", b.ID)
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domain.Reject(domain.ErrValidation, domain.ReasonMissingFields, "missing required fields: %s", strings.Join(missing, ", "))
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func describeWindow(w domain.Window) string {
	return fmt.Sprintf("%s %s to %s %s",
		utils.FormatDate(w.Start), utils.FormatClock(w.Start),
		utils.FormatDate(w.End), utils.FormatClock(w.End))
}
