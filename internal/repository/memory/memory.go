// Package memory is an in-process implementation of the repositories. It
// backs local development and the service tests, and honours the same
// per-car serialization contract as the Postgres store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
	"rentrush-backend/internal/repository"
	"rentrush-backend/internal/utils"
)

type Store struct {
	mu            sync.RWMutex
	cars          map[uuid.UUID]*domain.Car
	bookings      map[uuid.UUID]*domain.Booking
	users         map[uuid.UUID]*domain.User
	notifications map[uuid.UUID]*domain.Notification

	locksMu  sync.Mutex
	carLocks map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		cars:          make(map[uuid.UUID]*domain.Car),
		bookings:      make(map[uuid.UUID]*domain.Booking),
		users:         make(map[uuid.UUID]*domain.User),
		notifications: make(map[uuid.UUID]*domain.Notification),
		carLocks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// AddUser seeds an account.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

func (s *Store) Cars() repository.CarRepository                   { return &carRepository{store: s} }
func (s *Store) Bookings() repository.BookingRepository           { return &bookingRepository{store: s} }
func (s *Store) Users() repository.UserRepository                 { return &userRepository{store: s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepository{store: s} }

func (s *Store) carLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.carLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.carLocks[id] = l
	}
	return l
}

// journal records how to undo each write of a unit of work.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	if j != nil {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

// WithCarLock holds the car's mutex for the duration of fn. Writes made
// through repos are undone in reverse order if fn fails.
func (s *Store) WithCarLock(ctx context.Context, carID uuid.UUID, fn func(ctx context.Context, repos repository.Repos) error) error {
	l := s.carLock(carID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	_, exists := s.cars[carID]
	s.mu.RUnlock()
	if !exists {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", carID)
	}

	j := &journal{}
	repos := repository.Repos{
		Cars:     &carRepository{store: s, journal: j},
		Bookings: &bookingRepository{store: s, journal: j},
	}
	if err := fn(ctx, repos); err != nil {
		s.mu.Lock()
		j.rollback()
		s.mu.Unlock()
		return err
	}

	s.mu.RLock()
	_, exists = s.cars[carID]
	s.mu.RUnlock()
	if !exists {
		s.dropCarLock(carID, l)
	}
	return nil
}

// dropCarLock forgets the mutex of a deleted car. Callers still queued on
// l find the car gone and return NotFound.
func (s *Store) dropCarLock(id uuid.UUID, l *sync.Mutex) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if s.carLocks[id] == l {
		delete(s.carLocks, id)
	}
}

func cloneCar(c *domain.Car) *domain.Car {
	cp := *c
	cp.Images = append([]string(nil), c.Images...)
	cp.MaintenanceLogs = append([]domain.MaintenanceLog(nil), c.MaintenanceLogs...)
	if c.FuelLevel != nil {
		level := *c.FuelLevel
		cp.FuelLevel = &level
	}
	return &cp
}

type carRepository struct {
	store   *Store
	journal *journal
}

func (r *carRepository) Create(_ context.Context, c *domain.Car) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.cars[c.ID] = cloneCar(c)
	id := c.ID
	r.journal.record(func() { delete(r.store.cars, id) })
	return nil
}

func (r *carRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Car, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.cars[id]
	if !ok {
		return nil, domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	return cloneCar(c), nil
}

// mutate applies fn to the stored car and journals the previous version.
func (r *carRepository) mutate(id uuid.UUID, fn func(c *domain.Car)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.cars[id]
	if !ok {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	prev := cloneCar(c)
	r.journal.record(func() { r.store.cars[id] = prev })

	next := cloneCar(c)
	fn(next)
	next.UpdatedAt = time.Now().UTC()
	r.store.cars[id] = next
	return nil
}

func (r *carRepository) Update(_ context.Context, c *domain.Car) error {
	return r.mutate(c.ID, func(stored *domain.Car) {
		availability, logs, fuel := stored.Availability, stored.MaintenanceLogs, stored.FuelLevel
		*stored = *cloneCar(c)
		stored.Availability, stored.MaintenanceLogs, stored.FuelLevel = availability, logs, fuel
	})
}

func (r *carRepository) SetAvailability(_ context.Context, id uuid.UUID, availability domain.CarAvailability) error {
	return r.mutate(id, func(c *domain.Car) { c.Availability = availability })
}

func (r *carRepository) UpdateReturnDetails(_ context.Context, id uuid.UUID, mileage string, fuelLevel int) error {
	return r.mutate(id, func(c *domain.Car) {
		c.Mileage = mileage
		c.FuelLevel = &fuelLevel
	})
}

func (r *carRepository) AddMaintenanceLog(_ context.Context, id uuid.UUID, log domain.MaintenanceLog) error {
	return r.mutate(id, func(c *domain.Car) {
		c.MaintenanceLogs = append(c.MaintenanceLogs, log)
	})
}

func (r *carRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.cars[id]
	if !ok {
		return domain.Reject(domain.ErrNotFound, domain.ReasonCarNotFound, "car %s not found", id)
	}
	delete(r.store.cars, id)

	var removed []*domain.Booking
	for bid, b := range r.store.bookings {
		if b.CarID == id {
			removed = append(removed, b)
			delete(r.store.bookings, bid)
		}
	}
	r.journal.record(func() {
		r.store.cars[id] = c
		for _, b := range removed {
			r.store.bookings[b.ID] = b
		}
	})
	return nil
}

func (r *carRepository) List(_ context.Context) ([]domain.Car, error) {
	return r.filter(func(*domain.Car) bool { return true }), nil
}

func (r *carRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Car, error) {
	return r.filter(func(c *domain.Car) bool { return c.OwnerID == ownerID }), nil
}

func (r *carRepository) Search(_ context.Context, model, brand string) ([]domain.Car, error) {
	model, brand = strings.ToLower(model), strings.ToLower(brand)
	return r.filter(func(c *domain.Car) bool {
		return (model == "" || strings.Contains(strings.ToLower(c.Model), model)) &&
			(brand == "" || strings.Contains(strings.ToLower(c.Brand), brand))
	}), nil
}

func (r *carRepository) filter(keep func(*domain.Car) bool) []domain.Car {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var cars []domain.Car
	for _, c := range r.store.cars {
		if keep(c) {
			cp := cloneCar(c)
			cp.MaintenanceLogs = nil
			cars = append(cars, *cp)
		}
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].CreatedAt.After(cars[j].CreatedAt) })
	return cars
}

type bookingRepository struct {
	store   *Store
	journal *journal
}

func (r *bookingRepository) Create(_ context.Context, b *domain.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.InvoiceStatus == "" {
		b.InvoiceStatus = domain.InvoiceStatusPending
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *b
	r.store.bookings[b.ID] = &cp
	id := b.ID
	r.journal.record(func() { delete(r.store.bookings, id) })
	return nil
}

func (r *bookingRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domain.Reject(domain.ErrNotFound, domain.ReasonBookingNotFound, "booking %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (r *bookingRepository) mutate(id uuid.UUID, fn func(b *domain.Booking)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[id]
	if !ok {
		return domain.Reject(domain.ErrNotFound, domain.ReasonBookingNotFound, "booking %s not found", id)
	}
	prev := *b
	r.journal.record(func() { r.store.bookings[id] = &prev })

	next := *b
	fn(&next)
	next.UpdatedAt = time.Now().UTC()
	r.store.bookings[id] = &next
	return nil
}

func (r *bookingRepository) Update(_ context.Context, b *domain.Booking) error {
	return r.mutate(b.ID, func(stored *domain.Booking) {
		stored.Window = b.Window
		stored.TotalPrice = b.TotalPrice
		stored.DailyRate = b.DailyRate
		stored.BilledDays = b.BilledDays
		stored.Status = b.Status
	})
}

func (r *bookingRepository) UpdateInvoice(_ context.Context, id uuid.UUID, key string, status domain.InvoiceStatus) error {
	return r.mutate(id, func(stored *domain.Booking) {
		stored.InvoiceKey = key
		stored.InvoiceStatus = status
	})
}

func (r *bookingRepository) FindConflicting(_ context.Context, carID uuid.UUID, w domain.Window, excludeID uuid.UUID, policy domain.BoundaryPolicy) ([]domain.Booking, error) {
	return utils.FindConflicts(w, r.filter(func(b *domain.Booking) bool { return b.CarID == carID }), excludeID, policy), nil
}

func (r *bookingRepository) ListLiveByCar(_ context.Context, carID uuid.UUID) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.CarID == carID && b.Status.IsLive() }), nil
}

func (r *bookingRepository) ListByRenter(_ context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.RenterID == renterID }), nil
}

func (r *bookingRepository) ListByShowroom(_ context.Context, showroomID uuid.UUID) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool { return b.ShowroomID == showroomID }), nil
}

func (r *bookingRepository) ListByInvoiceStatus(_ context.Context, status domain.InvoiceStatus) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.InvoiceStatus == status && b.Status != domain.BookingStatusCancelled
	}), nil
}

func (r *bookingRepository) ListLiveEndingOn(_ context.Context, day time.Time) ([]domain.Booking, error) {
	target := domain.DayOf(day)
	return r.filter(func(b *domain.Booking) bool {
		return b.Status.IsLive() && b.Window.EndDay().Equal(target)
	}), nil
}

func (r *bookingRepository) filter(keep func(*domain.Booking) bool) []domain.Booking {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Booking
	for _, b := range r.store.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start.Before(out[j].Window.Start) })
	return out
}

type userRepository struct {
	store *Store
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.Reject(domain.ErrNotFound, domain.ReasonInvalidField, "user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

type notificationRepository struct {
	store *Store
}

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *n
	r.store.notifications[n.ID] = &cp
	return nil
}

func (r *notificationRepository) List(_ context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Notification, int32, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var all []domain.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			all = append(all, *n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int32(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *notificationRepository) MarkAsRead(_ context.Context, id, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n, ok := r.store.notifications[id]
	if !ok || n.UserID != userID {
		return domain.Reject(domain.ErrNotFound, domain.ReasonInvalidField, "notification %s not found", id)
	}
	n.IsRead = true
	return nil
}
