package tests

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/config"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
	internalRedis "github.com/SeifHesham2/SwiftRide/internal/redis"
	"github.com/SeifHesham2/SwiftRide/internal/repository"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

// ──────────────────────────────────────────────
// IN-MEMORY STORE
// ──────────────────────────────────────────────

// Store is an in-memory database shared by the mock repositories.
// Repositories hand out copies so callers cannot mutate stored rows.
type Store struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	nextID int64

	trips      map[int64]*domain.Trip
	drivers    map[int64]*domain.Driver
	customers  map[int64]*domain.Customer
	cars       map[int64]*domain.Car
	payments   map[int64]*domain.Payment
	complaints map[int64]*domain.Complaint

	// Counters for verification
	TxCount       int32
	RollbackCount int32
	ExpireCount   int32

	// Error injection
	UpdateDriverError  error
	CreatePaymentError error
	ExpireError        error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		trips:      make(map[int64]*domain.Trip),
		drivers:    make(map[int64]*domain.Driver),
		customers:  make(map[int64]*domain.Customer),
		cars:       make(map[int64]*domain.Car),
		payments:   make(map[int64]*domain.Payment),
		complaints: make(map[int64]*domain.Complaint),
	}
}

// Repositories returns repositories backed by the store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Trips:      &MockTripRepository{s: s},
		Drivers:    &MockDriverRepository{s: s},
		Customers:  &MockCustomerRepository{s: s},
		Cars:       &MockCarRepository{s: s},
		Payments:   &MockPaymentRepository{s: s},
		Complaints: &MockComplaintRepository{s: s},
	}
}

// WithinTx serializes units of work and restores a snapshot of the store
// when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	atomic.AddInt32(&s.TxCount, 1)

	snapshot := s.snapshot()
	if err := fn(ctx, s.Repositories()); err != nil {
		s.restore(snapshot)
		atomic.AddInt32(&s.RollbackCount, 1)
		return err
	}
	return nil
}

type storeSnapshot struct {
	nextID     int64
	trips      map[int64]*domain.Trip
	drivers    map[int64]*domain.Driver
	customers  map[int64]*domain.Customer
	cars       map[int64]*domain.Car
	payments   map[int64]*domain.Payment
	complaints map[int64]*domain.Complaint
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeSnapshot{
		nextID:     s.nextID,
		trips:      cloneMap(s.trips, copyTrip),
		drivers:    cloneMap(s.drivers, copyDriver),
		customers:  cloneMap(s.customers, copyOf[domain.Customer]),
		cars:       cloneMap(s.cars, copyCar),
		payments:   cloneMap(s.payments, copyOf[domain.Payment]),
		complaints: cloneMap(s.complaints, copyOf[domain.Complaint]),
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.trips = snap.trips
	s.drivers = snap.drivers
	s.customers = snap.customers
	s.cars = snap.cars
	s.payments = snap.payments
	s.complaints = snap.complaints
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

// AddCustomer inserts a customer and returns it with its ID set.
func (s *Store) AddCustomer(customer *domain.Customer) *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if customer.ID == 0 {
		customer.ID = s.newID()
	}
	s.customers[customer.ID] = copyOf(customer)
	return customer
}

// AddDriver inserts a driver and returns it with its ID set.
func (s *Store) AddDriver(driver *domain.Driver) *domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if driver.ID == 0 {
		driver.ID = s.newID()
	}
	s.drivers[driver.ID] = copyDriver(driver)
	return driver
}

// AddCar inserts a car and returns it with its ID set.
func (s *Store) AddCar(car *domain.Car) *domain.Car {
	s.mu.Lock()
	defer s.mu.Unlock()
	if car.ID == 0 {
		car.ID = s.newID()
	}
	s.cars[car.ID] = copyCar(car)
	return car
}

// AddTrip inserts a trip and returns it with its ID set.
func (s *Store) AddTrip(trip *domain.Trip) *domain.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trip.ID == 0 {
		trip.ID = s.newID()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now()
	}
	s.trips[trip.ID] = copyTrip(trip)
	return trip
}

// AddPayment inserts a payment and returns it with its ID set.
func (s *Store) AddPayment(payment *domain.Payment) *domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment.ID == 0 {
		payment.ID = s.newID()
	}
	s.payments[payment.ID] = copyOf(payment)
	return payment
}

// Trip returns the stored trip for test assertions.
func (s *Store) Trip(id int64) *domain.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if trip, ok := s.trips[id]; ok {
		return copyTrip(trip)
	}
	return nil
}

// Driver returns the stored driver for test assertions.
func (s *Store) Driver(id int64) *domain.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if driver, ok := s.drivers[id]; ok {
		return copyDriver(driver)
	}
	return nil
}

// PaymentsOf returns the stored payments of a trip ordered by ID.
func (s *Store) PaymentsOf(tripID int64) []*domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range s.payments {
		if p.TripID == tripID {
			result = append(result, copyOf(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// CountTrips returns the number of stored trips.
func (s *Store) CountTrips() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trips)
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	s *Store
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	trip.ID = m.s.newID()
	trip.CreatedAt = time.Now()
	m.s.trips[trip.ID] = copyTrip(trip)
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	trip, ok := m.s.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTrip(trip), nil
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := copyTrip(trip)
	updated.CustomerID = existing.CustomerID
	updated.CreatedAt = existing.CreatedAt
	m.s.trips[trip.ID] = updated
	return nil
}

func (m *MockTripRepository) ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool { return t.Status == status }, false), nil
}

func (m *MockTripRepository) ListByDriverAndStatuses(ctx context.Context, driverID int64, statuses []domain.TripStatus) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool {
		return t.HasDriver(driverID) && hasStatus(statuses, t.Status)
	}, false), nil
}

func (m *MockTripRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool { return t.CustomerID == customerID }, true), nil
}

func (m *MockTripRepository) ListByCustomerAndStatuses(ctx context.Context, customerID int64, statuses []domain.TripStatus) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool {
		return t.CustomerID == customerID && hasStatus(statuses, t.Status)
	}, true), nil
}

func (m *MockTripRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	atomic.AddInt32(&m.s.ExpireCount, 1)
	if m.s.ExpireError != nil {
		return 0, m.s.ExpireError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var expired int64
	for _, trip := range m.s.trips {
		if trip.TripDate.Before(now) && trip.Status != domain.TripStatusCompleted && trip.Status != domain.TripStatusExpired {
			trip.Status = domain.TripStatusExpired
			expired++
		}
	}
	return expired, nil
}

func (m *MockTripRepository) filter(keep func(*domain.Trip) bool, newestFirst bool) []*domain.Trip {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, trip := range m.s.trips {
		if keep(trip) {
			result = append(result, copyTrip(trip))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if newestFirst {
			return result[i].TripDate.After(result[j].TripDate)
		}
		return result[i].TripDate.Before(result[j].TripDate)
	})
	return result
}

// ──────────────────────────────────────────────
// MOCK DRIVER AND CAR REPOSITORIES
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	s *Store
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, d := range m.s.drivers {
		if d.Email == driver.Email || d.Phone == driver.Phone || d.LicenseNumber == driver.LicenseNumber {
			return repository.ErrDuplicate
		}
	}
	driver.ID = m.s.newID()
	driver.CreatedAt = time.Now()
	m.s.drivers[driver.ID] = copyDriver(driver)
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	return m.find(func(d *domain.Driver) bool { return d.ID == id })
}

func (m *MockDriverRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Driver, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	return m.find(func(d *domain.Driver) bool { return d.Email == email })
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	return m.find(func(d *domain.Driver) bool { return d.Phone == phone })
}

func (m *MockDriverRepository) GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error) {
	return m.find(func(d *domain.Driver) bool { return d.LicenseNumber == licenseNumber })
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	if m.s.UpdateDriverError != nil {
		return m.s.UpdateDriverError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.drivers[driver.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Rating = driver.Rating
	existing.Available = driver.Available
	existing.CurrentBookedTrips = driver.CurrentBookedTrips
	existing.ImageURL = driver.ImageURL
	return nil
}

func (m *MockDriverRepository) find(match func(*domain.Driver) bool) (*domain.Driver, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, d := range m.s.drivers {
		if match(d) {
			return copyDriver(d), nil
		}
	}
	return nil, repository.ErrNotFound
}

// MockCarRepository is a mock implementation of CarRepository.
type MockCarRepository struct {
	s *Store
}

func (m *MockCarRepository) Create(ctx context.Context, car *domain.Car) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.cars {
		if c.LicensePlate == car.LicensePlate {
			return repository.ErrDuplicate
		}
	}
	car.ID = m.s.newID()
	m.s.cars[car.ID] = copyCar(car)
	return nil
}

func (m *MockCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	return m.find(func(c *domain.Car) bool { return c.ID == id })
}

func (m *MockCarRepository) GetByLicensePlate(ctx context.Context, plate string) (*domain.Car, error) {
	return m.find(func(c *domain.Car) bool { return c.LicensePlate == plate })
}

func (m *MockCarRepository) GetByDriverID(ctx context.Context, driverID int64) (*domain.Car, error) {
	return m.find(func(c *domain.Car) bool { return c.DriverID != nil && *c.DriverID == driverID })
}

func (m *MockCarRepository) AssignDriver(ctx context.Context, carID, driverID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	car, ok := m.s.cars[carID]
	if !ok {
		return repository.ErrNotFound
	}
	car.DriverID = &driverID
	return nil
}

func (m *MockCarRepository) find(match func(*domain.Car) bool) (*domain.Car, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, c := range m.s.cars {
		if match(c) {
			return copyCar(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER AND COMPLAINT REPOSITORIES
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	s *Store
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.customers {
		if c.Email == customer.Email || c.Phone == customer.Phone {
			return repository.ErrDuplicate
		}
	}
	customer.ID = m.s.newID()
	customer.CreatedAt = time.Now()
	m.s.customers[customer.ID] = copyOf(customer)
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return m.find(func(c *domain.Customer) bool { return c.ID == id })
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return m.find(func(c *domain.Customer) bool { return c.Email == email })
}

func (m *MockCustomerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return m.find(func(c *domain.Customer) bool { return c.Phone == phone })
}

func (m *MockCustomerRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	customer, ok := m.s.customers[id]
	if !ok {
		return repository.ErrNotFound
	}
	customer.PasswordHash = passwordHash
	return nil
}

func (m *MockCustomerRepository) find(match func(*domain.Customer) bool) (*domain.Customer, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, c := range m.s.customers {
		if match(c) {
			return copyOf(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

// MockComplaintRepository is a mock implementation of ComplaintRepository.
type MockComplaintRepository struct {
	s *Store
}

func (m *MockComplaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	complaint.ID = m.s.newID()
	complaint.CreatedAt = time.Now()
	m.s.complaints[complaint.ID] = copyOf(complaint)
	return nil
}

func (m *MockComplaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	complaint, ok := m.s.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOf(complaint), nil
}

func (m *MockComplaintRepository) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	complaint, ok := m.s.complaints[id]
	if !ok {
		return repository.ErrNotFound
	}
	complaint.Status = status
	return nil
}

func (m *MockComplaintRepository) ListByStatus(ctx context.Context, status domain.ComplaintStatus) ([]*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	result := make([]*domain.Complaint, 0)
	for _, c := range m.s.complaints {
		if c.Status == status {
			result = append(result, copyOf(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	s *Store
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.s.CreatePaymentError != nil {
		return m.s.CreatePaymentError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if payment.Status == domain.PaymentStatusPending {
		for _, p := range m.s.payments {
			if p.TripID == payment.TripID && p.Status == domain.PaymentStatusPending {
				return repository.ErrDuplicate
			}
		}
	}
	payment.ID = m.s.newID()
	payment.CreatedAt = time.Now()
	m.s.payments[payment.ID] = copyOf(payment)
	return nil
}

func (m *MockPaymentRepository) GetByTripID(ctx context.Context, tripID int64) (*domain.Payment, error) {
	return m.latest(func(p *domain.Payment) bool { return p.TripID == tripID })
}

func (m *MockPaymentRepository) GetPendingByTripID(ctx context.Context, tripID int64) (*domain.Payment, error) {
	return m.latest(func(p *domain.Payment) bool {
		return p.TripID == tripID && p.Status == domain.PaymentStatusPending
	})
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	payment, ok := m.s.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

func (m *MockPaymentRepository) latest(match func(*domain.Payment) bool) (*domain.Payment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var found *domain.Payment
	for _, p := range m.s.payments {
		if match(p) && (found == nil || p.ID > found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return copyOf(found), nil
}

// ──────────────────────────────────────────────
// MOCK LOCKER
// ──────────────────────────────────────────────

// MockLocker is an in-process implementation of redis.Locker.
type MockLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration

	// Acquired records keys in acquisition order.
	Acquired []string

	// Error injection
	LockError error
}

// NewMockLocker creates a locker that gives up after wait.
func NewMockLocker(wait time.Duration) *MockLocker {
	return &MockLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

func (m *MockLocker) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	if m.LockError != nil {
		m.mu.Unlock()
		return nil, m.LockError
	}
	slot, ok := m.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		m.slots[key] = slot
	}
	m.mu.Unlock()

	timer := time.NewTimer(m.wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
	case <-timer.C:
		return nil, internalRedis.ErrLockNotAcquired
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	m.Acquired = append(m.Acquired, key)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

// Hold takes key and keeps it until the returned function is called.
func (m *MockLocker) Hold(key string) func() {
	release, err := m.Lock(context.Background(), key)
	if err != nil {
		panic(err)
	}
	return release
}

// AcquiredKeys returns a copy of the acquisition log.
func (m *MockLocker) AcquiredKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Acquired...)
}

// ──────────────────────────────────────────────
// MOCK TOKEN STORE
// ──────────────────────────────────────────────

// MockTokenStore is an in-memory implementation of redis.TokenStoreInterface.
type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
	issued map[string]string
}

// NewMockTokenStore creates a new mock token store.
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{
		tokens: make(map[string]string),
		issued: make(map[string]string),
	}
}

func (m *MockTokenStore) Issue(ctx context.Context, purpose, subject string) (string, error) {
	token, err := internalRedis.NumericToken(6)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[purpose+":"+token] = subject
	m.issued[purpose+":"+subject] = token
	return token, nil
}

func (m *MockTokenStore) Consume(ctx context.Context, purpose, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subject, ok := m.tokens[purpose+":"+token]
	if !ok {
		return "", internalRedis.ErrTokenInvalid
	}
	delete(m.tokens, purpose+":"+token)
	return subject, nil
}

// LastToken returns the latest token issued for subject under purpose.
func (m *MockTokenStore) LastToken(purpose, subject string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued[purpose+":"+subject]
}

// ──────────────────────────────────────────────
// MOCK DISTANCE PROVIDER AND NOTIFICATION SENDER
// ──────────────────────────────────────────────

// MockDistanceProvider is a testify mock of service.DistanceProvider.
type MockDistanceProvider struct {
	mock.Mock
}

func (m *MockDistanceProvider) DistanceKm(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

// SentMessage is a notification captured by RecordingSender.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// RecordingSender captures notifications instead of delivering them.
type RecordingSender struct {
	mu       sync.Mutex
	messages []SentMessage

	// Error injection
	SendError error
}

func (r *RecordingSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendError != nil {
		return r.SendError
	}
	r.messages = append(r.messages, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns the captured notifications.
func (r *RecordingSender) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.messages...)
}

// MessagesTo returns the captured notifications for one recipient.
func (r *RecordingSender) MessagesTo(to string) []SentMessage {
	var result []SentMessage
	for _, msg := range r.Messages() {
		if strings.EqualFold(msg.To, to) {
			result = append(result, msg)
		}
	}
	return result
}

// ──────────────────────────────────────────────
// TEST ENVIRONMENT
// ──────────────────────────────────────────────

// Env wires the real services over the mocks.
type Env struct {
	Config   *config.Config
	Store    *Store
	Locker   *MockLocker
	Tokens   *MockTokenStore
	Distance *MockDistanceProvider
	Sender   *RecordingSender
	Logs     *test.Hook
	Auth     *auth.Service

	Fares         *service.FareCalculator
	Availability  *service.AvailabilityTracker
	Sweeper       *service.ExpirationSweeper
	Payments      *service.PaymentService
	Receipts      *service.ReceiptService
	Notifications *service.NotificationService
	Trips         *service.TripService
	Drivers       *service.DriverService
	Customers     *service.CustomerService
	Cars          *service.CarService
	Complaints    *service.ComplaintService
}

// TestConfig returns the production defaults with fast lock waits.
func TestConfig() *config.Config {
	return &config.Config{
		Fare: config.FareConfig{
			BaseFare:           11.80,
			RatePerKm:          4.30,
			PremiumSurcharge:   25.00,
			ChildSeatSurcharge: 15.00,
			AverageSpeedKmh:    40,
			BufferMinutes:      10,
		},
		Dispatch: config.DispatchConfig{
			MinGap:         30 * time.Minute,
			MaxBookedTrips: 3,
			StartWindow:    10 * time.Minute,
			LockTTL:        time.Second,
			LockWait:       2 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			JWTExpiry: time.Hour,
			TokenTTL:  10 * time.Minute,
		},
	}
}

// NewEnv builds a fresh environment.
func NewEnv() *Env {
	cfg := TestConfig()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	env := &Env{
		Config:   cfg,
		Store:    NewStore(),
		Locker:   NewMockLocker(cfg.Dispatch.LockWait),
		Tokens:   NewMockTokenStore(),
		Distance: &MockDistanceProvider{},
		Sender:   &RecordingSender{},
		Logs:     hook,
		Auth:     auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry),
	}

	repos := env.Store.Repositories()

	env.Fares = service.NewFareCalculator(env.Distance, cfg.Fare)
	env.Availability = service.NewAvailabilityTracker(cfg.Dispatch)
	env.Sweeper = service.NewExpirationSweeper(repos.Trips, nil, logger)
	env.Payments = service.NewPaymentService(repos.Payments)
	env.Receipts = service.NewReceiptService(env.Fares)
	env.Notifications = service.NewNotificationService(env.Sender, repos.Customers, repos.Drivers, env.Receipts, logger)
	env.Trips = service.NewTripService(
		repos,
		env.Store,
		env.Locker,
		env.Fares,
		env.Availability,
		env.Payments,
		env.Sweeper,
		env.Notifications,
		env.Receipts,
		cfg.Dispatch,
		logger,
	)
	env.Drivers = service.NewDriverService(repos.Drivers, env.Auth, logger)
	env.Customers = service.NewCustomerService(repos.Customers, env.Tokens, env.Auth, env.Notifications, logger)
	env.Cars = service.NewCarService(repos, env.Store)
	env.Complaints = service.NewComplaintService(repos)

	return env
}

// SetDistance makes the distance provider answer km for the route.
func (e *Env) SetDistance(from, to string, km float64) {
	e.Distance.On("DistanceKm", mock.Anything, from, to).Return(km, nil)
}

// SeedCustomer stores a customer with a unique email.
func (e *Env) SeedCustomer(name string) *domain.Customer {
	return e.Store.AddCustomer(&domain.Customer{
		FirstName: name,
		LastName:  "Test",
		Email:     strings.ToLower(name) + "@example.com",
		Phone:     "+20" + strings.ToLower(name),
	})
}

// SeedDriver stores an available driver with a car.
func (e *Env) SeedDriver(name string) *domain.Driver {
	driver := e.Store.AddDriver(&domain.Driver{
		FirstName:     name,
		LastName:      "Driver",
		Email:         strings.ToLower(name) + "@drivers.example.com",
		Phone:         "+20-driver-" + strings.ToLower(name),
		LicenseNumber: "LIC-" + strings.ToUpper(name),
		Available:     true,
	})
	driverID := driver.ID
	e.Store.AddCar(&domain.Car{
		Model:        "Corolla",
		LicensePlate: "PLATE-" + strings.ToUpper(name),
		Color:        "White",
		DriverID:     &driverID,
	})
	return driver
}

// SeedTrip stores a priced trip with a PENDING cash payment.
func (e *Env) SeedTrip(customerID int64, tripDate time.Time, minutes int, status domain.TripStatus, driverID *int64) *domain.Trip {
	fare := 54.80
	trip := e.Store.AddTrip(&domain.Trip{
		PickupLocation:   "Nasr City",
		Destination:      "Maadi",
		TripDate:         tripDate,
		Status:           status,
		Fare:             &fare,
		EstimatedMinutes: minutes,
		CustomerID:       customerID,
		DriverID:         driverID,
	})
	e.Store.AddPayment(&domain.Payment{
		TripID: trip.ID,
		Amount: fare,
		Method: domain.PaymentMethodCash,
		Status: domain.PaymentStatusPending,
	})
	return trip
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	if t.Fare != nil {
		fare := *t.Fare
		c.Fare = &fare
	}
	if t.DriverID != nil {
		id := *t.DriverID
		c.DriverID = &id
	}
	return &c
}

func copyDriver(d *domain.Driver) *domain.Driver {
	return copyOf(d)
}

func copyCar(c *domain.Car) *domain.Car {
	out := *c
	if c.DriverID != nil {
		id := *c.DriverID
		out.DriverID = &id
	}
	return &out
}

func cloneMap[T any](src map[int64]*T, clone func(*T) *T) map[int64]*T {
	dst := make(map[int64]*T, len(src))
	for k, v := range src {
		dst[k] = clone(v)
	}
	return dst
}

func hasStatus(statuses []domain.TripStatus, status domain.TripStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// ErrMockStorage is a generic injected storage failure.
var ErrMockStorage = errors.New("mock: storage failure")

func hasLogMessage(env *Env, message string) bool {
	for _, entry := range env.Logs.AllEntries() {
		if entry.Message == message {
			return true
		}
	}
	return false
}
