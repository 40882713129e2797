package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. The guarded
// transition methods check and mutate under a single mutex hold, matching
// the conditional-update semantics of the real store.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AcceptCallCount int32

	// Error injection
	CreateError error
	AcceptError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.Status == status {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.DriverID == driverID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.PassengerID == passengerID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRideRepository) AcceptPending(ctx context.Context, rideID, driverID string, at time.Time) error {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	if m.AcceptError != nil {
		return m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusAccepted) {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = driverID
	ride.AcceptedAt = at
	return nil
}

func (m *MockRideRepository) StartAccepted(ctx context.Context, rideID, driverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusInProgress) || ride.DriverID != driverID {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusInProgress
	ride.StartedAt = at
	return nil
}

func (m *MockRideRepository) CompleteInProgress(ctx context.Context, rideID, driverID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusCompleted) || ride.DriverID != driverID {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusCompleted
	ride.CompletedAt = at
	return nil
}

func (m *MockRideRepository) CancelActive(ctx context.Context, rideID, actorID, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusCancelled) {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusCancelled
	ride.CancelledAt = at
	ride.CancelledBy = actorID
	ride.CancelReason = reason
	return nil
}

func (m *MockRideRepository) UpdatePaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.PaymentStatus = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{
		routes: make(map[string]*domain.Route),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

func (m *MockRouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRouteRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Route, 0)
	for _, r := range m.routes {
		if r.DriverID == driverID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockRouteRepository) Update(ctx context.Context, route *domain.Route) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[route.ID]; !ok {
		return repository.ErrNotFound
	}
	m.routes[route.ID] = route
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByPhone(ctx context.Context, phone string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Phone == phone {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.drivers[driver.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = driver.Name
	stored.Phone = driver.Phone
	stored.Vehicle = driver.Vehicle
	return nil
}

func (m *MockDriverRepository) UpdateApprovalStatus(ctx context.Context, id string, status domain.ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.ApprovalStatus = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK PASSENGER REPOSITORY
// ──────────────────────────────────────────────

// MockPassengerRepository is a mock implementation of PassengerRepository.
type MockPassengerRepository struct {
	mu         sync.RWMutex
	passengers map[string]*domain.Passenger

	// Error injection
	CreateError error
}

// NewMockPassengerRepository creates a new mock passenger repository.
func NewMockPassengerRepository() *MockPassengerRepository {
	return &MockPassengerRepository{
		passengers: make(map[string]*domain.Passenger),
	}
}

func (m *MockPassengerRepository) Create(ctx context.Context, passenger *domain.Passenger) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passengers[passenger.ID] = passenger
	return nil
}

func (m *MockPassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	passenger, ok := m.passengers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *passenger
	return &copy, nil
}

func (m *MockPassengerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.passengers {
		if p.Phone == phone {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPassengerRepository) GetAll(ctx context.Context) ([]*domain.Passenger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Passenger, 0, len(m.passengers))
	for _, p := range m.passengers {
		copy := *p
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		copy := *p
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.Status = status
	return nil
}

func (m *MockPaymentRepository) RecordTransaction(ctx context.Context, id, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.TransactionID = transactionID
	return nil
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.DriverLocation
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]redis.DriverLocation),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = redis.DriverLocation{DriverID: driverID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	const kmPerDegree = 111.0
	result := make([]redis.DriverLocation, 0)
	for _, loc := range m.locations {
		latDiff := (loc.Lat - lat) * kmPerDegree
		lngDiff := (loc.Lng - lng) * kmPerDegree
		if latDiff*latDiff+lngDiff*lngDiff <= radiusKm*radiusKm {
			result = append(result, loc)
		}
	}
	return result, nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, driverID string) (*redis.DriverLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[driverID]
	if !ok {
		return nil, nil
	}
	copy := loc
	return &copy, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// MockLockStore is an in-memory implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] {
		return false, nil
	}
	m.locks[driverID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PSP AND MULTIPLIER
// ──────────────────────────────────────────────

// MockPSP is a configurable payment provider.
type MockPSP struct {
	// Counters for verification
	ChargeCallCount int32
	RefundCallCount int32

	// Error injection
	ChargeError error
	RefundError error
}

func (p *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod, cardToken string) (string, error) {
	atomic.AddInt32(&p.ChargeCallCount, 1)
	if p.ChargeError != nil {
		return "", p.ChargeError
	}
	return "txn-" + uuid.New().String(), nil
}

func (p *MockPSP) Refund(ctx context.Context, transactionID string) error {
	atomic.AddInt32(&p.RefundCallCount, 1)
	return p.RefundError
}

// StaticMultiplier always returns a fixed multiplier.
type StaticMultiplier struct {
	Value float64
}

func (s StaticMultiplier) GetMultiplier(ctx context.Context, pickupLocation string) float64 {
	return s.Value
}
