package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// Tariff is the fallback pricing for point-to-point rides booked without a
// saved route.
type Tariff struct {
	BaseFare  float64
	PerKmFare float64
}

// RideService handles ride booking and lifecycle progression. Identity is
// always an explicit parameter; nothing is read from ambient state.
type RideService struct {
	rideRepo            repository.RideRepository
	routeRepo           repository.RouteRepository
	driverRepo          repository.DriverRepository
	multiplierService   MultiplierServiceInterface
	notificationService *NotificationService
	receiptService      *ReceiptService
	cacheStore          *redis.CacheStore
	tariff              Tariff
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	routeRepo repository.RouteRepository,
	driverRepo repository.DriverRepository,
	multiplierService MultiplierServiceInterface,
	notificationService *NotificationService,
	receiptService *ReceiptService,
	cacheStore *redis.CacheStore,
	tariff Tariff,
) *RideService {
	return &RideService{
		rideRepo:            rideRepo,
		routeRepo:           routeRepo,
		driverRepo:          driverRepo,
		multiplierService:   multiplierService,
		notificationService: notificationService,
		receiptService:      receiptService,
		cacheStore:          cacheStore,
		tariff:              tariff,
	}
}

// CreateRideRequest contains the parameters for booking a ride.
type CreateRideRequest struct {
	PassengerID        string
	RouteID            string // optional: empty means point-to-point
	PickupLocation     string
	DropoffLocation    string
	DistanceKm         float64
	Duration           string
	PickupDateTime     time.Time
	DurationMultiplier float64 // optional: 0 derives from supply/demand
	PaymentMethod      domain.PaymentMethod
}

// CreateRide books a new ride in PENDING state with its fare fixed at
// creation. The fare comes from the route's stop table when pickup and
// dropoff both lie on the route, otherwise from the per-km fallback.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	fields := fieldErrors{}
	if req.PassengerID == "" {
		fields.add("passenger_id", "is required")
	}
	if strings.TrimSpace(req.PickupLocation) == "" {
		fields.add("pickup_location", "is required")
	}
	if strings.TrimSpace(req.DropoffLocation) == "" {
		fields.add("dropoff_location", "is required")
	}
	if req.DistanceKm < 0 {
		fields.add("distance_km", "must be >= 0")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	multiplier := req.DurationMultiplier
	if multiplier <= 0 && s.multiplierService != nil {
		multiplier = s.multiplierService.GetMultiplier(ctx, req.PickupLocation)
	}
	if multiplier < 1 {
		multiplier = 1
	}

	var route *domain.Route
	if req.RouteID != "" {
		var err error
		route, err = s.loadRoute(ctx, req.RouteID)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := s.priceRide(route, req, multiplier)
	if err != nil {
		return nil, err
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	pickupAt := req.PickupDateTime
	if pickupAt.IsZero() {
		pickupAt = time.Now()
	}

	ride := &domain.Ride{
		ID:                 uuid.New().String(),
		PassengerID:        req.PassengerID,
		RouteID:            req.RouteID,
		PickupLocation:     req.PickupLocation,
		DropoffLocation:    req.DropoffLocation,
		DistanceKm:         req.DistanceKm,
		Duration:           req.Duration,
		DurationMultiplier: multiplier,
		Fare:               breakdown.Total,
		Status:             domain.RideStatusPending,
		PaymentStatus:      domain.PaymentStatusPending,
		PaymentMethod:      paymentMethod,
		BookedAt:           time.Now(),
		PickupDateTime:     pickupAt,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideRequested(ctx, ride, route)
	}

	return ride, nil
}

// priceRide picks the fare convention for the booking.
func (s *RideService) priceRide(route *domain.Route, req CreateRideRequest, multiplier float64) (*FareBreakdown, error) {
	if route == nil {
		return ComputeDistanceFare(s.tariff.BaseFare, s.tariff.PerKmFare, req.DistanceKm, multiplier), nil
	}

	pickupPos, pickupOK := route.PositionOf(req.PickupLocation)
	dropoffPos, dropoffOK := route.PositionOf(req.DropoffLocation)
	if pickupOK && dropoffOK {
		return ComputeFare(route, pickupPos, dropoffPos, req.DistanceKm, multiplier)
	}

	return ComputeDistanceFare(route.BaseFare, route.PerKmFare, req.DistanceKm, multiplier), nil
}

// GetRide retrieves the current state of a ride.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, &ValidationError{Fields: map[string]string{"ride_id": "is required"}}
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "ride", ID: rideID}
		}
		return nil, err
	}
	return ride, nil
}

// StartRide moves an ACCEPTED ride to IN_PROGRESS once the driver confirms
// pickup. The transition is a conditional update in the store.
func (s *RideService) StartRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
	fields := fieldErrors{}
	if rideID == "" {
		fields.add("ride_id", "is required")
	}
	if driverID == "" {
		fields.add("driver_id", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	err := s.rideRepo.StartAccepted(ctx, rideID, driverID, time.Now())
	if err != nil {
		return nil, s.transitionFailure(ctx, rideID, driverID, err, domain.RideStatusInProgress)
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.invalidateRide(ctx, rideID)
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideStarted(ctx, ride)
	}

	return ride, nil
}

// CompleteRide moves an IN_PROGRESS ride to COMPLETED when the driver signals
// trip end, then generates the receipt.
func (s *RideService) CompleteRide(ctx context.Context, rideID, driverID string) (*domain.Ride, *domain.Receipt, error) {
	fields := fieldErrors{}
	if rideID == "" {
		fields.add("ride_id", "is required")
	}
	if driverID == "" {
		fields.add("driver_id", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, nil, err
	}

	err := s.rideRepo.CompleteInProgress(ctx, rideID, driverID, time.Now())
	if err != nil {
		return nil, nil, s.transitionFailure(ctx, rideID, driverID, err, domain.RideStatusCompleted)
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}

	s.invalidateRide(ctx, rideID)

	// Driver is free again.
	if s.driverRepo != nil {
		if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnline); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, err
		}
	}

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCompleted(ctx, ride)
	}

	var receipt *domain.Receipt
	if s.receiptService != nil {
		var route *domain.Route
		if ride.RouteID != "" {
			route, _ = s.loadRoute(ctx, ride.RouteID)
		}
		receipt, _ = s.receiptService.GenerateReceipt(ctx, ride, route, nil)
	}

	return ride, receipt, nil
}

// ListRides returns recent rides for dashboards.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// ListRidesByDriver returns a driver's rides.
func (s *RideService) ListRidesByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, &ValidationError{Fields: map[string]string{"driver_id": "is required"}}
	}
	return s.rideRepo.ListByDriver(ctx, driverID)
}

// ListRidesByPassenger returns a passenger's rides.
func (s *RideService) ListRidesByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	if passengerID == "" {
		return nil, &ValidationError{Fields: map[string]string{"passenger_id": "is required"}}
	}
	return s.rideRepo.ListByPassenger(ctx, passengerID)
}

// ListCancelledRides returns cancelled rides, retained for audit.
func (s *RideService) ListCancelledRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.ListByStatus(ctx, domain.RideStatusCancelled)
}

// transitionFailure turns a conditional-update miss into a typed error that
// reports the ride's current state.
func (s *RideService) transitionFailure(ctx context.Context, rideID, driverID string, err error, to domain.RideStatus) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: "ride", ID: rideID}
	}
	if !errors.Is(err, repository.ErrConflict) {
		return err
	}

	ride, getErr := s.rideRepo.GetByID(ctx, rideID)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrNotFound) {
			return &NotFoundError{Entity: "ride", ID: rideID}
		}
		return getErr
	}

	// The lifecycle permits the move, so the guard failed on the driver:
	// someone else holds the ride.
	if ride.Status.CanTransitionTo(to) {
		return &RideUnavailableError{RideID: rideID, Status: ride.Status}
	}

	return &InvalidTransitionError{RideID: rideID, From: ride.Status, To: to}
}

func (s *RideService) loadRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetRoute(ctx, routeID); err == nil && cached != nil {
			return cached, nil
		}
	}

	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "route", ID: routeID}
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetRoute(ctx, route)
	}

	return route, nil
}

func (s *RideService) invalidateRide(ctx context.Context, rideID string) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateRide(ctx, rideID)
	}
}
