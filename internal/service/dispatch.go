package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

const acceptLockTTL = 10 * time.Second

// VisibilityPolicy decides which pending rides a driver may see. Policies are
// pluggable; dispatch composes them with OR semantics.
type VisibilityPolicy interface {
	Visible(ctx context.Context, ride *domain.Ride, driverID string) (bool, error)
}

// RouteOwnershipPolicy shows a driver the pending rides booked on routes they
// own. Rides without a route are not its concern.
type RouteOwnershipPolicy struct {
	routeRepo repository.RouteRepository
}

// NewRouteOwnershipPolicy creates a route-ownership visibility policy.
func NewRouteOwnershipPolicy(routeRepo repository.RouteRepository) *RouteOwnershipPolicy {
	return &RouteOwnershipPolicy{routeRepo: routeRepo}
}

func (p *RouteOwnershipPolicy) Visible(ctx context.Context, ride *domain.Ride, driverID string) (bool, error) {
	if ride.RouteID == "" {
		return false, nil
	}

	route, err := p.routeRepo.GetByID(ctx, ride.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return route.DriverID == driverID, nil
}

// ServiceAreaPolicy shows a driver the pending point-to-point rides whose
// pickup coordinates fall within radiusKm of the driver's last reported
// position.
type ServiceAreaPolicy struct {
	locationStore redis.LocationStoreInterface
	radiusKm      float64
}

// NewServiceAreaPolicy creates a service-area visibility policy.
func NewServiceAreaPolicy(locationStore redis.LocationStoreInterface, radiusKm float64) *ServiceAreaPolicy {
	return &ServiceAreaPolicy{locationStore: locationStore, radiusKm: radiusKm}
}

func (p *ServiceAreaPolicy) Visible(ctx context.Context, ride *domain.Ride, driverID string) (bool, error) {
	lat, lng, ok := parseCoordinates(ride.PickupLocation)
	if !ok {
		return false, nil
	}

	loc, err := p.locationStore.GetLocation(ctx, driverID)
	if err != nil {
		return false, err
	}
	if loc == nil {
		return false, nil
	}

	return withinRadius(lat, lng, loc.Lat, loc.Lng, p.radiusKm), nil
}

// AnyOfPolicy is visible when any of its member policies is.
type AnyOfPolicy []VisibilityPolicy

func (p AnyOfPolicy) Visible(ctx context.Context, ride *domain.Ride, driverID string) (bool, error) {
	for _, policy := range p {
		ok, err := policy.Visible(ctx, ride, driverID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// DispatchService arbitrates which driver wins each pending ride. The
// exactly-once guarantee lives in the store's conditional update; the Redis
// lock only stops one driver's own concurrent requests from both reaching it.
type DispatchService struct {
	rideRepo            repository.RideRepository
	driverRepo          repository.DriverRepository
	lockStore           redis.LockStoreInterface
	cacheStore          *redis.CacheStore
	locationStore       redis.LocationStoreInterface
	policy              VisibilityPolicy
	notificationService *NotificationService
}

// NewDispatchService creates a new DispatchService.
func NewDispatchService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	locationStore redis.LocationStoreInterface,
	policy VisibilityPolicy,
	notificationService *NotificationService,
) *DispatchService {
	return &DispatchService{
		rideRepo:            rideRepo,
		driverRepo:          driverRepo,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		locationStore:       locationStore,
		policy:              policy,
		notificationService: notificationService,
	}
}

// ListPendingRidesForDriver returns the PENDING rides the driver is allowed
// to see under the configured visibility policy.
func (s *DispatchService) ListPendingRidesForDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, &ValidationError{Fields: map[string]string{"driver_id": "is required"}}
	}

	pending, err := s.rideRepo.ListByStatus(ctx, domain.RideStatusPending)
	if err != nil {
		return nil, err
	}

	if s.policy == nil {
		return pending, nil
	}

	visible := make([]*domain.Ride, 0, len(pending))
	for _, ride := range pending {
		ok, err := s.policy.Visible(ctx, ride, driverID)
		if err != nil {
			logrus.WithError(err).WithField("ride_id", ride.ID).Debug("visibility check failed, skipping ride")
			continue
		}
		if ok {
			visible = append(visible, ride)
		}
	}
	return visible, nil
}

// AcceptRide resolves the accept race for a ride: exactly one driver wins,
// every other attempt gets RideUnavailableError. Re-accepting a ride the
// driver already holds is a no-op success, which makes retry-after-timeout
// safe for callers.
func (s *DispatchService) AcceptRide(ctx context.Context, rideID, driverID string) (*domain.Ride, error) {
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

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: driverID}
		}
		return nil, err
	}

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireDriverLock(ctx, driverID, acceptLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			// The same driver has another accept in flight.
			return nil, &RideUnavailableError{RideID: rideID, Status: domain.RideStatusPending}
		}
		defer func() { _ = s.lockStore.ReleaseDriverLock(ctx, driverID) }()
	}

	err = s.rideRepo.AcceptPending(ctx, rideID, driverID, time.Now())
	if err != nil {
		return s.resolveAcceptFailure(ctx, rideID, driverID, err)
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnRide); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	s.invalidateRide(ctx, rideID)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideAccepted(ctx, ride, driver)
	}

	return ride, nil
}

// resolveAcceptFailure classifies a conditional-update miss. Losing the race
// is an expected, frequent outcome and is deliberately not logged as an
// error.
func (s *DispatchService) resolveAcceptFailure(ctx context.Context, rideID, driverID string, err error) (*domain.Ride, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "ride", ID: rideID}
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	ride, getErr := s.rideRepo.GetByID(ctx, rideID)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "ride", ID: rideID}
		}
		return nil, getErr
	}

	// Idempotent: the driver already holds this ride.
	if ride.Status == domain.RideStatusAccepted && ride.DriverID == driverID {
		return ride, nil
	}

	return nil, &RideUnavailableError{RideID: rideID, Status: ride.Status}
}

// CancelRide cancels a ride that is still PENDING or ACCEPTED, recording the
// cancelling actor and timestamp. Terminal and in-progress rides refuse with
// InvalidTransitionError.
func (s *DispatchService) CancelRide(ctx context.Context, rideID, actorID, reason string) (*domain.Ride, error) {
	fields := fieldErrors{}
	if rideID == "" {
		fields.add("ride_id", "is required")
	}
	if actorID == "" {
		fields.add("actor_id", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	err := s.rideRepo.CancelActive(ctx, rideID, actorID, reason, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "ride", ID: rideID}
		}
		if errors.Is(err, repository.ErrConflict) {
			ride, getErr := s.rideRepo.GetByID(ctx, rideID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &InvalidTransitionError{RideID: rideID, From: ride.Status, To: domain.RideStatusCancelled}
		}
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	// Free the driver if one was already assigned.
	if ride.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, ride.DriverID, domain.DriverStatusOnline); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	s.invalidateRide(ctx, rideID)

	if s.notificationService != nil {
		_ = s.notificationService.NotifyRideCancelled(ctx, ride, actorID, reason)
	}

	return ride, nil
}

// RideTracking is a point-in-time view of a ride for the passenger's
// tracking page. DriverLocation is nil until a driver has accepted and
// reported a position.
type RideTracking struct {
	Ride           *domain.Ride
	DriverLocation *redis.DriverLocation
}

// TrackRide returns the ride's current state and, when a driver is assigned,
// their last reported position from the GEO index.
func (s *DispatchService) TrackRide(ctx context.Context, rideID string) (*RideTracking, error) {
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

	tracking := &RideTracking{Ride: ride}
	if ride.DriverID != "" && s.locationStore != nil {
		loc, err := s.locationStore.GetLocation(ctx, ride.DriverID)
		if err != nil {
			logrus.WithError(err).WithField("driver_id", ride.DriverID).Debug("driver location lookup failed")
		} else {
			tracking.DriverLocation = loc
		}
	}
	return tracking, nil
}

func (s *DispatchService) invalidateRide(ctx context.Context, rideID string) {
	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateRide(ctx, rideID)
	}
}
