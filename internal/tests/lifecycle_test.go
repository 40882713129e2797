package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func newRideService(rideRepo *MockRideRepository, routeRepo *MockRouteRepository, driverRepo *MockDriverRepository) *service.RideService {
	notifications := service.NewNotificationService()
	receipts := service.NewReceiptService(notifications)
	return service.NewRideService(
		rideRepo, routeRepo, driverRepo,
		StaticMultiplier{Value: 1.0}, notifications, receipts, nil,
		service.Tariff{BaseFare: 50, PerKmFare: 12},
	)
}

func newDispatchService(rideRepo *MockRideRepository, driverRepo *MockDriverRepository) *service.DispatchService {
	return service.NewDispatchService(
		rideRepo, driverRepo, NewMockLockStore(), nil, nil, nil, service.NewNotificationService(),
	)
}

func pendingRide(id string) *domain.Ride {
	return &domain.Ride{
		ID:                 id,
		PassengerID:        "passenger-1",
		RouteID:            "route-1",
		PickupLocation:     "A",
		DropoffLocation:    "C",
		DurationMultiplier: 1.0,
		Fare:               210,
		Status:             domain.RideStatusPending,
		PaymentStatus:      domain.PaymentStatusPending,
		PaymentMethod:      domain.PaymentMethodCash,
		BookedAt:           time.Now(),
	}
}

func TestRideLifecycle_HappyPath(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	driverRepo := NewMockDriverRepository()
	routeRepo.AddRoute(testRoute())
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Asha", Status: domain.DriverStatusOnline})

	rideService := newRideService(rideRepo, routeRepo, driverRepo)
	dispatchService := newDispatchService(rideRepo, driverRepo)

	ride, err := rideService.CreateRide(ctx, service.CreateRideRequest{
		PassengerID:     "passenger-1",
		RouteID:         "route-1",
		PickupLocation:  "A",
		DropoffLocation: "C",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ride.Status != domain.RideStatusPending {
		t.Fatalf("expected PENDING, got %s", ride.Status)
	}
	if ride.Fare != 210 {
		t.Errorf("expected fare 210 from the stop table, got %v", ride.Fare)
	}

	accepted, err := dispatchService.AcceptRide(ctx, ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.RideStatusAccepted || accepted.DriverID != "driver-1" {
		t.Fatalf("unexpected accept result: %+v", accepted)
	}
	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOnRide {
		t.Error("driver not marked ON_RIDE after accept")
	}

	started, err := rideService.StartRide(ctx, ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.RideStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", started.Status)
	}

	completed, receipt, err := rideService.CompleteRide(ctx, ride.ID, "driver-1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.RideStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", completed.Status)
	}
	if receipt == nil {
		t.Fatal("expected a receipt")
	}
	if receipt.TotalFare != 210 {
		t.Errorf("receipt total %v, want 210", receipt.TotalFare)
	}
	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOnline {
		t.Error("driver not freed after completion")
	}
}

func TestStartRide_WrongDriver(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	rideService := newRideService(rideRepo, NewMockRouteRepository(), driverRepo)

	ride := pendingRide("ride-1")
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	_, err := rideService.StartRide(ctx, "ride-1", "driver-2")
	var unavailable *service.RideUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected RideUnavailableError, got %v", err)
	}
	if rideRepo.GetRide("ride-1").Status != domain.RideStatusAccepted {
		t.Error("ride mutated by a rejected transition")
	}
}

func TestCompleteRide_FromPendingIsInvalid(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	rideService := newRideService(rideRepo, NewMockRouteRepository(), NewMockDriverRepository())

	rideRepo.AddRide(pendingRide("ride-1"))

	_, _, err := rideService.CompleteRide(ctx, "ride-1", "driver-1")
	var transition *service.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.From != domain.RideStatusPending || transition.To != domain.RideStatusCompleted {
		t.Errorf("unexpected transition detail: %+v", transition)
	}
}

func TestCancelRide_CompletedRideRefusesAndStaysIntact(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	dispatchService := newDispatchService(rideRepo, driverRepo)

	completedAt := time.Now()
	ride := pendingRide("ride-1")
	ride.Status = domain.RideStatusCompleted
	ride.DriverID = "driver-1"
	ride.CompletedAt = completedAt
	rideRepo.AddRide(ride)

	_, err := dispatchService.CancelRide(ctx, "ride-1", "passenger-1", "changed plans")
	var transition *service.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	stored := rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("status mutated: %s", stored.Status)
	}
	if !stored.CompletedAt.Equal(completedAt) {
		t.Error("completion timestamp mutated")
	}
	if stored.CancelReason != "" || stored.CancelledBy != "" {
		t.Error("cancellation fields set on a refused cancel")
	}
}

func TestCancelRide_AcceptedRideFreesDriver(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnRide})
	dispatchService := newDispatchService(rideRepo, driverRepo)

	ride := pendingRide("ride-1")
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = "driver-1"
	rideRepo.AddRide(ride)

	cancelled, err := dispatchService.CancelRide(ctx, "ride-1", "passenger-1", "no longer needed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelledBy != "passenger-1" {
		t.Errorf("expected cancelling actor recorded, got %q", cancelled.CancelledBy)
	}
	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOnline {
		t.Error("driver not freed after cancellation")
	}
}

func TestCreateRide_PointToPointUsesTariff(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	rideService := newRideService(rideRepo, NewMockRouteRepository(), NewMockDriverRepository())

	ride, err := rideService.CreateRide(ctx, service.CreateRideRequest{
		PassengerID:     "passenger-1",
		PickupLocation:  "12.97,77.59",
		DropoffLocation: "12.93,77.62",
		DistanceKm:      8,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 50 + 1 × (12 × 8) = 146 from the fallback tariff.
	if ride.Fare != 146 {
		t.Errorf("expected fare 146, got %v", ride.Fare)
	}
	if ride.RouteID != "" {
		t.Errorf("expected no route, got %q", ride.RouteID)
	}
}

func TestCreateRide_OffRouteLocationFallsBackToRouteTariff(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	routeRepo.AddRoute(testRoute())
	rideService := newRideService(rideRepo, routeRepo, NewMockDriverRepository())

	ride, err := rideService.CreateRide(ctx, service.CreateRideRequest{
		PassengerID:     "passenger-1",
		RouteID:         "route-1",
		PickupLocation:  "Somewhere Else",
		DropoffLocation: "C",
		DistanceKm:      4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 100 + 1 × (10 × 4) = 140 from the route's per-km tariff.
	if ride.Fare != 140 {
		t.Errorf("expected fare 140, got %v", ride.Fare)
	}
}

func TestLifecycleTable_PermitsExactlyTheGuardedEdges(t *testing.T) {
	statuses := []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAccepted,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	}
	allowed := map[domain.RideStatus][]domain.RideStatus{
		domain.RideStatusPending:    {domain.RideStatusAccepted, domain.RideStatusCancelled},
		domain.RideStatusAccepted:   {domain.RideStatusInProgress, domain.RideStatusCancelled},
		domain.RideStatusInProgress: {domain.RideStatusCompleted},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: CanTransitionTo = %v, want %v", from, to, got, want)
			}
		}
	}

	for _, s := range []domain.RideStatus{domain.RideStatusCompleted, domain.RideStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []domain.RideStatus{domain.RideStatusPending, domain.RideStatusAccepted, domain.RideStatusInProgress} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestLifecycleTable_GuardedStoreAgreesWithTable(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	attempt := func(repo *MockRideRepository, id string, to domain.RideStatus) error {
		switch to {
		case domain.RideStatusAccepted:
			return repo.AcceptPending(ctx, id, "driver-1", now)
		case domain.RideStatusInProgress:
			return repo.StartAccepted(ctx, id, "driver-1", now)
		case domain.RideStatusCompleted:
			return repo.CompleteInProgress(ctx, id, "driver-1", now)
		case domain.RideStatusCancelled:
			return repo.CancelActive(ctx, id, "driver-1", "", now)
		}
		t.Fatalf("no guarded method for %s", to)
		return nil
	}

	froms := []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAccepted,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	}
	tos := []domain.RideStatus{
		domain.RideStatusAccepted,
		domain.RideStatusInProgress,
		domain.RideStatusCompleted,
		domain.RideStatusCancelled,
	}

	for _, from := range froms {
		for _, to := range tos {
			repo := NewMockRideRepository()
			ride := pendingRide("ride-1")
			ride.Status = from
			if from != domain.RideStatusPending {
				ride.DriverID = "driver-1"
			}
			repo.AddRide(ride)

			err := attempt(repo, "ride-1", to)
			if from.CanTransitionTo(to) {
				if err != nil {
					t.Errorf("%s -> %s: table permits but store refused: %v", from, to, err)
				}
			} else if !errors.Is(err, repository.ErrConflict) {
				t.Errorf("%s -> %s: table forbids but store returned %v", from, to, err)
			}
		}
	}
}
