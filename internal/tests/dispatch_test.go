package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestAcceptRide_ConcurrentAcceptsExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()

	const driverCount = 20
	for i := 0; i < driverCount; i++ {
		driverRepo.AddDriver(&domain.Driver{
			ID:     fmt.Sprintf("driver-%d", i),
			Status: domain.DriverStatusOnline,
		})
	}
	rideRepo.AddRide(pendingRide("ride-1"))

	dispatchService := newDispatchService(rideRepo, driverRepo)

	var wg sync.WaitGroup
	results := make([]error, driverCount)
	for i := 0; i < driverCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = dispatchService.AcceptRide(ctx, "ride-1", fmt.Sprintf("driver-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		switch {
		case err == nil:
			winners++
		default:
			var unavailable *service.RideUnavailableError
			if !errors.As(err, &unavailable) {
				t.Errorf("driver-%d: expected RideUnavailableError, got %v", i, err)
			}
		}
	}

	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}

	ride := rideRepo.GetRide("ride-1")
	if ride.Status != domain.RideStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", ride.Status)
	}
	if ride.DriverID == "" {
		t.Error("no driver recorded on the accepted ride")
	}
}

func TestAcceptRide_RetryByWinnerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})
	rideRepo.AddRide(pendingRide("ride-1"))

	dispatchService := newDispatchService(rideRepo, driverRepo)

	first, err := dispatchService.AcceptRide(ctx, "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("first accept: %v", err)
	}

	// A retry after a lost response must succeed with the same outcome.
	second, err := dispatchService.AcceptRide(ctx, "ride-1", "driver-1")
	if err != nil {
		t.Fatalf("retry accept: %v", err)
	}
	if second.DriverID != first.DriverID || second.Status != domain.RideStatusAccepted {
		t.Errorf("retry diverged: %+v vs %+v", second, first)
	}
}

func TestAcceptRide_LoserGetsUnavailableNotInvalid(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})
	driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Status: domain.DriverStatusOnline})
	rideRepo.AddRide(pendingRide("ride-1"))

	dispatchService := newDispatchService(rideRepo, driverRepo)

	if _, err := dispatchService.AcceptRide(ctx, "ride-1", "driver-1"); err != nil {
		t.Fatalf("winner accept: %v", err)
	}

	_, err := dispatchService.AcceptRide(ctx, "ride-1", "driver-2")
	var unavailable *service.RideUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected RideUnavailableError, got %v", err)
	}
	if unavailable.Status != domain.RideStatusAccepted {
		t.Errorf("expected reported status ACCEPTED, got %s", unavailable.Status)
	}
}

func TestAcceptRide_UnknownDriver(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	rideRepo.AddRide(pendingRide("ride-1"))
	dispatchService := newDispatchService(rideRepo, NewMockDriverRepository())

	_, err := dispatchService.AcceptRide(ctx, "ride-1", "ghost")
	var notFound *service.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestVisibility_RouteOwnershipPolicy(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	driverRepo := NewMockDriverRepository()

	route := testRoute() // owned by driver-1
	routeRepo.AddRoute(route)

	onRoute := pendingRide("ride-on-route")
	rideRepo.AddRide(onRoute)

	pointToPoint := pendingRide("ride-p2p")
	pointToPoint.RouteID = ""
	rideRepo.AddRide(pointToPoint)

	dispatchService := service.NewDispatchService(
		rideRepo, driverRepo, NewMockLockStore(), nil, nil,
		service.NewRouteOwnershipPolicy(routeRepo), service.NewNotificationService(),
	)

	visible, err := dispatchService.ListPendingRidesForDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list for owner: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "ride-on-route" {
		t.Errorf("owner should see exactly the on-route ride, got %+v", visible)
	}

	visible, err = dispatchService.ListPendingRidesForDriver(ctx, "driver-2")
	if err != nil {
		t.Fatalf("list for non-owner: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("non-owner should see nothing, got %d rides", len(visible))
	}
}

func TestVisibility_ServiceAreaPolicy(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()

	// Driver near the pickup; another far away.
	_ = locationStore.UpdateLocation(ctx, "driver-near", 12.97, 77.59)
	_ = locationStore.UpdateLocation(ctx, "driver-far", 13.50, 78.30)

	ride := pendingRide("ride-1")
	ride.RouteID = ""
	ride.PickupLocation = "12.96,77.60"
	rideRepo.AddRide(ride)

	dispatchService := service.NewDispatchService(
		rideRepo, driverRepo, NewMockLockStore(), nil, locationStore,
		service.NewServiceAreaPolicy(locationStore, 5.0), service.NewNotificationService(),
	)

	visible, err := dispatchService.ListPendingRidesForDriver(ctx, "driver-near")
	if err != nil {
		t.Fatalf("list near: %v", err)
	}
	if len(visible) != 1 {
		t.Errorf("nearby driver should see the ride, got %d", len(visible))
	}

	visible, err = dispatchService.ListPendingRidesForDriver(ctx, "driver-far")
	if err != nil {
		t.Fatalf("list far: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("distant driver should see nothing, got %d", len(visible))
	}
}

func TestVisibility_AnyOfComposesWithOr(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()

	routeRepo.AddRoute(testRoute()) // owned by driver-1
	_ = locationStore.UpdateLocation(ctx, "driver-1", 12.97, 77.59)

	onRoute := pendingRide("ride-on-route")
	rideRepo.AddRide(onRoute)

	nearby := pendingRide("ride-nearby")
	nearby.RouteID = ""
	nearby.PickupLocation = "12.96,77.60"
	rideRepo.AddRide(nearby)

	policy := service.AnyOfPolicy{
		service.NewRouteOwnershipPolicy(routeRepo),
		service.NewServiceAreaPolicy(locationStore, 5.0),
	}
	dispatchService := service.NewDispatchService(
		rideRepo, driverRepo, NewMockLockStore(), nil, nil, policy, service.NewNotificationService(),
	)

	visible, err := dispatchService.ListPendingRidesForDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 2 {
		t.Errorf("expected both rides visible under OR composition, got %d", len(visible))
	}
}
