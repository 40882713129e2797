package tests

import (
	"context"
	"fmt"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestGetMultiplier_NamedStopGetsBaseMultiplier(t *testing.T) {
	ctx := context.Background()
	svc := service.NewMultiplierService(NewMockLocationStore(), NewMockRideRepository())

	if m := svc.GetMultiplier(ctx, "Terminal"); m != 1.0 {
		t.Errorf("expected 1.0 for a named stop, got %v", m)
	}
}

func TestGetMultiplier_HighDemandLowSupply(t *testing.T) {
	ctx := context.Background()
	locationStore := NewMockLocationStore()
	rideRepo := NewMockRideRepository()

	// One driver, four pending rides around the same pickup.
	_ = locationStore.UpdateLocation(ctx, "driver-1", 12.97, 77.59)
	for i := 0; i < 4; i++ {
		ride := pendingRide(fmt.Sprintf("ride-%d", i))
		ride.RouteID = ""
		ride.PickupLocation = "12.97,77.59"
		rideRepo.AddRide(ride)
	}

	svc := service.NewMultiplierService(locationStore, rideRepo)

	if m := svc.GetMultiplier(ctx, "12.97,77.59"); m != 2.0 {
		t.Errorf("expected the cap multiplier 2.0, got %v", m)
	}
}

func TestGetMultiplier_BalancedAreaStaysFlat(t *testing.T) {
	ctx := context.Background()
	locationStore := NewMockLocationStore()
	rideRepo := NewMockRideRepository()

	for i := 0; i < 5; i++ {
		_ = locationStore.UpdateLocation(ctx, fmt.Sprintf("driver-%d", i), 12.97, 77.59)
	}
	ride := pendingRide("ride-1")
	ride.RouteID = ""
	ride.PickupLocation = "12.97,77.59"
	rideRepo.AddRide(ride)

	svc := service.NewMultiplierService(locationStore, rideRepo)

	if m := svc.GetMultiplier(ctx, "12.97,77.59"); m != 1.0 {
		t.Errorf("expected 1.0 with healthy supply, got %v", m)
	}
}

func TestCreateRide_MultiplierAppliedToVariablePortion(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	routeRepo.AddRoute(testRoute())

	notifications := service.NewNotificationService()
	rideService := service.NewRideService(
		rideRepo, routeRepo, NewMockDriverRepository(),
		StaticMultiplier{Value: 1.5}, notifications, service.NewReceiptService(notifications), nil,
		service.Tariff{BaseFare: 50, PerKmFare: 12},
	)

	ride, err := rideService.CreateRide(ctx, service.CreateRideRequest{
		PassengerID:     "passenger-1",
		RouteID:         "route-1",
		PickupLocation:  "A",
		DropoffLocation: "C",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 100 + 1.5 × (90 + 20) = 265; the base stays flat.
	if ride.Fare != 265 {
		t.Errorf("expected fare 265, got %v", ride.Fare)
	}
	if ride.DurationMultiplier != 1.5 {
		t.Errorf("expected multiplier 1.5 recorded, got %v", ride.DurationMultiplier)
	}
	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected PENDING, got %s", ride.Status)
	}
}

func TestCreateRide_ExplicitMultiplierWins(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	routeRepo := NewMockRouteRepository()
	routeRepo.AddRoute(testRoute())

	notifications := service.NewNotificationService()
	rideService := service.NewRideService(
		rideRepo, routeRepo, NewMockDriverRepository(),
		StaticMultiplier{Value: 2.0}, notifications, service.NewReceiptService(notifications), nil,
		service.Tariff{BaseFare: 50, PerKmFare: 12},
	)

	ride, err := rideService.CreateRide(ctx, service.CreateRideRequest{
		PassengerID:        "passenger-1",
		RouteID:            "route-1",
		PickupLocation:     "A",
		DropoffLocation:    "C",
		DurationMultiplier: 1.0,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if ride.Fare != 210 {
		t.Errorf("expected fare 210 with the explicit multiplier, got %v", ride.Fare)
	}
}
