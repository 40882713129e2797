package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestUpdateLocation_BringsDriverOnline(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOffline})

	svc := service.NewDriverService(driverRepo, locationStore)

	err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{
		DriverID: "driver-1",
		Lat:      12.97,
		Lng:      77.59,
	})
	if err != nil {
		t.Fatalf("update location: %v", err)
	}

	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOnline {
		t.Error("driver not marked ONLINE after location report")
	}

	loc, err := locationStore.GetLocation(ctx, "driver-1")
	if err != nil || loc == nil {
		t.Fatalf("location not stored: loc=%v err=%v", loc, err)
	}
	if loc.Lat != 12.97 || loc.Lng != 77.59 {
		t.Errorf("unexpected stored position: %+v", loc)
	}
}

func TestUpdateLocation_OnRideDriverKeepsStatus(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnRide})

	svc := service.NewDriverService(driverRepo, locationStore)

	err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{
		DriverID: "driver-1",
		Lat:      12.97,
		Lng:      77.59,
	})
	if err != nil {
		t.Fatalf("update location: %v", err)
	}

	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOnRide {
		t.Error("mid-ride driver lost ON_RIDE status on a location report")
	}
}

func TestUpdateLocation_RejectsOutOfRangeCoordinates(t *testing.T) {
	ctx := context.Background()
	svc := service.NewDriverService(NewMockDriverRepository(), NewMockLocationStore())

	err := svc.UpdateLocation(ctx, service.UpdateLocationRequest{
		DriverID: "driver-1",
		Lat:      91,
		Lng:      200,
	})
	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"lat", "lng"} {
		if _, ok := validation.Fields[field]; !ok {
			t.Errorf("expected %s among failures: %v", field, validation.Fields)
		}
	}
}

func TestSetDriverOffline_RemovesFromGeoIndex(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Status: domain.DriverStatusOnline})
	_ = locationStore.UpdateLocation(ctx, "driver-1", 12.97, 77.59)

	svc := service.NewDriverService(driverRepo, locationStore)

	if err := svc.SetDriverOffline(ctx, "driver-1"); err != nil {
		t.Fatalf("offline: %v", err)
	}

	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusOffline {
		t.Error("driver not marked OFFLINE")
	}
	loc, _ := locationStore.GetLocation(ctx, "driver-1")
	if loc != nil {
		t.Error("location still present after going offline")
	}
}

func TestRegisterDriver_DuplicatePhone(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	if _, err := svc.RegisterDriver(ctx, service.RegisterDriverRequest{Name: "Asha", Phone: "0700111222"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.RegisterDriver(ctx, service.RegisterDriverRequest{Name: "Busi", Phone: "0700111222"})
	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for duplicate phone, got %v", err)
	}
}
