package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestRegisterDriver_StartsWithPendingApproval(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	driver, err := svc.RegisterDriver(ctx, service.RegisterDriverRequest{Name: "Asha", Phone: "0700111222"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if driver.ApprovalStatus != domain.ApprovalStatusPending {
		t.Errorf("new driver approval = %s, want PENDING", driver.ApprovalStatus)
	}
	if driver.Vehicle.Registered() {
		t.Error("driver registered without vehicle details should have none")
	}
}

func TestUpdateDriverProfile_ReplacesVehicleDetails(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{
		ID:    "driver-1",
		Name:  "Asha",
		Phone: "0700111222",
	})
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	vehicle := domain.Vehicle{
		Type:        "Sedan",
		Model:       "Corolla",
		PlateNumber: "KAA 123X",
		Year:        "2019",
		Color:       "White",
	}
	updated, err := svc.UpdateDriverProfile(ctx, service.UpdateDriverProfileRequest{
		DriverID: "driver-1",
		Name:     "Asha N",
		Phone:    "0700111222",
		Vehicle:  vehicle,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}

	if updated.Name != "Asha N" {
		t.Errorf("name = %q after update", updated.Name)
	}
	if updated.Vehicle != vehicle {
		t.Errorf("vehicle = %+v, want %+v", updated.Vehicle, vehicle)
	}
	stored := driverRepo.GetDriver("driver-1")
	if stored.Vehicle != vehicle {
		t.Errorf("stored vehicle = %+v, want %+v", stored.Vehicle, vehicle)
	}
}

func TestUpdateDriverProfile_RejectsPhoneOfAnotherDriver(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", Name: "Asha", Phone: "0700111222"})
	driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Name: "Busi", Phone: "0700333444"})
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	_, err := svc.UpdateDriverProfile(ctx, service.UpdateDriverProfileRequest{
		DriverID: "driver-2",
		Name:     "Busi",
		Phone:    "0700111222",
	})
	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for taken phone, got %v", err)
	}
	if driverRepo.GetDriver("driver-2").Phone != "0700333444" {
		t.Error("rejected update must not change the stored phone")
	}
}

func TestUpdateDriverProfile_UnknownDriver(t *testing.T) {
	ctx := context.Background()
	svc := service.NewDriverService(NewMockDriverRepository(), NewMockLocationStore())

	_, err := svc.UpdateDriverProfile(ctx, service.UpdateDriverProfileRequest{
		DriverID: "missing",
		Name:     "Nobody",
		Phone:    "0700999888",
	})
	var notFound *service.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSetApprovalStatus_ApprovesAndRejects(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{
		ID:             "driver-1",
		Name:           "Asha",
		Phone:          "0700111222",
		ApprovalStatus: domain.ApprovalStatusPending,
	})
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	driver, err := svc.SetApprovalStatus(ctx, "driver-1", "APPROVED")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if driver.ApprovalStatus != domain.ApprovalStatusApproved {
		t.Errorf("approval = %s, want APPROVED", driver.ApprovalStatus)
	}

	driver, err = svc.SetApprovalStatus(ctx, "driver-1", "REJECTED")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if driver.ApprovalStatus != domain.ApprovalStatusRejected {
		t.Errorf("approval = %s, want REJECTED", driver.ApprovalStatus)
	}
}

func TestSetApprovalStatus_RejectsUnknownValue(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{ID: "driver-1", ApprovalStatus: domain.ApprovalStatusPending})
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	_, err := svc.SetApprovalStatus(ctx, "driver-1", "MAYBE")
	var validation *service.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if driverRepo.GetDriver("driver-1").ApprovalStatus != domain.ApprovalStatusPending {
		t.Error("invalid value must leave the approval status untouched")
	}
}

func TestSetApprovalStatus_UnknownDriver(t *testing.T) {
	ctx := context.Background()
	svc := service.NewDriverService(NewMockDriverRepository(), NewMockLocationStore())

	_, err := svc.SetApprovalStatus(ctx, "missing", "APPROVED")
	var notFound *service.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListVehicles_SkipsDriversWithoutVehicle(t *testing.T) {
	ctx := context.Background()
	driverRepo := NewMockDriverRepository()
	driverRepo.AddDriver(&domain.Driver{
		ID:    "driver-1",
		Name:  "Asha",
		Phone: "0700111222",
		Vehicle: domain.Vehicle{
			Type:        "Sedan",
			Model:       "Corolla",
			PlateNumber: "KAA 123X",
			Year:        "2019",
			Color:       "White",
		},
	})
	driverRepo.AddDriver(&domain.Driver{ID: "driver-2", Name: "Busi", Phone: "0700333444"})
	svc := service.NewDriverService(driverRepo, NewMockLocationStore())

	vehicles, err := svc.ListVehicles(ctx)
	if err != nil {
		t.Fatalf("list vehicles: %v", err)
	}
	if len(vehicles) != 1 {
		t.Fatalf("got %d drivers with vehicles, want 1", len(vehicles))
	}
	if vehicles[0].ID != "driver-1" {
		t.Errorf("listed driver = %s, want driver-1", vehicles[0].ID)
	}
}
