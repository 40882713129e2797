package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// DriverService handles driver registration and presence.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
) *DriverService {
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
// Vehicle details are optional at sign-up and can be added later through a
// profile update.
type RegisterDriverRequest struct {
	Name    string
	Phone   string
	Vehicle domain.Vehicle
}

// RegisterDriver creates a new driver account. Drivers start OFFLINE with a
// PENDING approval status; they come online by reporting a location.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	fields := fieldErrors{}
	if req.Name == "" {
		fields.add("name", "is required")
	}
	if req.Phone == "" {
		fields.add("phone", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	existing, err := s.driverRepo.GetByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationError{Fields: map[string]string{"phone": "is already registered"}}
	}

	driver := &domain.Driver{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Phone:          req.Phone,
		Status:         domain.DriverStatusOffline,
		ApprovalStatus: domain.ApprovalStatusPending,
		Vehicle:        req.Vehicle,
		CreatedAt:      time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}
	return driver, nil
}

// UpdateLocationRequest contains the parameters for reporting a driver location.
type UpdateLocationRequest struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// UpdateLocation records a driver's position in the Redis GEO index and sets
// them ONLINE. Drivers mid-ride keep their ON_RIDE status.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	fields := fieldErrors{}
	if req.DriverID == "" {
		fields.add("driver_id", "is required")
	}
	if req.Lat < -90 || req.Lat > 90 {
		fields.add("lat", "must be between -90 and 90")
	}
	if req.Lng < -180 || req.Lng > 180 {
		fields.add("lng", "must be between -180 and 180")
	}
	if err := fields.err(); err != nil {
		return err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "driver", ID: req.DriverID}
		}
		return err
	}

	if err := s.locationStore.UpdateLocation(ctx, req.DriverID, req.Lat, req.Lng); err != nil {
		return err
	}

	if driver.Status == domain.DriverStatusOffline {
		if err := s.driverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusOnline); err != nil {
			return err
		}
	}
	return nil
}

// SetDriverOffline marks a driver OFFLINE and removes them from the GEO index.
func (s *DriverService) SetDriverOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return &ValidationError{Fields: map[string]string{"driver_id": "is required"}}
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "driver", ID: driverID}
		}
		return err
	}

	return s.locationStore.RemoveLocation(ctx, driverID)
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, &ValidationError{Fields: map[string]string{"driver_id": "is required"}}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: driverID}
		}
		return nil, err
	}
	return driver, nil
}

// ListDrivers retrieves all drivers.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// UpdateDriverProfileRequest contains the parameters for updating a driver's
// profile. All fields are replaced; callers send the full profile.
type UpdateDriverProfileRequest struct {
	DriverID string
	Name     string
	Phone    string
	Vehicle  domain.Vehicle
}

// UpdateDriverProfile replaces a driver's name, phone and vehicle details.
// Presence and approval status are untouched.
func (s *DriverService) UpdateDriverProfile(ctx context.Context, req UpdateDriverProfileRequest) (*domain.Driver, error) {
	fields := fieldErrors{}
	if req.DriverID == "" {
		fields.add("driver_id", "is required")
	}
	if req.Name == "" {
		fields.add("name", "is required")
	}
	if req.Phone == "" {
		fields.add("phone", "is required")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: req.DriverID}
		}
		return nil, err
	}

	if req.Phone != driver.Phone {
		existing, err := s.driverRepo.GetByPhone(ctx, req.Phone)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, &ValidationError{Fields: map[string]string{"phone": "is already registered"}}
		}
	}

	driver.Name = req.Name
	driver.Phone = req.Phone
	driver.Vehicle = req.Vehicle

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: req.DriverID}
		}
		return nil, err
	}
	return driver, nil
}

// SetApprovalStatus moves a driver through the admin review flow.
func (s *DriverService) SetApprovalStatus(ctx context.Context, driverID, status string) (*domain.Driver, error) {
	fields := fieldErrors{}
	if driverID == "" {
		fields.add("driver_id", "is required")
	}

	approval := domain.ApprovalStatus(status)
	switch approval {
	case domain.ApprovalStatusPending, domain.ApprovalStatusApproved, domain.ApprovalStatusRejected:
	default:
		fields.add("approval_status", "must be PENDING, APPROVED or REJECTED")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	if err := s.driverRepo.UpdateApprovalStatus(ctx, driverID, approval); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "driver", ID: driverID}
		}
		return nil, err
	}

	return s.driverRepo.GetByID(ctx, driverID)
}

// ListVehicles returns the drivers that have registered vehicle details, for
// the fleet overview.
func (s *DriverService) ListVehicles(ctx context.Context) ([]*domain.Driver, error) {
	drivers, err := s.driverRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	withVehicle := make([]*domain.Driver, 0, len(drivers))
	for _, driver := range drivers {
		if driver.Vehicle.Registered() {
			withVehicle = append(withVehicle, driver)
		}
	}
	return withVehicle, nil
}
