package repository

import (
	"context"

	"dispatch/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create persists a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByPhone retrieves a driver by phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// Update replaces a driver's profile fields (name, phone, vehicle).
	// Presence and approval are not touched here.
	Update(ctx context.Context, driver *domain.Driver) error

	// UpdateStatus updates a driver's status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// UpdateApprovalStatus updates a driver's approval status.
	UpdateApprovalStatus(ctx context.Context, id string, status domain.ApprovalStatus) error
}
