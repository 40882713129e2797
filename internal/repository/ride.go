package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// The guarded transition methods must be implemented as single conditional
// updates against the backing store (check-and-set in one statement), never
// as separate read/check/write steps. They return ErrConflict when the row
// exists but its status does not match the guard, and ErrNotFound when the
// ride does not exist.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// ListByStatus retrieves rides with the given status.
	ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error)

	// ListByDriver retrieves rides accepted by the given driver.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ListByPassenger retrieves rides booked by the given passenger.
	ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error)

	// AcceptPending atomically assigns a driver to a PENDING ride.
	AcceptPending(ctx context.Context, rideID, driverID string, at time.Time) error

	// StartAccepted atomically moves an ACCEPTED ride held by driverID to
	// IN_PROGRESS.
	StartAccepted(ctx context.Context, rideID, driverID string, at time.Time) error

	// CompleteInProgress atomically moves an IN_PROGRESS ride held by
	// driverID to COMPLETED.
	CompleteInProgress(ctx context.Context, rideID, driverID string, at time.Time) error

	// CancelActive atomically cancels a ride that is still PENDING or
	// ACCEPTED, recording who cancelled and when.
	CancelActive(ctx context.Context, rideID, actorID, reason string, at time.Time) error

	// UpdatePaymentStatus records the settlement outcome on the ride.
	UpdatePaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error
}
