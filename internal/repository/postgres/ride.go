package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

const rideColumns = `id, passenger_id, driver_id, route_id, pickup_location, dropoff_location,
		distance_km, duration, duration_multiplier, fare, status, payment_status, payment_method,
		booked_at, pickup_datetime, accepted_at, started_at, completed_at, cancelled_at, cancelled_by, cancel_reason`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	multiplier := ride.DurationMultiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	paymentStatus := ride.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusPending
	}

	paymentMethod := ride.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodCash
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.PassengerID,
		nullString(ride.DriverID),
		nullString(ride.RouteID),
		ride.PickupLocation,
		ride.DropoffLocation,
		ride.DistanceKm,
		ride.Duration,
		multiplier,
		ride.Fare,
		ride.Status,
		paymentStatus,
		paymentMethod,
		ride.BookedAt,
		nullTime(ride.PickupDateTime),
		nullTime(ride.AcceptedAt),
		nullTime(ride.StartedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelledBy),
		nullString(ride.CancelReason),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY booked_at DESC LIMIT 100`
	return r.queryRides(ctx, query)
}

// ListByStatus retrieves rides with the given status.
func (r *RideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE status = $1 ORDER BY booked_at DESC LIMIT 100`
	return r.queryRides(ctx, query, status)
}

// ListByDriver retrieves rides accepted by the given driver.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY booked_at DESC LIMIT 100`
	return r.queryRides(ctx, query, driverID)
}

// ListByPassenger retrieves rides booked by the given passenger.
func (r *RideRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE passenger_id = $1 ORDER BY booked_at DESC LIMIT 100`
	return r.queryRides(ctx, query, passengerID)
}

// AcceptPending atomically assigns a driver to a PENDING ride. The status
// check and the write happen in a single statement so that concurrent accepts
// cannot both observe PENDING.
func (r *RideRepository) AcceptPending(ctx context.Context, rideID, driverID string, at time.Time) error {
	query := `
		UPDATE rides
		SET status = $1, driver_id = $2, accepted_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.conditionalUpdate(ctx, rideID, query,
		domain.RideStatusAccepted, driverID, at, rideID, domain.RideStatusPending)
}

// StartAccepted atomically moves an ACCEPTED ride held by driverID to IN_PROGRESS.
func (r *RideRepository) StartAccepted(ctx context.Context, rideID, driverID string, at time.Time) error {
	query := `
		UPDATE rides
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4 AND driver_id = $5
	`
	return r.conditionalUpdate(ctx, rideID, query,
		domain.RideStatusInProgress, at, rideID, domain.RideStatusAccepted, driverID)
}

// CompleteInProgress atomically moves an IN_PROGRESS ride held by driverID to COMPLETED.
func (r *RideRepository) CompleteInProgress(ctx context.Context, rideID, driverID string, at time.Time) error {
	query := `
		UPDATE rides
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4 AND driver_id = $5
	`
	return r.conditionalUpdate(ctx, rideID, query,
		domain.RideStatusCompleted, at, rideID, domain.RideStatusInProgress, driverID)
}

// CancelActive atomically cancels a ride that is still PENDING or ACCEPTED.
func (r *RideRepository) CancelActive(ctx context.Context, rideID, actorID, reason string, at time.Time) error {
	query := `
		UPDATE rides
		SET status = $1, cancelled_at = $2, cancelled_by = $3, cancel_reason = $4
		WHERE id = $5 AND status IN ($6, $7)
	`
	return r.conditionalUpdate(ctx, rideID, query,
		domain.RideStatusCancelled, at, actorID, nullString(reason),
		rideID, domain.RideStatusPending, domain.RideStatusAccepted)
}

// UpdatePaymentStatus records the settlement outcome on the ride.
func (r *RideRepository) UpdatePaymentStatus(ctx context.Context, rideID string, status domain.PaymentStatus) error {
	query := `UPDATE rides SET payment_status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, rideID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// conditionalUpdate executes a guarded UPDATE. Zero rows affected means
// either the ride does not exist (ErrNotFound) or the guard failed
// (ErrConflict); a follow-up existence check distinguishes the two.
func (r *RideRepository) conditionalUpdate(ctx context.Context, rideID, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, rideID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *RideRepository) queryRides(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, routeID, cancelledBy, cancelReason sql.NullString
	var pickupDateTime, acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.PassengerID,
		&driverID,
		&routeID,
		&ride.PickupLocation,
		&ride.DropoffLocation,
		&ride.DistanceKm,
		&ride.Duration,
		&ride.DurationMultiplier,
		&ride.Fare,
		&ride.Status,
		&ride.PaymentStatus,
		&ride.PaymentMethod,
		&ride.BookedAt,
		&pickupDateTime,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&cancelledBy,
		&cancelReason,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.RouteID = routeID.String
	ride.CancelledBy = cancelledBy.String
	ride.CancelReason = cancelReason.String
	ride.PickupDateTime = pickupDateTime.Time
	ride.AcceptedAt = acceptedAt.Time
	ride.StartedAt = startedAt.Time
	ride.CompletedAt = completedAt.Time
	ride.CancelledAt = cancelledAt.Time

	return &ride, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure RideRepository implements repository.RideRepository.
var _ repository.RideRepository = (*RideRepository)(nil)
