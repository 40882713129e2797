package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
// Stops live in route_stops, keyed by (route_id, position).
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// NewRouteRepositoryWithTx creates a route repository using a transaction.
func NewRouteRepositoryWithTx(tx *sql.Tx) *RouteRepository {
	return &RouteRepository{q: tx}
}

// withTx runs fn inside a transaction when the repository is backed by a
// *sql.DB; when already transaction-scoped it runs fn directly.
func (r *RouteRepository) withTx(ctx context.Context, fn func(repo *RouteRepository) error) error {
	db, ok := r.q.(*sql.DB)
	if !ok {
		return fn(r)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&RouteRepository{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Create persists a new route with its stops in one transaction.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	return r.withTx(ctx, func(repo *RouteRepository) error {
		return repo.create(ctx, route)
	})
}

func (r *RouteRepository) create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (id, driver_id, name, start_point, end_point, total_distance_km,
			estimated_time_min, base_fare, per_km_fare, extra_stop_fare, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		route.ID,
		route.DriverID,
		route.Name,
		route.StartPoint,
		route.EndPoint,
		route.TotalDistanceKm,
		route.EstimatedTimeMin,
		route.BaseFare,
		route.PerKmFare,
		route.ExtraStopFare,
		route.CreatedAt,
		route.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return r.insertStops(ctx, route.ID, route.Stops)
}

// GetByID retrieves a route and its stops by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `
		SELECT id, driver_id, name, start_point, end_point, total_distance_km,
			estimated_time_min, base_fare, per_km_fare, extra_stop_fare, created_at, updated_at
		FROM routes WHERE id = $1
	`

	var route domain.Route
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&route.ID,
		&route.DriverID,
		&route.Name,
		&route.StartPoint,
		&route.EndPoint,
		&route.TotalDistanceKm,
		&route.EstimatedTimeMin,
		&route.BaseFare,
		&route.PerKmFare,
		&route.ExtraStopFare,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	stops, err := r.loadStops(ctx, route.ID)
	if err != nil {
		return nil, err
	}
	route.Stops = stops

	return &route, nil
}

// GetAll retrieves every route, for passenger-facing booking.
func (r *RouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	query := `
		SELECT id, driver_id, name, start_point, end_point, total_distance_km,
			estimated_time_min, base_fare, per_km_fare, extra_stop_fare, created_at, updated_at
		FROM routes ORDER BY created_at DESC
	`
	return r.queryRoutes(ctx, query)
}

// ListByDriver retrieves the routes owned by a driver.
func (r *RouteRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error) {
	query := `
		SELECT id, driver_id, name, start_point, end_point, total_distance_km,
			estimated_time_min, base_fare, per_km_fare, extra_stop_fare, created_at, updated_at
		FROM routes WHERE driver_id = $1 ORDER BY created_at DESC
	`
	return r.queryRoutes(ctx, query, driverID)
}

// Update replaces a route and its stop sequence in one transaction. Stops are
// rewritten rather than diffed; the sequence is small and its order is what
// matters.
func (r *RouteRepository) Update(ctx context.Context, route *domain.Route) error {
	return r.withTx(ctx, func(repo *RouteRepository) error {
		return repo.update(ctx, route)
	})
}

func (r *RouteRepository) update(ctx context.Context, route *domain.Route) error {
	query := `
		UPDATE routes
		SET name = $1, start_point = $2, end_point = $3, total_distance_km = $4,
			estimated_time_min = $5, base_fare = $6, per_km_fare = $7, extra_stop_fare = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		route.Name,
		route.StartPoint,
		route.EndPoint,
		route.TotalDistanceKm,
		route.EstimatedTimeMin,
		route.BaseFare,
		route.PerKmFare,
		route.ExtraStopFare,
		route.UpdatedAt,
		route.ID,
	)
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

	if _, err := r.q.ExecContext(ctx, `DELETE FROM route_stops WHERE route_id = $1`, route.ID); err != nil {
		return err
	}

	return r.insertStops(ctx, route.ID, route.Stops)
}

func (r *RouteRepository) insertStops(ctx context.Context, routeID string, stops []domain.Stop) error {
	query := `
		INSERT INTO route_stops (route_id, position, location, fare_from_start, expected_arrival)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, stop := range stops {
		_, err := r.q.ExecContext(ctx, query,
			routeID,
			i+1,
			stop.Location,
			stop.FareFromStart,
			nullString(stop.ExpectedArrival),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *RouteRepository) loadStops(ctx context.Context, routeID string) ([]domain.Stop, error) {
	query := `
		SELECT location, fare_from_start, expected_arrival
		FROM route_stops WHERE route_id = $1 ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []domain.Stop
	for rows.Next() {
		var stop domain.Stop
		var expectedArrival sql.NullString
		if err := rows.Scan(&stop.Location, &stop.FareFromStart, &expectedArrival); err != nil {
			return nil, err
		}
		stop.ExpectedArrival = expectedArrival.String
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

func (r *RouteRepository) queryRoutes(ctx context.Context, query string, args ...any) ([]*domain.Route, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		var route domain.Route
		if err := rows.Scan(
			&route.ID,
			&route.DriverID,
			&route.Name,
			&route.StartPoint,
			&route.EndPoint,
			&route.TotalDistanceKm,
			&route.EstimatedTimeMin,
			&route.BaseFare,
			&route.PerKmFare,
			&route.ExtraStopFare,
			&route.CreatedAt,
			&route.UpdatedAt,
		); err != nil {
			return nil, err
		}
		routes = append(routes, &route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, route := range routes {
		stops, err := r.loadStops(ctx, route.ID)
		if err != nil {
			return nil, err
		}
		route.Stops = stops
	}

	return routes, nil
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
