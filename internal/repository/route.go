package repository

import (
	"context"

	"dispatch/internal/domain"
)

// RouteRepository defines the persistence operations for routes and their
// stops. Stops are owned by the route and written with it.
type RouteRepository interface {
	// Create persists a new route with its stops.
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route and its stops by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// GetAll retrieves every route, for passenger-facing booking.
	GetAll(ctx context.Context) ([]*domain.Route, error)

	// ListByDriver retrieves the routes owned by a driver.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Route, error)

	// Update replaces a route and its stop sequence.
	Update(ctx context.Context, route *domain.Route) error
}
