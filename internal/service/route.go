package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// RouteService handles the driver-owned route catalog.
type RouteService struct {
	routeRepo  repository.RouteRepository
	cacheStore *redis.CacheStore
}

// NewRouteService creates a new RouteService.
func NewRouteService(routeRepo repository.RouteRepository, cacheStore *redis.CacheStore) *RouteService {
	return &RouteService{
		routeRepo:  routeRepo,
		cacheStore: cacheStore,
	}
}

// StopInput is one stop of a route create/update request.
type StopInput struct {
	Location        string
	FareFromStart   float64
	ExpectedArrival string
}

// RouteInput contains the fields of a route create/update request.
type RouteInput struct {
	Name             string
	StartPoint       string
	EndPoint         string
	Stops            []StopInput
	TotalDistanceKm  float64
	EstimatedTimeMin float64
	BaseFare         float64
	PerKmFare        float64
	ExtraStopFare    float64
}

// CreateRoute validates and persists a new route owned by driverID.
func (s *RouteService) CreateRoute(ctx context.Context, driverID string, input RouteInput) (*domain.Route, error) {
	fields := fieldErrors{}
	if driverID == "" {
		fields.add("driver_id", "is required")
	}
	validateRouteInput(input, fields)
	if err := fields.err(); err != nil {
		return nil, err
	}

	now := time.Now()
	route := &domain.Route{
		ID:               uuid.New().String(),
		DriverID:         driverID,
		Name:             input.Name,
		StartPoint:       input.StartPoint,
		EndPoint:         input.EndPoint,
		Stops:            toStops(input.Stops),
		TotalDistanceKm:  input.TotalDistanceKm,
		EstimatedTimeMin: input.EstimatedTimeMin,
		BaseFare:         input.BaseFare,
		PerKmFare:        input.PerKmFare,
		ExtraStopFare:    input.ExtraStopFare,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetRoute(ctx, route)
	}

	return route, nil
}

// UpdateRoute validates and applies a full replacement of a route's fields.
// Ownership does not change.
func (s *RouteService) UpdateRoute(ctx context.Context, routeID string, input RouteInput) (*domain.Route, error) {
	if routeID == "" {
		return nil, &ValidationError{Fields: map[string]string{"route_id": "is required"}}
	}

	fields := fieldErrors{}
	validateRouteInput(input, fields)
	if err := fields.err(); err != nil {
		return nil, err
	}

	existing, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "route", ID: routeID}
		}
		return nil, err
	}

	route := &domain.Route{
		ID:               existing.ID,
		DriverID:         existing.DriverID,
		Name:             input.Name,
		StartPoint:       input.StartPoint,
		EndPoint:         input.EndPoint,
		Stops:            toStops(input.Stops),
		TotalDistanceKm:  input.TotalDistanceKm,
		EstimatedTimeMin: input.EstimatedTimeMin,
		BaseFare:         input.BaseFare,
		PerKmFare:        input.PerKmFare,
		ExtraStopFare:    input.ExtraStopFare,
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        time.Now(),
	}

	if err := s.routeRepo.Update(ctx, route); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "route", ID: routeID}
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateRoute(ctx, routeID)
		_ = s.cacheStore.SetRoute(ctx, route)
	}

	return route, nil
}

// GetRoute retrieves a route by ID, preferring the cache.
func (s *RouteService) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	if routeID == "" {
		return nil, &ValidationError{Fields: map[string]string{"route_id": "is required"}}
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetRoute(ctx, routeID); err == nil && cached != nil {
			return cached, nil
		}
	}

	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "route", ID: routeID}
		}
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetRoute(ctx, route)
	}

	return route, nil
}

// ListRoutesForDriver returns the routes owned by a driver.
func (s *RouteService) ListRoutesForDriver(ctx context.Context, driverID string) ([]*domain.Route, error) {
	if driverID == "" {
		return nil, &ValidationError{Fields: map[string]string{"driver_id": "is required"}}
	}
	return s.routeRepo.ListByDriver(ctx, driverID)
}

// ListAllRoutes returns every route, for passenger-facing booking.
func (s *RouteService) ListAllRoutes(ctx context.Context) ([]*domain.Route, error) {
	return s.routeRepo.GetAll(ctx)
}

// validateRouteInput records every invalid field, never just the first.
func validateRouteInput(input RouteInput, fields fieldErrors) {
	if strings.TrimSpace(input.Name) == "" {
		fields.add("name", "is required")
	}
	if strings.TrimSpace(input.StartPoint) == "" {
		fields.add("start_point", "is required")
	}
	if strings.TrimSpace(input.EndPoint) == "" {
		fields.add("end_point", "is required")
	}
	if input.TotalDistanceKm < 0 {
		fields.add("total_distance_km", "must be >= 0")
	}
	if input.EstimatedTimeMin < 0 {
		fields.add("estimated_time_min", "must be >= 0")
	}
	if input.BaseFare < 0 {
		fields.add("base_fare", "must be >= 0")
	}
	if input.PerKmFare < 0 {
		fields.add("per_km_fare", "must be >= 0")
	}
	if input.ExtraStopFare < 0 {
		fields.add("extra_stop_fare", "must be >= 0")
	}

	prev := 0.0
	for i, stop := range input.Stops {
		if strings.TrimSpace(stop.Location) == "" {
			fields.add(fmt.Sprintf("stops[%d].location", i), "is required")
		}
		if stop.FareFromStart < 0 {
			fields.add(fmt.Sprintf("stops[%d].fare_from_start", i), "must be >= 0")
		} else if stop.FareFromStart < prev {
			fields.add(fmt.Sprintf("stops[%d].fare_from_start", i), "must not decrease along the route")
		} else {
			prev = stop.FareFromStart
		}
	}
}

func toStops(inputs []StopInput) []domain.Stop {
	if len(inputs) == 0 {
		return nil
	}
	stops := make([]domain.Stop, len(inputs))
	for i, in := range inputs {
		stops[i] = domain.Stop{
			Location:        in.Location,
			FareFromStart:   in.FareFromStart,
			ExpectedArrival: in.ExpectedArrival,
		}
	}
	return stops
}
