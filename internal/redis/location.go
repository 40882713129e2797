package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const driverLocationKey = "drivers:locations"

// DriverLocation represents a driver's position.
type DriverLocation struct {
	DriverID string
	Lat      float64
	Lng      float64
}

// LocationStore handles driver location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyDrivers returns driver positions within the given radius (in kilometers).
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error) {
	results, err := s.client.GeoRadius(ctx, driverLocationKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]DriverLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, DriverLocation{
			DriverID: r.Name,
			Lat:      r.Latitude,
			Lng:      r.Longitude,
		})
	}

	return locations, nil
}

// GetLocation returns a single driver's position, or nil if unknown.
func (s *LocationStore) GetLocation(ctx context.Context, driverID string) (*DriverLocation, error) {
	positions, err := s.client.GeoPos(ctx, driverLocationKey, driverID).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &DriverLocation{
		DriverID: driverID,
		Lat:      positions[0].Latitude,
		Lng:      positions[0].Longitude,
	}, nil
}

// RemoveLocation removes a driver's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverLocationKey, driverID).Err()
}
