package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
)

// CacheStore handles entity caching in Redis. Route snapshots change rarely
// and are read on every booking; ride snapshots serve dashboard polling and
// tolerate short staleness.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	RouteCacheTTL = 5 * time.Minute  // routes change only on driver edits
	RideCacheTTL  = 10 * time.Second // ride status changes during dispatch
)

// Key prefixes
const (
	routeCachePrefix = "cache:route:"
	rideCachePrefix  = "cache:ride:"
)

// GetRoute retrieves a route snapshot from cache. Returns nil on a miss.
func (s *CacheStore) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+routeID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// SetRoute stores a route snapshot in cache.
func (s *CacheStore) SetRoute(ctx context.Context, route *domain.Route) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+route.ID, data, RouteCacheTTL).Err()
}

// InvalidateRoute removes a route snapshot from cache.
func (s *CacheStore) InvalidateRoute(ctx context.Context, routeID string) error {
	return s.client.Del(ctx, routeCachePrefix+routeID).Err()
}

// CachedRide is the subset of ride state served to polling dashboards.
type CachedRide struct {
	ID            string  `json:"id"`
	PassengerID   string  `json:"passenger_id"`
	DriverID      string  `json:"driver_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Fare          float64 `json:"fare"`
}

// GetRide retrieves a ride snapshot from cache. Returns nil on a miss.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*CachedRide, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// SetRide stores a ride snapshot in cache.
func (s *CacheStore) SetRide(ctx context.Context, ride *CachedRide) error {
	data, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, RideCacheTTL).Err()
}

// InvalidateRide removes a ride snapshot from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}
