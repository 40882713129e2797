package service

import (
	"context"
	"strconv"
	"strings"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// MultiplierServiceInterface provides the duration multiplier applied to the
// distance-dependent fare portion at booking time.
type MultiplierServiceInterface interface {
	GetMultiplier(ctx context.Context, pickupLocation string) float64
}

// MultiplierService derives the duration multiplier from supply and demand
// around the pickup point: online drivers nearby versus pending rides nearby.
type MultiplierService struct {
	locationStore redis.LocationStoreInterface
	rideRepo      repository.RideRepository
}

// Ensure MultiplierService implements MultiplierServiceInterface.
var _ MultiplierServiceInterface = (*MultiplierService)(nil)

// NewMultiplierService creates a new MultiplierService.
func NewMultiplierService(locationStore redis.LocationStoreInterface, rideRepo repository.RideRepository) *MultiplierService {
	return &MultiplierService{
		locationStore: locationStore,
		rideRepo:      rideRepo,
	}
}

// MultiplierConfig contains the supply/demand tier thresholds.
type MultiplierConfig struct {
	RadiusKm  float64 // area to check for supply/demand
	LowRatio  float64 // demand/supply ratio for 1.25x
	MedRatio  float64 // demand/supply ratio for 1.5x
	HighRatio float64 // demand/supply ratio for the cap
	Max       float64 // maximum multiplier
}

// DefaultMultiplierConfig returns the default thresholds.
func DefaultMultiplierConfig() MultiplierConfig {
	return MultiplierConfig{
		RadiusKm:  5.0,
		LowRatio:  1.2,
		MedRatio:  1.5,
		HighRatio: 2.0,
		Max:       2.0,
	}
}

// GetMultiplier returns the multiplier for a pickup location. Pickups that
// are not coordinate strings get 1.0; named stops have their pricing in the
// route's fare schedule already.
func (s *MultiplierService) GetMultiplier(ctx context.Context, pickupLocation string) float64 {
	lat, lng, ok := parseCoordinates(pickupLocation)
	if !ok {
		return 1.0
	}

	config := DefaultMultiplierConfig()
	supply := s.countDriversInArea(ctx, lat, lng, config.RadiusKm)
	demand := s.countPendingInArea(ctx, lat, lng, config.RadiusKm)

	return tierMultiplier(supply, demand, config)
}

func (s *MultiplierService) countDriversInArea(ctx context.Context, lat, lng, radiusKm float64) int {
	drivers, err := s.locationStore.FindNearbyDrivers(ctx, lat, lng, radiusKm)
	if err != nil {
		// Fail open: assume healthy supply rather than surging on an outage.
		return 10
	}
	return len(drivers)
}

func (s *MultiplierService) countPendingInArea(ctx context.Context, lat, lng, radiusKm float64) int {
	rides, err := s.rideRepo.ListByStatus(ctx, domain.RideStatusPending)
	if err != nil {
		return 0
	}

	count := 0
	for _, ride := range rides {
		rLat, rLng, ok := parseCoordinates(ride.PickupLocation)
		if !ok {
			continue
		}
		if withinRadius(lat, lng, rLat, rLng, radiusKm) {
			count++
		}
	}
	return count
}

func tierMultiplier(supply, demand int, config MultiplierConfig) float64 {
	if supply == 0 {
		if demand > 0 {
			return config.Max
		}
		return 1.0
	}

	ratio := float64(demand) / float64(supply)
	switch {
	case ratio >= config.HighRatio:
		return config.Max
	case ratio >= config.MedRatio:
		return 1.5
	case ratio >= config.LowRatio:
		return 1.25
	default:
		return 1.0
	}
}

// parseCoordinates parses a "lat,lng" location string.
func parseCoordinates(location string) (lat, lng float64, ok bool) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// withinRadius does a flat-earth approximation, good enough at dispatch radii.
func withinRadius(lat1, lng1, lat2, lng2, radiusKm float64) bool {
	const kmPerDegree = 111.0
	latDiff := (lat1 - lat2) * kmPerDegree
	lngDiff := (lng1 - lng2) * kmPerDegree
	return latDiff*latDiff+lngDiff*lngDiff <= radiusKm*radiusKm
}
