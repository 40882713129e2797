package domain

import (
	"strings"
	"time"
)

// Stop is an intermediate point on a route. It has no identity of its own;
// its meaning comes from its position in the parent route's sequence.
type Stop struct {
	Location        string
	FareFromStart   float64 // cumulative fare offset from the route's start
	ExpectedArrival string  // optional, informational only
}

// Route is a named, driver-owned path with ordered stops and a fare schedule.
type Route struct {
	ID               string
	DriverID         string
	Name             string
	StartPoint       string
	EndPoint         string
	Stops            []Stop
	TotalDistanceKm  float64
	EstimatedTimeMin float64
	BaseFare         float64
	PerKmFare        float64
	ExtraStopFare    float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Positions along a route are numbered 0 (start point), 1..len(Stops)
// (the stops, in sequence order), and len(Stops)+1 (end point).
const RouteStartPosition = 0

// PositionCount returns the number of addressable positions on the route.
func (r *Route) PositionCount() int {
	return len(r.Stops) + 2
}

// EndPosition returns the position index of the route's end point.
func (r *Route) EndPosition() int {
	return len(r.Stops) + 1
}

// FareFromStart returns the cumulative fare offset for a position. The end
// point carries no entry in the stop table, so ok is false there.
func (r *Route) FareFromStart(pos int) (float64, bool) {
	switch {
	case pos == RouteStartPosition:
		return 0, true
	case pos >= 1 && pos <= len(r.Stops):
		return r.Stops[pos-1].FareFromStart, true
	default:
		return 0, false
	}
}

// PositionOf resolves a location string to a position on the route.
// Matching is case-insensitive on trimmed names.
func (r *Route) PositionOf(location string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(location))
	if want == "" {
		return 0, false
	}
	if strings.ToLower(strings.TrimSpace(r.StartPoint)) == want {
		return RouteStartPosition, true
	}
	for i, stop := range r.Stops {
		if strings.ToLower(strings.TrimSpace(stop.Location)) == want {
			return i + 1, true
		}
	}
	if strings.ToLower(strings.TrimSpace(r.EndPoint)) == want {
		return r.EndPosition(), true
	}
	return 0, false
}
