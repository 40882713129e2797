package tests

import (
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// testRoute builds a route with stops A(0), B(50), C(90) and a fare schedule
// used throughout the fare tests.
func testRoute() *domain.Route {
	return &domain.Route{
		ID:         "route-1",
		DriverID:   "driver-1",
		Name:       "Downtown Express",
		StartPoint: "Terminal",
		EndPoint:   "Airport",
		Stops: []domain.Stop{
			{Location: "A", FareFromStart: 0},
			{Location: "B", FareFromStart: 50},
			{Location: "C", FareFromStart: 90},
		},
		TotalDistanceKm: 18,
		BaseFare:        100,
		PerKmFare:       10,
		ExtraStopFare:   20,
	}
}

func TestComputeFare_StopTableSegment(t *testing.T) {
	route := testRoute()

	// A (pos 1) to C (pos 3): segment 90-0, one intermediate stop (B).
	breakdown, err := service.ComputeFare(route, 1, 3, 0, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !breakdown.FromStopTable {
		t.Error("expected segment priced from stop table")
	}
	if breakdown.SegmentFare != 90 {
		t.Errorf("expected segment fare 90, got %v", breakdown.SegmentFare)
	}
	if breakdown.IntermediateStops != 1 {
		t.Errorf("expected 1 intermediate stop, got %d", breakdown.IntermediateStops)
	}
	if breakdown.Total != 210 {
		t.Errorf("expected total 210, got %v", breakdown.Total)
	}
}

func TestComputeFare_BaseNotMultiplied(t *testing.T) {
	route := testRoute()

	// Same segment at 2x: only the variable portion doubles.
	breakdown, err := service.ComputeFare(route, 1, 3, 0, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 + 2 × (90 + 20) = 320
	if breakdown.Total != 320 {
		t.Errorf("expected total 320, got %v", breakdown.Total)
	}
}

func TestComputeFare_MultiplierBelowOneClamps(t *testing.T) {
	route := testRoute()

	breakdown, err := service.ComputeFare(route, 1, 3, 0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if breakdown.DurationMultiplier != 1.0 {
		t.Errorf("expected multiplier clamped to 1.0, got %v", breakdown.DurationMultiplier)
	}
	if breakdown.Total != 210 {
		t.Errorf("expected total 210, got %v", breakdown.Total)
	}
}

func TestComputeFare_FareNeverBelowBase(t *testing.T) {
	route := testRoute()
	last := route.EndPosition()

	for pickup := 0; pickup <= last; pickup++ {
		for dropoff := pickup + 1; dropoff <= last; dropoff++ {
			breakdown, err := service.ComputeFare(route, pickup, dropoff, 5, 1.0)
			if err != nil {
				t.Fatalf("ComputeFare(%d, %d): %v", pickup, dropoff, err)
			}
			if breakdown.Total < route.BaseFare {
				t.Errorf("segment %d->%d: total %v below base %v", pickup, dropoff, breakdown.Total, route.BaseFare)
			}
		}
	}
}

func TestComputeFare_EndPointFallsBackToDistance(t *testing.T) {
	route := testRoute()

	// Dropping at the end point: no table entry, so per-km pricing applies.
	breakdown, err := service.ComputeFare(route, 1, route.EndPosition(), 10, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if breakdown.FromStopTable {
		t.Error("expected per-km fallback for a segment ending at the end point")
	}
	// 100 + 1 × (10×10 + 2×20) = 240, intermediates are B and C.
	if breakdown.IntermediateStops != 2 {
		t.Errorf("expected 2 intermediate stops, got %d", breakdown.IntermediateStops)
	}
	if breakdown.Total != 240 {
		t.Errorf("expected total 240, got %v", breakdown.Total)
	}
}

func TestComputeFare_InvalidSegments(t *testing.T) {
	route := testRoute()

	cases := []struct {
		name    string
		pickup  int
		dropoff int
	}{
		{"pickup equals dropoff", 2, 2},
		{"dropoff precedes pickup", 3, 1},
		{"pickup outside route", -1, 2},
		{"dropoff outside route", 1, 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.ComputeFare(route, tc.pickup, tc.dropoff, 0, 1.0)
			var segErr *service.InvalidRouteSegmentError
			if !errors.As(err, &segErr) {
				t.Fatalf("expected InvalidRouteSegmentError, got %v", err)
			}
		})
	}
}

func TestComputeDistanceFare_Rounding(t *testing.T) {
	// 50 + 1 × (3.333 × 7) = 73.331, rounds to 73.33.
	breakdown := service.ComputeDistanceFare(50, 3.333, 7, 1.0)
	if breakdown.Total != 73.33 {
		t.Errorf("expected total 73.33, got %v", breakdown.Total)
	}

	// Half rounds up: 10 + 1 × (0.125 × 1) = 10.125 -> 10.13.
	breakdown = service.ComputeDistanceFare(10, 0.125, 1, 1.0)
	if breakdown.Total != 10.13 {
		t.Errorf("expected total 10.13, got %v", breakdown.Total)
	}
}

func TestPositionOf_MatchingIsCaseInsensitive(t *testing.T) {
	route := testRoute()

	pos, ok := route.PositionOf("  b ")
	if !ok || pos != 2 {
		t.Errorf("expected position 2 for ' b ', got %d (ok=%v)", pos, ok)
	}

	pos, ok = route.PositionOf("TERMINAL")
	if !ok || pos != 0 {
		t.Errorf("expected position 0 for start point, got %d (ok=%v)", pos, ok)
	}

	pos, ok = route.PositionOf("airport")
	if !ok || pos != route.EndPosition() {
		t.Errorf("expected end position for 'airport', got %d (ok=%v)", pos, ok)
	}

	if _, ok := route.PositionOf("Nowhere"); ok {
		t.Error("expected no position for unknown location")
	}
}
