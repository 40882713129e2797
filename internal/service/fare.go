package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"dispatch/internal/domain"
)

// FareBreakdown itemizes a computed fare.
type FareBreakdown struct {
	BaseFare           float64
	SegmentFare        float64
	ExtraStopAmount    float64
	IntermediateStops  int
	DurationMultiplier float64
	FromStopTable      bool // segment priced from the stop table vs. per-km fallback
	Total              float64
}

// ComputeFare maps a route segment to a monetary fare.
//
// Convention (fixed; the formula is the contract): positions along a route
// are 0 (start point), 1..n (stops in sequence order) and n+1 (end point).
// fareFromStart is 0 at position 0 and the stop's cumulative offset at 1..n;
// the end point has no table entry. The fare is
//
//	baseFare + m × (segment + extraStopFare × intermediates)
//
// where segment = fareFromStart[dropoff] − fareFromStart[pickup] when both
// positions have table entries, otherwise perKmFare × distanceKm;
// m = max(durationMultiplier, 1); intermediates = stops strictly between the
// two positions. The flat base fare is never multiplied. The result is
// rounded half-up to 2 decimal places.
func ComputeFare(route *domain.Route, pickupPos, dropoffPos int, distanceKm, durationMultiplier float64) (*FareBreakdown, error) {
	last := route.EndPosition()

	if pickupPos < 0 || pickupPos > last || dropoffPos < 0 || dropoffPos > last {
		return nil, &InvalidRouteSegmentError{
			RouteID: route.ID, Pickup: pickupPos, Dropoff: dropoffPos,
			Reason: "position outside route",
		}
	}
	if pickupPos == dropoffPos {
		return nil, &InvalidRouteSegmentError{
			RouteID: route.ID, Pickup: pickupPos, Dropoff: dropoffPos,
			Reason: "pickup equals dropoff",
		}
	}
	if dropoffPos < pickupPos {
		return nil, &InvalidRouteSegmentError{
			RouteID: route.ID, Pickup: pickupPos, Dropoff: dropoffPos,
			Reason: "dropoff precedes pickup in route order",
		}
	}

	m := durationMultiplier
	if m < 1 {
		m = 1
	}

	breakdown := &FareBreakdown{
		BaseFare:           route.BaseFare,
		DurationMultiplier: m,
	}

	pickupFare, pickupOK := route.FareFromStart(pickupPos)
	dropoffFare, dropoffOK := route.FareFromStart(dropoffPos)

	if pickupOK && dropoffOK {
		breakdown.SegmentFare = dropoffFare - pickupFare
		breakdown.FromStopTable = true
	} else {
		breakdown.SegmentFare = route.PerKmFare * distanceKm
	}

	for pos := pickupPos + 1; pos < dropoffPos; pos++ {
		if pos >= 1 && pos <= len(route.Stops) {
			breakdown.IntermediateStops++
		}
	}
	breakdown.ExtraStopAmount = route.ExtraStopFare * float64(breakdown.IntermediateStops)

	total := breakdown.BaseFare + m*(breakdown.SegmentFare+breakdown.ExtraStopAmount)

	// A monotonic stop table cannot produce a negative total.
	if total < 0 {
		logrus.WithFields(logrus.Fields{
			"route_id": route.ID,
			"pickup":   pickupPos,
			"dropoff":  dropoffPos,
			"total":    total,
		}).Warn("computed fare below zero, clamping")
		total = 0
	}

	breakdown.Total = roundMoney(total)
	return breakdown, nil
}

// ComputeDistanceFare prices a segment purely from distance, for bookings
// whose pickup or dropoff does not lie on the route's stop sequence. Same
// multiplier convention as ComputeFare; no extra-stop charge, since the stops
// actually passed are unknown.
func ComputeDistanceFare(baseFare, perKmFare, distanceKm, durationMultiplier float64) *FareBreakdown {
	m := durationMultiplier
	if m < 1 {
		m = 1
	}

	breakdown := &FareBreakdown{
		BaseFare:           baseFare,
		SegmentFare:        perKmFare * distanceKm,
		DurationMultiplier: m,
	}
	breakdown.Total = roundMoney(baseFare + m*breakdown.SegmentFare)
	return breakdown
}

// roundMoney rounds to 2 decimal places, half up.
func roundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
